package parser

import (
	"path"
	"regexp"
	"strings"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)
	mdLinkRe   = regexp.MustCompile(`\]\(([^()\s]+)\)`)
)

// LinkRefs holds the outgoing references found in one document, split into
// resolved vault-relative paths and unresolved bare titles.
type LinkRefs struct {
	Paths  map[string]struct{}
	Titles map[string]struct{}
}

// ExtractLinks scans text for [[wikilink]] and ](target) references.
// noteID is the source document's vault-relative path; markdown targets
// resolve against its directory. Targets escaping the vault root are
// dropped rather than reported as errors.
func ExtractLinks(noteID, text string) LinkRefs {
	refs := LinkRefs{
		Paths:  make(map[string]struct{}),
		Titles: make(map[string]struct{}),
	}

	for _, m := range wikilinkRe.FindAllStringSubmatch(text, -1) {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		if i := strings.Index(target, "#"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if strings.Contains(target, "/") || hasNoteExt(target) {
			if p, ok := normalizeVaultPath(target); ok {
				refs.Paths[p] = struct{}{}
			}
			continue
		}
		refs.Titles[target] = struct{}{}
	}

	srcDir := path.Dir(strings.ReplaceAll(noteID, "\\", "/"))
	for _, m := range mdLinkRe.FindAllStringSubmatch(text, -1) {
		target := m[1]
		lower := strings.ToLower(target)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
			strings.HasPrefix(lower, "mailto:") {
			continue
		}
		if i := strings.Index(target, "#"); i >= 0 {
			target = target[:i]
		}
		if i := strings.Index(target, "?"); i >= 0 {
			target = target[:i]
		}
		if !hasNoteExt(target) {
			continue
		}
		var joined string
		if strings.HasPrefix(target, "/") {
			joined = strings.TrimPrefix(target, "/")
		} else {
			joined = path.Join(srcDir, target)
		}
		if p, ok := normalizeVaultPath(joined); ok {
			refs.Paths[p] = struct{}{}
		}
	}

	return refs
}

func hasNoteExt(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ".md")
}

// normalizeVaultPath collapses . and .. segments and rejects anything that
// would climb above the vault root. The .md extension is appended when a
// path-style wikilink omits it.
func normalizeVaultPath(p string) (string, bool) {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "/")
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	if !hasNoteExt(cleaned) {
		cleaned += ".md"
	}
	return cleaned, true
}
