package parser

import (
	"regexp"
	"sort"
	"strings"
)

var (
	inlineTagRe = regexp.MustCompile(`#([A-Za-z0-9_/-]+)`)
	tagCharsRe  = regexp.MustCompile(`^[a-z0-9_/-]+$`)
)

// NormalizeTag lowercases a tag and strips an optional leading '#'.
// Tags containing characters outside [a-z0-9_-/] are rejected.
func NormalizeTag(s string) string {
	s = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "#")))
	if s == "" || !tagCharsRe.MatchString(s) {
		return ""
	}
	return s
}

// ExtractTags collects tags from the header's "tags" field and from inline
// #tokens in the body, lowercased and deduplicated in discovery order.
func ExtractTags(fields []Field, body string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(raw string) {
		t := NormalizeTag(raw)
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	for _, raw := range headerTags(fields) {
		add(raw)
	}
	for _, raw := range bodyTags(body) {
		add(raw)
	}
	return out
}

// headerTags reads the front-matter tags field. A single string splits on
// commas and whitespace; a list contributes each scalar entry (numbers
// included, since YAML happily types bare tags like 2024 as ints).
func headerTags(fields []Field) []string {
	v, ok := FieldByKey(fields, "tags")
	if !ok {
		return nil
	}
	switch v.Kind {
	case KindString:
		return strings.FieldsFunc(v.Str, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
	case KindSequence:
		var out []string
		for _, item := range v.Seq {
			if item.IsScalar() {
				out = append(out, item.ScalarString())
			}
		}
		return out
	default:
		return nil
	}
}

// bodyTags scans non-fenced, non-inline-code body text for #tokens. The
// character before the '#' must not be alphanumeric, '_' or '/', which
// keeps URL anchors and mid-word hashes out.
func bodyTags(body string) []string {
	var out []string
	var fs fenceState
	for _, line := range strings.Split(body, "\n") {
		if fs.update(line) || fs.inFence {
			continue
		}
		masked := maskInlineCode(line)
		for _, loc := range inlineTagRe.FindAllStringSubmatchIndex(masked, -1) {
			start := loc[0]
			if start > 0 && tagBoundaryViolation(masked[start-1]) {
				continue
			}
			out = append(out, masked[loc[2]:loc[3]])
		}
	}
	return out
}

func tagBoundaryViolation(prev byte) bool {
	switch {
	case prev >= 'a' && prev <= 'z', prev >= 'A' && prev <= 'Z':
		return true
	case prev >= '0' && prev <= '9':
		return true
	case prev == '_', prev == '/':
		return true
	}
	return false
}

// SortedTags returns a sorted copy, used where deterministic storage order
// matters more than discovery order.
func SortedTags(tags []string) []string {
	out := append([]string(nil), tags...)
	sort.Strings(out)
	return out
}
