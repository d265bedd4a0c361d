package parser

import "testing"

func hasPath(refs LinkRefs, p string) bool {
	_, ok := refs.Paths[p]
	return ok
}

func hasTitle(refs LinkRefs, t string) bool {
	_, ok := refs.Titles[t]
	return ok
}

func TestExtractLinks_BareTitleWikilink(t *testing.T) {
	refs := ExtractLinks("a.md", "See [[Project Plan]] and [[Project Plan|the plan]].")
	if len(refs.Titles) != 1 || !hasTitle(refs, "Project Plan") {
		t.Errorf("titles = %v", refs.Titles)
	}
	if len(refs.Paths) != 0 {
		t.Errorf("unexpected paths %v", refs.Paths)
	}
}

func TestExtractLinks_WikilinkHeadingSuffix(t *testing.T) {
	refs := ExtractLinks("a.md", "see [[Target#Section]]")
	if !hasTitle(refs, "Target") {
		t.Errorf("titles = %v", refs.Titles)
	}
}

func TestExtractLinks_PathWikilink(t *testing.T) {
	refs := ExtractLinks("a.md", "see [[topics/alpha]] and [[beta.md]]")
	if !hasPath(refs, "topics/alpha.md") {
		t.Errorf("paths = %v", refs.Paths)
	}
	if !hasPath(refs, "beta.md") {
		t.Errorf("paths = %v", refs.Paths)
	}
}

func TestExtractLinks_EscapeDropped(t *testing.T) {
	refs := ExtractLinks("a.md", "bad [[../../etc/passwd.md]] link")
	if len(refs.Paths) != 0 {
		t.Errorf("escaping path should be dropped, got %v", refs.Paths)
	}
}

func TestExtractLinks_MarkdownRelative(t *testing.T) {
	refs := ExtractLinks("topics/deep/a.md", "see [b](../b.md) and [c](c.md)")
	if !hasPath(refs, "topics/b.md") {
		t.Errorf("paths = %v", refs.Paths)
	}
	if !hasPath(refs, "topics/deep/c.md") {
		t.Errorf("paths = %v", refs.Paths)
	}
}

func TestExtractLinks_MarkdownRootRelative(t *testing.T) {
	refs := ExtractLinks("topics/a.md", "see [idx](/index.md)")
	if !hasPath(refs, "index.md") {
		t.Errorf("paths = %v", refs.Paths)
	}
}

func TestExtractLinks_MarkdownSkipsExternal(t *testing.T) {
	refs := ExtractLinks("a.md", "[site](https://example.com/x.md) [mail](mailto:x@y.md) [img](pic.png)")
	if len(refs.Paths) != 0 {
		t.Errorf("external/non-note targets should be skipped, got %v", refs.Paths)
	}
}

func TestExtractLinks_MarkdownFragmentAndQuery(t *testing.T) {
	refs := ExtractLinks("a.md", "[b](b.md#section) [c](c.md?rev=2)")
	if !hasPath(refs, "b.md") || !hasPath(refs, "c.md") {
		t.Errorf("paths = %v", refs.Paths)
	}
}

func TestExtractLinks_EmptyTarget(t *testing.T) {
	refs := ExtractLinks("a.md", "see [[ ]] and [[|alias]]")
	if len(refs.Titles) != 0 || len(refs.Paths) != 0 {
		t.Errorf("expected no refs, got %v / %v", refs.Titles, refs.Paths)
	}
}
