package parser

import (
	"reflect"
	"testing"
)

func TestExtractTags_HeaderListAndInline(t *testing.T) {
	fields := ParseHeader("tags:\n  - Alpha\n  - beta\n")
	tags := ExtractTags(fields, "Some text #beta and #Gamma again.")
	want := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}

func TestExtractTags_HeaderStringSplits(t *testing.T) {
	fields := ParseHeader(`tags: "work, deep-focus  home"` + "\n")
	tags := ExtractTags(fields, "")
	want := []string{"work", "deep-focus", "home"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}

func TestExtractTags_HeaderNumericEntry(t *testing.T) {
	fields := ParseHeader("tags:\n  - 2024\n  - review\n")
	tags := ExtractTags(fields, "")
	want := []string{"2024", "review"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}

func TestExtractTags_SkipsFencedCode(t *testing.T) {
	body := "real #yes tag\n```\ncode #no tag\n```\nafter #also\n"
	tags := ExtractTags(nil, body)
	want := []string{"yes", "also"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}

func TestExtractTags_SkipsInlineCode(t *testing.T) {
	tags := ExtractTags(nil, "use `#channel` but tag #real")
	want := []string{"real"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}

func TestExtractTags_BoundaryBeforeHash(t *testing.T) {
	// URLs and anchors must not produce tags.
	tags := ExtractTags(nil, "https://example.com/page#anchor and word#notag but (#yes)")
	want := []string{"yes"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}

func TestNormalizeTag(t *testing.T) {
	cases := map[string]string{
		"#Work":      "work",
		"Deep-Focus": "deep-focus",
		"a/b/c":      "a/b/c",
		"bad tag":    "",
		"":           "",
		"#":          "",
		"ünïcode":    "",
		"snake_case": "snake_case",
	}
	for in, want := range cases {
		if got := NormalizeTag(in); got != want {
			t.Errorf("NormalizeTag(%q) = %q, want %q", in, got, want)
		}
	}
}
