package index

import (
	"testing"
)

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	mustIndex(t, db, "s.md", "---\ntitle: Search Me\n---\nxylophone appears here\n")
	mustIndex(t, db, "other.md", "nothing relevant\n")

	hits, err := db.Search("xylophone", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "s.md" {
		t.Errorf("hits = %+v, want 1 hit for s.md", hits)
	}
	if hits[0].Score <= 0 {
		t.Errorf("score = %f, want positive", hits[0].Score)
	}
}

func TestSearch_FullMatchRanksHigher(t *testing.T) {
	db := testDB(t)
	mustIndex(t, db, "full.md", "---\ntitle: Alpha Notes\n---\nalpha notes live here\n")
	mustIndex(t, db, "partial.md", "---\ntitle: Misc\n---\nsome notes only\n")

	hits, err := db.Search("alpha notes", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 || hits[0].ID != "full.md" {
		t.Fatalf("hits = %+v, want full.md first", hits)
	}
	for _, h := range hits[1:] {
		if h.Score >= hits[0].Score {
			t.Errorf("%s score %f >= top score %f", h.ID, h.Score, hits[0].Score)
		}
	}
}

func TestSearch_TagFilterANDSemantics(t *testing.T) {
	db := testDB(t)
	mustIndex(t, db, "both.md", "---\ntags: [work, deep]\n---\nshared content\n")
	mustIndex(t, db, "one.md", "---\ntags: [work]\n---\nshared content\n")

	hits, err := db.SearchAdvanced(SearchQuery{Query: "shared", Tags: []string{"work", "deep"}, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "both.md" {
		t.Errorf("hits = %+v, want only both.md", hits)
	}
}

func TestSearch_TagOnlyFallback(t *testing.T) {
	db := testDB(t)
	mustIndex(t, db, "old.md", "---\ntags: [project]\nupdated: 2025-01-01\n---\nnothing matching the word\n")
	mustIndex(t, db, "new.md", "---\ntags: [project]\nupdated: 2025-06-01\n---\nother text entirely\n")
	mustIndex(t, db, "untagged.md", "project mentioned inline but untagged\n")

	// TagOnly reinterprets the free text as tags; zero keyword matches must
	// still return the tagged notes by recency.
	hits, err := db.SearchAdvanced(SearchQuery{Query: "#project", TagOnly: true, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %+v, want the 2 tagged notes", hits)
	}
	if hits[0].ID != "new.md" || hits[1].ID != "old.md" {
		t.Errorf("order = %s, %s, want recency", hits[0].ID, hits[1].ID)
	}
}

func TestSearch_TitleOnly(t *testing.T) {
	db := testDB(t)
	mustIndex(t, db, "t1.md", "---\ntitle: Weekly Review\nupdated: 2025-01-01\n---\nbody\n")
	mustIndex(t, db, "t2.md", "---\ntitle: Review Checklist\nupdated: 2025-06-01\n---\nbody\n")
	mustIndex(t, db, "t3.md", "---\ntitle: Unrelated\n---\nreview appears in body only\n")

	hits, err := db.SearchAdvanced(SearchQuery{Query: "review", TitleOnly: true, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %+v, want 2 title matches", hits)
	}
	if hits[0].ID != "t2.md" || hits[1].ID != "t1.md" {
		t.Errorf("order = %s, %s, want recency", hits[0].ID, hits[1].ID)
	}
}

func TestSearch_EmptyQueryNoTags(t *testing.T) {
	db := testDB(t)
	mustIndex(t, db, "a.md", "content\n")

	for _, query := range []string{"", "   "} {
		hits, err := db.Search(query, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(hits) != 0 {
			t.Errorf("query %q: hits = %+v, want none", query, hits)
		}
	}
}

func TestSearch_LimitTruncates(t *testing.T) {
	db := testDB(t)
	mustIndex(t, db, "l1.md", "pelican one\n")
	mustIndex(t, db, "l2.md", "pelican two\n")
	mustIndex(t, db, "l3.md", "pelican three\n")

	hits, err := db.Search("pelican", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("len = %d, want 2", len(hits))
	}
}

func TestSearch_EmptyIndexReturnsEmpty(t *testing.T) {
	db := testDB(t)
	hits, err := db.Search("anything", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %+v, want none", hits)
	}
}

func TestTrigramJaccard(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"abc", "abc", 1},
		{"ab", "abc", 0},
		{"", "abc", 0},
		{"abcd", "zzzz", 0},
	}
	for _, tc := range cases {
		got := trigramJaccard(trigrams(tc.a), trigrams(tc.b))
		if got != tc.want {
			t.Errorf("jaccard(%q, %q) = %f, want %f", tc.a, tc.b, got, tc.want)
		}
	}

	// "abcd" vs "bcde": grams {abc,bcd} vs {bcd,cde}, 1 of 3.
	got := trigramJaccard(trigrams("abcd"), trigrams("bcde"))
	if got < 0.33 || got > 0.34 {
		t.Errorf("jaccard(abcd, bcde) = %f, want 1/3", got)
	}
}
