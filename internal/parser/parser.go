// Package parser implements the per-document extraction pipeline: front
// matter, links, tags, typed properties, and checkbox tasks. Everything in
// this package is pure text processing with no I/O.
package parser

import (
	"path"
	"strings"

	"github.com/sorenblk/quarry/internal/models"
)

// PreviewLines is how many body lines the note preview keeps.
const PreviewLines = 20

// Document is the full extraction result for one note.
type Document struct {
	Header     string
	Body       string
	Fields     []Field
	Title      string
	Created    string
	Updated    string
	Tags       []string
	Links      LinkRefs
	Properties []models.Property
	Tasks      []models.Task
	// BodyOffset is the number of document lines before the body starts.
	BodyOffset int
}

// ParseDocument runs the whole pipeline over one document. It never fails:
// malformed pieces degrade to safe defaults (empty header, no tags, title
// from the filename stem).
func ParseDocument(noteID, text string) *Document {
	header, body := SplitFrontmatter(text)
	fields := ParseHeader(header)

	offset := 0
	if header != "" {
		offset = strings.Count(header, "\n") + 3 // header lines + both fences
	}

	doc := &Document{
		Header:     header,
		Body:       body,
		Fields:     fields,
		Title:      deriveTitle(fields, noteID),
		Created:    headerString(fields, "created"),
		Updated:    headerString(fields, "updated"),
		Tags:       ExtractTags(fields, body),
		Links:      ExtractLinks(noteID, text),
		Properties: ExtractProperties(noteID, fields),
		Tasks:      ExtractTasks(noteID, body, offset),
		BodyOffset: offset,
	}
	return doc
}

// deriveTitle uses the header title when present, otherwise the filename
// stem, otherwise "Untitled".
func deriveTitle(fields []Field, noteID string) string {
	if v, ok := FieldByKey(fields, "title"); ok && v.Kind == KindString && strings.TrimSpace(v.Str) != "" {
		return strings.TrimSpace(v.Str)
	}
	stem := strings.TrimSuffix(path.Base(strings.ReplaceAll(noteID, "\\", "/")), ".md")
	if stem == "" || stem == "." {
		return "Untitled"
	}
	return stem
}

func headerString(fields []Field, key string) string {
	v, ok := FieldByKey(fields, key)
	if !ok || !v.IsScalar() {
		return ""
	}
	return strings.TrimSpace(v.ScalarString())
}

// Preview returns the first PreviewLines body lines joined by newlines,
// with a trailing ellipsis line when truncated.
func Preview(body string) string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	if len(lines) <= PreviewLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:PreviewLines], "\n") + "\n…"
}
