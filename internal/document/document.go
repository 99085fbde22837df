// Package document loads a novel file into an immutable in-memory document:
// decoded text, resolved encoding and the chapter index. All offsets are
// rune offsets into the decoded text.
package document

import (
	"fmt"

	"novl/internal/chapter"
	"novl/internal/format"
)

// Document is one loaded novel. It never changes after Load; opening
// another file produces a fresh Document.
type Document struct {
	Path     string
	Encoding string
	Text     string
	Chapters []chapter.Chapter

	runes []rune
}

// Load reads, decodes and indexes the file at path. The format is picked by
// extension, defaulting to plain text with encoding detection. On error no
// document is returned, so a caller can keep showing the previous one.
func Load(path string) (*Document, error) {
	f := format.ForFile(path)
	if f == nil {
		f = &format.TXTFormat{}
	}
	return load(path, f)
}

// LoadWithEncoding is Load with detection bypassed: the file is decoded as
// the named encoding regardless of content. Only meaningful for plain text.
func LoadWithEncoding(path, encoding string) (*Document, error) {
	return load(path, &format.TXTFormat{Override: encoding})
}

func load(path string, f format.Format) (*Document, error) {
	var (
		text     string
		enc      string
		chapters []chapter.Chapter
		err      error
	)
	if c, ok := f.(format.Chapterer); ok {
		text, enc, chapters, err = c.ExtractChapters(path)
	} else {
		text, enc, err = f.Extract(path)
		if err == nil {
			chapters = chapter.Parse(text)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	return &Document{
		Path:     path,
		Encoding: enc,
		Text:     text,
		Chapters: chapters,
		runes:    []rune(text),
	}, nil
}

// FromText builds a document directly from decoded text, for input that
// does not come from a file (stdin, tests).
func FromText(text string) *Document {
	return &Document{
		Encoding: "utf-8",
		Text:     text,
		Chapters: chapter.Parse(text),
		runes:    []rune(text),
	}
}

// Len returns the document length in runes.
func (d *Document) Len() int { return len(d.runes) }

// Slice returns the text between two rune offsets, clamped to the document.
func (d *Document) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(d.runes) {
		end = len(d.runes)
	}
	if start >= end {
		return ""
	}
	return string(d.runes[start:end])
}

// ChapterText returns the text of the chapter at index i, or "" when i is
// out of range.
func (d *Document) ChapterText(i int) string {
	if i < 0 || i >= len(d.Chapters) {
		return ""
	}
	c := d.Chapters[i]
	return d.Slice(c.Start, c.End)
}
