// Package reader holds the state of one reading session: the open document,
// the current chapter and the position within it.
package reader

import (
	"unicode/utf8"

	"novl/internal/chapter"
	"novl/internal/document"
)

// PageSize is the fixed page length, in characters, used for the page
// display. Purely a convenience metric; nothing is paginated for real.
const PageSize = 1000

// Reader is a reading session over a loaded document.
type Reader struct {
	Doc *document.Document

	// Current is the index of the chapter being displayed.
	Current int

	// Pos is the rune offset of the reading position within the current
	// chapter.
	Pos int
}

// New starts a session at the first chapter of doc.
func New(doc *document.Document) *Reader {
	return &Reader{Doc: doc}
}

// ChapterCount returns the number of chapters in the document.
func (r *Reader) ChapterCount() int { return len(r.Doc.Chapters) }

// ChapterTitle returns the title of the current chapter.
func (r *Reader) ChapterTitle() string {
	if r.Current < 0 || r.Current >= len(r.Doc.Chapters) {
		return ""
	}
	return r.Doc.Chapters[r.Current].Title
}

// ChapterText returns the text of the current chapter.
func (r *Reader) ChapterText() string {
	return r.Doc.ChapterText(r.Current)
}

// JumpToChapter switches to chapter i and resets the position. Out-of-range
// indices are ignored.
func (r *Reader) JumpToChapter(i int) bool {
	if i < 0 || i >= len(r.Doc.Chapters) {
		return false
	}
	r.Current = i
	r.Pos = 0
	return true
}

// NextChapter advances to the following chapter, if there is one.
func (r *Reader) NextChapter() bool { return r.JumpToChapter(r.Current + 1) }

// PrevChapter moves back to the preceding chapter, if there is one.
func (r *Reader) PrevChapter() bool { return r.JumpToChapter(r.Current - 1) }

// JumpToOffset moves the session to the chapter containing the given
// document-wide rune offset and positions within it.
func (r *Reader) JumpToOffset(offset int) {
	if len(r.Doc.Chapters) == 0 {
		return
	}
	i := chapter.At(r.Doc.Chapters, offset)
	r.Current = i
	r.Pos = offset - r.Doc.Chapters[i].Start
	if r.Pos < 0 {
		r.Pos = 0
	}
}

// Page returns the current page and the page count of the current chapter,
// both 1-based: position/1000+1 over length/1000+1.
func (r *Reader) Page() (current, total int) {
	length := utf8.RuneCountInString(r.ChapterText())
	return r.Pos/PageSize + 1, length/PageSize + 1
}

// Progress returns the current chapter number and chapter count, 1-based.
func (r *Reader) Progress() (current, total int) {
	return r.Current + 1, len(r.Doc.Chapters)
}
