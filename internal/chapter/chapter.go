// Package chapter splits a decoded novel into titled chapter spans by
// heuristic heading detection.
package chapter

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Chapter is a titled contiguous character span within a document.
// Start and End are rune offsets into the decoded text, Start inclusive,
// End exclusive. Chapters produced by Parse are sorted, non-overlapping
// and cover the whole document.
type Chapter struct {
	Title string
	Start int
	End   int
}

// WholeDocumentTitle names the single fallback chapter used when no heading
// matches.
const WholeDocumentTitle = "全文"

// PrefaceTitle names the chapter synthesized for text that precedes the
// first detected heading, so the chapter list always covers the document.
const PrefaceTitle = "前言"

// headingPattern combines the supported heading forms into one alternation,
// matched against each line's trimmed content. Covers CJK-numeral and Arabic
// chapter/section markers, English "Chapter N", "章节N" and a bare
// leading-integer-with-period form.
var headingPattern = regexp.MustCompile(`(?i)^(` +
	`第[零一二三四五六七八九十百千万0-9]+章.*` +
	`|第[0-9]+章.*` +
	`|Chapter\s*[0-9]+.*` +
	`|章节[0-9]+.*` +
	`|[0-9]+\..*` +
	`|第[零一二三四五六七八九十百千万0-9]+节.*` +
	`)$`)

// IsHeading reports whether a single line (already trimmed) reads as a
// chapter heading.
func IsHeading(line string) bool {
	return line != "" && headingPattern.MatchString(line)
}

// Parse scans text line by line and returns its chapters in order.
//
// Offsets count runes, not bytes, and assume \n line endings; callers with
// CRLF input must normalize first or offsets drift. A heading opens a new
// chapter at the offset of the start of its line and closes the previous one
// at the same offset. The title keeps the line as written, indentation
// included. When nothing matches, the entire text becomes one chapter.
func Parse(text string) []Chapter {
	total := utf8.RuneCountInString(text)

	var chapters []Chapter
	pos := 0
	for _, line := range strings.Split(text, "\n") {
		if IsHeading(strings.TrimSpace(line)) {
			if len(chapters) > 0 {
				chapters[len(chapters)-1].End = pos
			}
			chapters = append(chapters, Chapter{Title: line, Start: pos, End: total})
		}
		pos += utf8.RuneCountInString(line) + 1 // +1 for the consumed newline
	}

	if len(chapters) == 0 {
		return []Chapter{{Title: WholeDocumentTitle, Start: 0, End: total}}
	}
	if chapters[0].Start > 0 {
		// Text before the first heading still belongs to some chapter.
		chapters = append([]Chapter{{Title: PrefaceTitle, Start: 0, End: chapters[0].Start}}, chapters...)
	}
	return chapters
}

// At returns the index of the chapter containing the given rune offset,
// or 0 when chapters is empty or the offset precedes every chapter.
func At(chapters []Chapter, offset int) int {
	for i := len(chapters) - 1; i >= 0; i-- {
		if offset >= chapters[i].Start {
			return i
		}
	}
	return 0
}
