package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
)

const novelText = "第一章 开始\n这是第一章的正文。\n第二章 继续\n这是第二章的正文。\n"

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadUTF8(t *testing.T) {
	path := writeFile(t, "book.txt", []byte(novelText))

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Encoding != "utf-8" {
		t.Errorf("Encoding = %q, want utf-8", doc.Encoding)
	}
	if doc.Text != novelText {
		t.Errorf("Text = %q", doc.Text)
	}
	if len(doc.Chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(doc.Chapters))
	}
	if !strings.HasPrefix(doc.ChapterText(0), "第一章 开始") {
		t.Errorf("ChapterText(0) = %q", doc.ChapterText(0))
	}
	if !strings.HasPrefix(doc.ChapterText(1), "第二章 继续") {
		t.Errorf("ChapterText(1) = %q", doc.ChapterText(1))
	}
}

func TestLoadGBK(t *testing.T) {
	raw, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(novelText))
	if err != nil {
		t.Fatalf("GBK encode: %v", err)
	}
	path := writeFile(t, "book.txt", raw)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Encoding != "gbk" {
		t.Errorf("Encoding = %q, want gbk", doc.Encoding)
	}
	if doc.Text != novelText {
		t.Errorf("decoded text differs from the original")
	}
}

func TestLoadWithEncodingOverride(t *testing.T) {
	raw, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(novelText))
	if err != nil {
		t.Fatalf("GBK encode: %v", err)
	}
	path := writeFile(t, "book.txt", raw)

	doc, err := LoadWithEncoding(path, "gbk")
	if err != nil {
		t.Fatalf("LoadWithEncoding: %v", err)
	}
	if doc.Encoding != "gbk" {
		t.Errorf("Encoding = %q, want gbk", doc.Encoding)
	}
	if doc.Text != novelText {
		t.Errorf("decoded text differs from the original")
	}
}

func TestLoadNormalizesCRLF(t *testing.T) {
	path := writeFile(t, "book.txt", []byte("第一章 甲\r\n内容\r\n第二章 乙\r\n结尾\r\n"))

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if strings.Contains(doc.Text, "\r") {
		t.Error("text still contains carriage returns")
	}
	if len(doc.Chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(doc.Chapters))
	}
	// "第一章 甲\n内容\n" is 9 characters once CRLF collapses to \n.
	if doc.Chapters[1].Start != 9 {
		t.Errorf("second chapter start = %d, want 9", doc.Chapters[1].Start)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("Load of a missing file did not fail")
	}
}

func TestFromText(t *testing.T) {
	doc := FromText(novelText)
	if doc.Len() != len([]rune(novelText)) {
		t.Errorf("Len = %d, want %d", doc.Len(), len([]rune(novelText)))
	}
	if len(doc.Chapters) != 2 {
		t.Errorf("got %d chapters, want 2", len(doc.Chapters))
	}
}

func TestSliceClamps(t *testing.T) {
	doc := FromText("abc")
	tests := []struct {
		start, end int
		want       string
	}{
		{0, 3, "abc"},
		{-5, 2, "ab"},
		{1, 99, "bc"},
		{2, 1, ""},
		{3, 3, ""},
	}
	for _, tt := range tests {
		if got := doc.Slice(tt.start, tt.end); got != tt.want {
			t.Errorf("Slice(%d, %d) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestChapterTextOutOfRange(t *testing.T) {
	doc := FromText("no headings here")
	if got := doc.ChapterText(-1); got != "" {
		t.Errorf("ChapterText(-1) = %q", got)
	}
	if got := doc.ChapterText(5); got != "" {
		t.Errorf("ChapterText(5) = %q", got)
	}
	if got := doc.ChapterText(0); got != "no headings here" {
		t.Errorf("ChapterText(0) = %q", got)
	}
}

func TestChaptersCoverDocument(t *testing.T) {
	doc := FromText(novelText)
	var covered int
	for _, c := range doc.Chapters {
		covered += c.End - c.Start
	}
	if covered != doc.Len() {
		t.Errorf("chapters cover %d runes, document has %d", covered, doc.Len())
	}
}
