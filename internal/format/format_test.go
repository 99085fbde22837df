package format

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"novel.txt", "Text"},
		{"NOVEL.TXT", "Text"},
		{"book.text", "Text"},
		{"book.epub", "EPUB"},
		{"Book.EPUB", "EPUB"},
		{"notes.md", ""},
		{"noext", ""},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			f := ForFile(tt.filename)
			if tt.want == "" {
				if f != nil {
					t.Errorf("ForFile(%q) = %s, want nil", tt.filename, f.Name())
				}
				return
			}
			if f == nil {
				t.Fatalf("ForFile(%q) = nil, want %s", tt.filename, tt.want)
			}
			if f.Name() != tt.want {
				t.Errorf("ForFile(%q) = %s, want %s", tt.filename, f.Name(), tt.want)
			}
		})
	}
}

func TestSupported(t *testing.T) {
	names := Supported()
	joined := strings.Join(names, "; ")
	if !strings.Contains(joined, "Text") || !strings.Contains(joined, "EPUB") {
		t.Errorf("Supported() = %v, missing registered formats", names)
	}
}

func TestTXTExtractDetectsGBK(t *testing.T) {
	const text = "第一章 开始\n这是中文正文内容，用来测试编码检测。\n"
	raw, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(text))
	if err != nil {
		t.Fatalf("GBK encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "book.txt")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, enc, err := (&TXTFormat{}).Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if enc != "gbk" {
		t.Errorf("encoding = %q, want gbk", enc)
	}
	if got != text {
		t.Errorf("text = %q, want %q", got, text)
	}
}

func TestTXTExtractOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.txt")
	if err := os.WriteFile(path, []byte("plain ascii\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, enc, err := (&TXTFormat{Override: "gbk"}).Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if enc != "gbk" {
		t.Errorf("encoding = %q, want the override gbk", enc)
	}
}

func TestTXTExtractMissingFile(t *testing.T) {
	if _, _, err := (&TXTFormat{}).Extract(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("Extract of a missing file did not fail")
	}
}

func TestNormalizeNewlines(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a\r\nb", "a\nb"},
		{"a\rb", "a\nb"},
		{"a\nb", "a\nb"},
		{"a\r\n\r\nb", "a\n\nb"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeNewlines(tt.in); got != tt.want {
			t.Errorf("normalizeNewlines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFlattenHTML(t *testing.T) {
	in := `<html><body><h1>Chapter 1</h1><p>First paragraph.</p><div><p>Nested paragraph.</p></div></body></html>`
	got := flattenHTML(in)
	want := "Chapter 1\nFirst paragraph.\nNested paragraph."
	if got != want {
		t.Errorf("flattenHTML = %q, want %q", got, want)
	}
}

func TestFlattenHTMLStripsBlankLines(t *testing.T) {
	in := `<html><body><div><div><p>only line</p></div></div></body></html>`
	got := flattenHTML(in)
	if got != "only line" {
		t.Errorf("flattenHTML = %q, want %q", got, "only line")
	}
}

func TestLookupTitle(t *testing.T) {
	titles := map[string]string{
		"text/ch1.xhtml": "第一章",
		"ch2.xhtml":      "第二章",
	}
	if got, ok := lookupTitle(titles, "text/ch1.xhtml"); !ok || got != "第一章" {
		t.Errorf("exact href lookup = %q %v", got, ok)
	}
	if got, ok := lookupTitle(titles, "OEBPS/ch2.xhtml"); !ok || got != "第二章" {
		t.Errorf("basename lookup = %q %v", got, ok)
	}
	if _, ok := lookupTitle(titles, "ch3.xhtml"); ok {
		t.Error("lookup of an unknown href reported a title")
	}
}
