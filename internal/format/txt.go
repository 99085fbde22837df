package format

import (
	"fmt"
	"os"
	"strings"

	"novl/internal/textenc"
)

// TXTFormat reads plain-text novels. The encoding is detected from the raw
// bytes unless Override pins one, then the whole file is decoded with
// replacement-on-error semantics so a wrong guess still produces a readable
// document.
type TXTFormat struct {
	// Override, when set, names the encoding to decode with instead of
	// running detection.
	Override string
}

func init() {
	Register(&TXTFormat{})
}

func (f *TXTFormat) Name() string         { return "Text" }
func (f *TXTFormat) Extensions() []string { return []string{".txt", ".text"} }

func (f *TXTFormat) Extract(filename string) (string, string, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", filename, err)
	}

	enc := f.Override
	if enc == "" {
		enc = textenc.Detect(raw).Encoding
	}

	return normalizeNewlines(textenc.Decode(raw, enc)), enc, nil
}

// normalizeNewlines folds CRLF and bare CR to \n. Chapter offsets assume a
// one-character line separator.
func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
