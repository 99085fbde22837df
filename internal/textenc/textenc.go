// Package textenc detects and decodes the character encoding of novel files.
// Detection is a best-effort heuristic tuned for Chinese text: a statistical
// probe first, then an ordered candidate list validated by strict decoding and
// a CJK content check.
package textenc

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

const (
	// DefaultSampleSize is how many leading bytes feed the statistical probe.
	DefaultSampleSize = 10240

	// confidenceCutoff is the probe confidence above which its answer is
	// trusted without trying the candidate list.
	confidenceCutoff = 0.8

	// cjkCheckLimit bounds how many decoded characters the CJK heuristic
	// inspects.
	cjkCheckLimit = 1000
)

// Result is the outcome of a detection run.
type Result struct {
	Encoding   string
	Confidence float64 // 0..1
}

// candidates is the ordered list tried when the statistical probe is not
// confident. utf-8 first: it is also the default accept when a candidate
// decodes cleanly but contains no CJK text, so a valid UTF-8 file always
// wins at the first attempt.
var candidates = []string{
	"utf-8",
	"gbk",
	"gb2312",
	"big5",
	"utf-16",
	"utf-16le",
	"utf-16be",
	"ascii",
}

// Detect guesses the encoding of raw using the default sample size.
// It never fails: unreadable input yields utf-8.
func Detect(raw []byte) Result {
	return DetectSample(raw, DefaultSampleSize)
}

// DetectSample is Detect with an explicit probe sample size.
func DetectSample(raw []byte, sampleSize int) Result {
	if allASCII(raw) {
		// Pure ASCII is valid UTF-8; no probe can do better.
		return Result{Encoding: "utf-8", Confidence: 1}
	}

	sample := raw
	if sampleSize > 0 && len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}

	probed, confidence := probe(sample)
	if confidence > confidenceCutoff && probed != "" {
		return Result{Encoding: normalizeName(probed), Confidence: confidence}
	}

	for _, name := range candidates {
		decoded, ok := decodeStrict(raw, name)
		if !ok {
			continue
		}
		if containsCJK(decoded) {
			return Result{Encoding: name, Confidence: confidence}
		}
		if name == "utf-8" {
			// Clean UTF-8 without Chinese text is still UTF-8.
			return Result{Encoding: name, Confidence: confidence}
		}
	}

	if probed != "" {
		return Result{Encoding: normalizeName(probed), Confidence: confidence}
	}
	return Result{Encoding: "utf-8", Confidence: 0}
}

func allASCII(raw []byte) bool {
	for _, b := range raw {
		if b > 0x7F {
			return false
		}
	}
	return true
}

// probe runs the statistical byte-distribution detector over sample.
func probe(sample []byte) (name string, confidence float64) {
	if len(sample) == 0 {
		return "", 0
	}
	best, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || best == nil {
		return "", 0
	}
	return strings.ToLower(best.Charset), float64(best.Confidence) / 100
}

// normalizeName collapses encoding families the way downstream decoding
// expects: the simplified-Chinese family becomes gbk (a superset of gb2312),
// UTF-8 and Big5 variants collapse to their base names.
func normalizeName(name string) string {
	switch name {
	case "gb2312", "gbk", "gb18030", "gb-18030":
		return "gbk"
	case "ascii":
		return "utf-8"
	}
	switch {
	case strings.HasPrefix(name, "utf-8"):
		return "utf-8"
	case strings.HasPrefix(name, "big5"):
		return "big5"
	}
	return name
}

// containsCJK reports whether the leading characters of text include any
// CJK Unified Ideograph (U+4E00..U+9FFF).
func containsCJK(text string) bool {
	n := 0
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
		n++
		if n >= cjkCheckLimit {
			break
		}
	}
	return false
}

// decoderFor maps an encoding name to its x/text decoder. ascii and utf-8
// need no transformation and are handled by the callers directly.
func decoderFor(name string) *encoding.Decoder {
	switch normalizeName(name) {
	case "gbk":
		return simplifiedchinese.GBK.NewDecoder()
	case "big5":
		return traditionalchinese.Big5.NewDecoder()
	case "utf-16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	}
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc.NewDecoder()
	}
	return nil
}

// decodeStrict decodes raw as name, rejecting any input the encoding cannot
// represent. x/text decoders substitute U+FFFD for invalid sequences instead
// of failing, so a replacement character in the output (absent from a valid
// UTF-8 interpretation of the input) also counts as a failed attempt.
func decodeStrict(raw []byte, name string) (string, bool) {
	switch name {
	case "utf-8":
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(bytes.TrimPrefix(raw, utf8BOM)), true
	case "ascii":
		if !allASCII(raw) {
			return "", false
		}
		return string(raw), true
	}

	dec := decoderFor(name)
	if dec == nil {
		return "", false
	}
	out, err := dec.Bytes(raw)
	if err != nil {
		return "", false
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode decodes raw as name with replacement-on-error semantics, so a
// document loads even when the detected encoding is wrong for some bytes.
// Unknown names fall back to a permissive UTF-8 read.
func Decode(raw []byte, name string) string {
	name = strings.ToLower(name)
	switch name {
	case "utf-8", "ascii", "":
		return string(bytes.TrimPrefix(raw, utf8BOM))
	}
	dec := decoderFor(name)
	if dec == nil {
		return string(bytes.TrimPrefix(raw, utf8BOM))
	}
	out, err := dec.Bytes(raw)
	if err != nil {
		// Partial output is still better than refusing to load.
		return string(raw)
	}
	return string(out)
}
