// Package format turns files on disk into decoded document text. Formats
// register themselves at init time; unknown extensions fall back to the
// plain-text path, which carries the encoding detection.
package format

import (
	"path/filepath"
	"strings"

	"novl/internal/chapter"
)

// Format extracts decoded text from a file. The second return value names
// the character encoding the bytes were read as.
type Format interface {
	Name() string
	Extensions() []string
	Extract(filename string) (text, encoding string, err error)
}

// Chapterer is an optional interface for formats that know their own
// chapter boundaries (EPUB spine items, for instance). Extracted chapters
// obey the same ordering and coverage rules as chapter.Parse output.
type Chapterer interface {
	ExtractChapters(filename string) (text, encoding string, chapters []chapter.Chapter, err error)
}

var registry []Format

// Register adds a format to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// ForFile returns the registered format handling the file's extension, or
// nil when no format claims it.
func ForFile(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f
			}
		}
	}
	return nil
}

// Supported returns registered format names with their extensions.
func Supported() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}
