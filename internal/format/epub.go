package format

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"

	"novl/internal/chapter"
)

// EPUBFormat reads EPUB books. Spine items become chapters, titled from the
// NCX table of contents when one exists. EPUB content is XHTML and therefore
// already UTF-8; no encoding detection runs on this path.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

func (f *EPUBFormat) Extract(filename string) (string, string, error) {
	text, _, _, err := f.ExtractChapters(filename)
	return text, "utf-8", err
}

// ExtractChapters pulls the text of every spine item and records a chapter
// span per item, measured in rune offsets into the joined text.
func (f *EPUBFormat) ExtractChapters(filename string) (string, string, []chapter.Chapter, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return "", "", nil, fmt.Errorf("no rootfiles found in epub")
	}
	book := rc.Rootfiles[0]

	titles := ncxTitles(filename, book)

	var sb strings.Builder
	var chapters []chapter.Chapter
	pos := 0

	for i, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}

		text := flattenHTML(string(data))
		if strings.TrimSpace(text) == "" {
			continue
		}

		title := fmt.Sprintf("Section %d", i+1)
		if t, ok := lookupTitle(titles, ref.Item.HREF); ok {
			title = t
		}

		if len(chapters) > 0 {
			chapters[len(chapters)-1].End = pos
		}
		chapters = append(chapters, chapter.Chapter{Title: title, Start: pos})

		sb.WriteString(text)
		sb.WriteString("\n")
		pos += utf8.RuneCountInString(text) + 1
	}

	full := sb.String()
	if len(chapters) == 0 {
		return full, "utf-8", chapter.Parse(full), nil
	}
	chapters[len(chapters)-1].End = pos
	return full, "utf-8", chapters, nil
}

// blockTags are elements whose boundaries become line breaks, so chapter
// headings and paragraphs keep their own lines in the flattened text.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// flattenHTML reduces an XHTML document to plain text, one line per block
// element.
func flattenHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			sb.WriteString("\n")
		}
	}
	walk(doc)

	// Collapse runs of blank lines left by nested blocks.
	lines := strings.Split(sb.String(), "\n")
	var out []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// NCX structures, the subset needed for title lookup.
type ncx struct {
	NavMap navMap `xml:"navMap"`
}

type navMap struct {
	NavPoints []navPoint `xml:"navPoint"`
}

type navPoint struct {
	Label    navLabel   `xml:"navLabel"`
	Content  navContent `xml:"content"`
	Children []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

// ncxTitles maps spine hrefs (and their basenames) to TOC titles. Missing or
// malformed NCX yields an empty map; chapters then fall back to numbered
// section titles.
func ncxTitles(filename string, book *epub.Rootfile) map[string]string {
	result := make(map[string]string)

	data, err := readNCX(filename, book)
	if err != nil {
		return result
	}
	var toc ncx
	if err := xml.Unmarshal(data, &toc); err != nil {
		return result
	}

	var collect func(points []navPoint)
	collect = func(points []navPoint) {
		for _, np := range points {
			title := strings.TrimSpace(np.Label.Text)
			href := np.Content.Src
			if i := strings.Index(href, "#"); i != -1 {
				href = href[:i]
			}
			for _, key := range []string{href, path.Base(href)} {
				if _, exists := result[key]; !exists && key != "" {
					result[key] = title
				}
			}
			collect(np.Children)
		}
	}
	collect(toc.NavMap.NavPoints)

	return result
}

func lookupTitle(titles map[string]string, href string) (string, bool) {
	if t, ok := titles[href]; ok && t != "" {
		return t, true
	}
	if t, ok := titles[path.Base(href)]; ok && t != "" {
		return t, true
	}
	return "", false
}

// readNCX locates the NCX member in the EPUB archive, by manifest media type
// first and by extension as a fallback.
func readNCX(filename string, book *epub.Rootfile) ([]byte, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var ncxPath string
	for _, item := range book.Manifest.Items {
		if item.MediaType == "application/x-dtbncx+xml" {
			ncxPath = item.HREF
			break
		}
	}
	if ncxPath == "" {
		for _, f := range zr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".ncx") {
				ncxPath = f.Name
				break
			}
		}
	}
	if ncxPath == "" {
		return nil, fmt.Errorf("no NCX file found in epub")
	}

	for _, f := range zr.File {
		if f.Name == ncxPath || strings.HasSuffix(f.Name, "/"+ncxPath) || path.Base(f.Name) == path.Base(ncxPath) {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("NCX file %s not found in archive", ncxPath)
}
