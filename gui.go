//go:build gui

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"novl/internal/document"
	"novl/internal/reader"
	"novl/internal/search"
	"novl/internal/state"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// gui bundles the widgets that change as the reading session moves.
type gui struct {
	rd       *reader.Reader
	store    *state.StateStore
	fileHash string

	worker    *search.Worker
	session   *search.Session
	searchGen uint64
	keyword   string

	window      fyne.Window
	textLabel   *widget.Label
	textScroll  *container.Scroll
	chapterList *widget.List
	statusLabel *widget.Label
	resultLabel *widget.Label
}

func (g *gui) showChapter(i int) {
	if !g.rd.JumpToChapter(i) {
		return
	}
	g.session = nil
	g.keyword = ""
	g.resultLabel.SetText("")
	g.textLabel.SetText(g.rd.ChapterText())
	g.textScroll.ScrollToTop()
	g.chapterList.Select(i)
	g.updateStatus()
}

func (g *gui) updateStatus() {
	chapterNo, chapterTotal := g.rd.Progress()
	page, pages := g.rd.Page()
	g.statusLabel.SetText(fmt.Sprintf("编码: %s | 章节 %d/%d %s | 页码 %d/%d",
		g.rd.Doc.Encoding,
		chapterNo, chapterTotal,
		strings.TrimSpace(g.rd.ChapterTitle()),
		page, pages,
	))
}

// startSearch scans the current chapter on a worker goroutine and applies
// the completed result set back on the UI thread. Results of a superseded
// search are dropped by generation tag.
func (g *gui) startSearch(keyword string, caseSensitive bool) {
	keyword = strings.TrimSpace(keyword)
	g.session = nil
	g.keyword = keyword
	if keyword == "" {
		g.resultLabel.SetText("")
		return
	}

	g.resultLabel.SetText("搜索中...")
	gen, ch := g.worker.Start(g.rd.ChapterText(), keyword, caseSensitive)
	g.searchGen = gen

	go func() {
		var matches []search.Match
		for ev := range ch {
			if ev.Gen != gen {
				return
			}
			if ev.Match != nil {
				matches = append(matches, *ev.Match)
			}
			if ev.Done {
				fyne.Do(func() {
					if gen != g.searchGen {
						return
					}
					g.session = search.NewSession(matches)
					if ev.Total == 0 {
						g.resultLabel.SetText("未找到结果")
						return
					}
					g.showCurrentMatch()
				})
				return
			}
		}
	}()
}

// showCurrentMatch scrolls roughly to the match under the cursor and shows
// its context snippet.
func (g *gui) showCurrentMatch() {
	match, ok := g.session.Current()
	if !ok {
		return
	}

	text := g.rd.ChapterText()
	length := utf8.RuneCountInString(text)
	if length > 0 {
		content := g.textScroll.Content.Size()
		y := float32(match.Offset) / float32(length) * content.Height
		g.textScroll.Offset = fyne.NewPos(0, y-g.textScroll.Size().Height/2)
		g.textScroll.Refresh()
	}

	g.rd.JumpToOffset(g.rd.Doc.Chapters[g.rd.Current].Start + match.Offset)
	g.resultLabel.SetText(fmt.Sprintf("%d/%d  ...%s[%s]%s...",
		g.session.Index()+1, g.session.Count(),
		match.Before, g.keyword, match.After,
	))
	g.updateStatus()
}

func (g *gui) savePosition() {
	if g.store == nil || g.fileHash == "" {
		return
	}
	g.store.SetPosition(g.fileHash, state.ReadingState{
		Chapter: g.rd.Current,
		Offset:  g.rd.Pos,
	})
}

func main() {
	encodingName := flag.String("e", "", "Force a character encoding (utf-8, gbk, big5, ...) instead of detecting")
	freshStart := flag.Bool("fresh", false, "Ignore saved reading position")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Novl - Novel Reader (GUI)\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  novl-gui [options] file\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("novl %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: No input provided. Provide a file to read.")
		fmt.Fprintln(os.Stderr, "Try: novl-gui -h")
		os.Exit(1)
	}

	filename := flag.Arg(0)
	var (
		doc *document.Document
		err error
	)
	if *encodingName != "" {
		doc, err = document.LoadWithEncoding(filename, *encodingName)
	} else {
		doc, err = document.Load(filename)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	g := &gui{
		rd:     reader.New(doc),
		worker: &search.Worker{},
	}

	if s, err := state.NewStateStore(); err == nil {
		g.store = s
		if h, err := state.ComputeHash(filename); err == nil {
			g.fileHash = h
			if !*freshStart {
				pos := s.GetPosition(h)
				if g.rd.JumpToChapter(pos.Chapter) {
					g.rd.Pos = pos.Offset
				}
			}
		}
	}

	a := app.New()
	w := a.NewWindow("novl - " + filename)
	g.window = w

	g.textLabel = widget.NewLabel(g.rd.ChapterText())
	g.textLabel.Wrapping = fyne.TextWrapWord
	g.textScroll = container.NewVScroll(g.textLabel)

	g.chapterList = widget.NewList(
		func() int { return g.rd.ChapterCount() },
		func() fyne.CanvasObject {
			return widget.NewLabel("章节")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			c := g.rd.Doc.Chapters[id]
			obj.(*widget.Label).SetText(fmt.Sprintf("%02d. %s", id+1, strings.TrimSpace(c.Title)))
		},
	)
	g.chapterList.OnSelected = func(id widget.ListItemID) {
		g.showChapter(id)
	}

	searchEntry := widget.NewEntry()
	searchEntry.SetPlaceHolder("搜索关键词")
	caseCheck := widget.NewCheck("区分大小写", nil)
	g.resultLabel = widget.NewLabel("")

	doSearch := func() {
		g.startSearch(searchEntry.Text, caseCheck.Checked)
	}
	searchEntry.OnSubmitted = func(string) { doSearch() }

	searchBtn := widget.NewButton("搜索", doSearch)
	prevBtn := widget.NewButton("上一个", func() {
		if g.session != nil {
			if _, ok := g.session.Previous(); ok {
				g.showCurrentMatch()
			}
		}
	})
	nextBtn := widget.NewButton("下一个", func() {
		if g.session != nil {
			if _, ok := g.session.Next(); ok {
				g.showCurrentMatch()
			}
		}
	})

	searchBar := container.NewBorder(nil, nil, nil,
		container.NewHBox(caseCheck, searchBtn, prevBtn, nextBtn, g.resultLabel),
		searchEntry,
	)

	g.statusLabel = widget.NewLabel("")
	g.updateStatus()

	content := container.NewBorder(
		searchBar,
		g.statusLabel,
		nil, nil,
		g.textScroll,
	)

	split := container.NewHSplit(g.chapterList, content)
	split.Offset = 0.25

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeyLeft:
			g.showChapter(g.rd.Current - 1)
		case fyne.KeyRight:
			g.showChapter(g.rd.Current + 1)
		case fyne.KeyQ:
			g.savePosition()
			a.Quit()
		}
	})

	w.SetOnClosed(func() {
		g.savePosition()
	})

	w.Resize(fyne.NewSize(1000, 700))
	w.SetContent(split)

	// Selecting fires showChapter, which resets the in-chapter position;
	// reapply the restored offset afterwards.
	savedPos := g.rd.Pos
	g.chapterList.Select(g.rd.Current)
	g.rd.Pos = savedPos
	g.updateStatus()

	w.ShowAndRun()
}
