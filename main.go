//go:build !gui

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"novl/internal/document"
	"novl/internal/format"
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

// theme is a named set of styles for the text view, mirroring the reading
// themes of desktop novel readers: default, dark, sepia.
type theme struct {
	name   string
	text   lipgloss.Style
	status lipgloss.Style
	match  lipgloss.Style
	active lipgloss.Style
}

var themes = []theme{
	{
		name:   "默认",
		text:   lipgloss.NewStyle(),
		status: lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Padding(0, 1),
		match:  lipgloss.NewStyle().Reverse(true),
		active: lipgloss.NewStyle().Background(lipgloss.Color("#FFAA00")).Foreground(lipgloss.Color("#000000")),
	},
	{
		name:   "护眼深色",
		text:   lipgloss.NewStyle().Background(lipgloss.Color("#2D2D2D")).Foreground(lipgloss.Color("#DCDCDC")),
		status: lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Padding(0, 1),
		match:  lipgloss.NewStyle().Reverse(true),
		active: lipgloss.NewStyle().Background(lipgloss.Color("#FFAA00")).Foreground(lipgloss.Color("#000000")),
	},
	{
		name:   "护眼米黄",
		text:   lipgloss.NewStyle().Background(lipgloss.Color("#FAF0D2")).Foreground(lipgloss.Color("#654321")),
		status: lipgloss.NewStyle().Foreground(lipgloss.Color("#8B7355")).Padding(0, 1),
		match:  lipgloss.NewStyle().Reverse(true),
		active: lipgloss.NewStyle().Background(lipgloss.Color("#654321")).Foreground(lipgloss.Color("#FAF0D2")),
	},
}

var controlsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Italic(true)

const controlsText = "←/→: 章节  ↑/↓: 滚动  c: 目录  /: 搜索  n/N: 下一个/上一个  t: 主题  q: 退出"

// chapterItem adapts a chapter to the bubbles list widget.
type chapterItem struct {
	index int
	title string
}

func (c chapterItem) Title() string {
	return fmt.Sprintf("%02d. %s", c.index+1, strings.TrimSpace(c.title))
}
func (c chapterItem) Description() string { return "" }
func (c chapterItem) FilterValue() string { return c.title }

type searchEventMsg search.Event

type searchClosedMsg struct{}

type model struct {
	rd       *reader.Reader
	store    *state.StateStore
	fileHash string

	vp       viewport.Model
	chapters list.Model
	input    textinput.Model

	worker        *search.Worker
	session       *search.Session
	events        <-chan search.Event
	searchGen     uint64
	pending       []search.Match
	keyword       string
	caseSensitive bool
	searching     bool

	theme        int
	showChapters bool
	searchMode   bool
	width        int
	height       int
	ready        bool
	note         string
}

func newModel(rd *reader.Reader, store *state.StateStore, hash string) model {
	items := make([]list.Item, 0, rd.ChapterCount())
	for i, c := range rd.Doc.Chapters {
		items = append(items, chapterItem{index: i, title: c.Title})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false

	chapters := list.New(items, delegate, 0, 0)
	chapters.Title = "章节目录"
	chapters.SetShowStatusBar(false)

	input := textinput.New()
	input.Placeholder = "搜索关键词"
	input.Prompt = "搜索: "
	input.CharLimit = 256

	return model{
		rd:       rd,
		store:    store,
		fileHash: hash,
		chapters: chapters,
		input:    input,
		worker:   &search.Worker{},
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		body := m.height - 2 // status bar + controls line
		if body < 1 {
			body = 1
		}
		if !m.ready {
			m.vp = viewport.New(m.width, body)
			m.ready = true
			m.refreshContent()
			m.scrollToPos(m.rd.Pos)
		} else {
			m.vp.Width = m.width
			m.vp.Height = body
			m.refreshContent()
		}
		m.chapters.SetSize(m.width, body)
		return m, nil

	case tea.KeyMsg:
		if m.searchMode {
			return m.updateSearchInput(msg)
		}
		if m.showChapters {
			return m.updateChapterList(msg)
		}
		return m.updateReading(msg)

	case searchEventMsg:
		return m.applySearchEvent(search.Event(msg))

	case searchClosedMsg:
		return m, nil
	}

	return m, nil
}

func (m model) updateSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchMode = false
		m.input.Blur()
		return m, nil

	case "ctrl+t":
		m.caseSensitive = !m.caseSensitive
		return m, nil

	case "enter":
		m.searchMode = false
		m.input.Blur()
		return m.startSearch(strings.TrimSpace(m.input.Value()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateChapterList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "c":
		m.showChapters = false
		return m, nil

	case "enter":
		m.showChapters = false
		m.jumpToChapter(m.chapters.Index())
		return m, nil
	}

	var cmd tea.Cmd
	m.chapters, cmd = m.chapters.Update(msg)
	return m, cmd
}

func (m model) updateReading(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.savePosition()
		return m, tea.Quit

	case "c":
		m.showChapters = true
		m.chapters.Select(m.rd.Current)
		return m, nil

	case "/":
		m.searchMode = true
		m.input.Focus()
		return m, textinput.Blink

	case "left", "h", "[":
		if m.rd.PrevChapter() {
			m.chapterChanged()
		}
		return m, nil

	case "right", "l", "]":
		if m.rd.NextChapter() {
			m.chapterChanged()
		}
		return m, nil

	case "n":
		if m.session != nil {
			if match, ok := m.session.Next(); ok {
				m.focusMatch(match)
			}
		}
		return m, nil

	case "N":
		if m.session != nil {
			if match, ok := m.session.Previous(); ok {
				m.focusMatch(match)
			}
		}
		return m, nil

	case "t":
		m.theme = (m.theme + 1) % len(themes)
		m.refreshContent()
		return m, nil

	case "esc":
		if m.session != nil {
			m.clearSearch()
			m.refreshContent()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	m.trackPos()
	return m, cmd
}

// startSearch kicks off an asynchronous scan of the current chapter.
func (m model) startSearch(keyword string) (tea.Model, tea.Cmd) {
	m.clearSearch()
	if keyword == "" {
		m.refreshContent()
		return m, nil
	}

	m.keyword = keyword
	m.searching = true
	m.note = "搜索中..."

	gen, ch := m.worker.Start(m.rd.ChapterText(), keyword, m.caseSensitive)
	m.searchGen = gen
	m.events = ch
	return m, waitSearchEvent(ch)
}

func (m model) applySearchEvent(ev search.Event) (tea.Model, tea.Cmd) {
	if ev.Gen != m.searchGen {
		// Result from a superseded search. Its channel is already closed or
		// cancelled; the active channel has its own reader pending, so
		// re-arming here would race it and reorder events.
		return m, nil
	}

	if ev.Match != nil {
		m.pending = append(m.pending, *ev.Match)
		return m, waitSearchEvent(m.events)
	}

	if ev.Done {
		m.searching = false
		m.session = search.NewSession(m.pending)
		m.pending = nil
		if ev.Total == 0 {
			m.note = "未找到结果"
			m.refreshContent()
			return m, nil
		}
		m.refreshContent()
		if match, ok := m.session.Current(); ok {
			m.focusMatch(match)
		}
		return m, nil
	}

	return m, waitSearchEvent(m.events)
}

func waitSearchEvent(ch <-chan search.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return searchClosedMsg{}
		}
		return searchEventMsg(ev)
	}
}

func (m *model) clearSearch() {
	m.worker.Stop()
	m.session = nil
	m.pending = nil
	m.keyword = ""
	m.searching = false
	m.note = ""
}

func (m *model) jumpToChapter(i int) {
	if m.rd.JumpToChapter(i) {
		m.chapterChanged()
	}
}

func (m *model) chapterChanged() {
	m.clearSearch()
	m.refreshContent()
	m.vp.GotoTop()
	m.rd.Pos = 0
}

// refreshContent re-renders the chapter text into the viewport, applying the
// current theme and any search highlights.
func (m *model) refreshContent() {
	if !m.ready {
		return
	}
	text := m.rd.ChapterText()
	if m.session != nil && m.session.Count() > 0 {
		th := themes[m.theme]
		text = highlightMatches(text, m.session, utf8.RuneCountInString(m.keyword), th.match, th.active)
	}
	m.vp.SetContent(themes[m.theme].text.Width(m.vp.Width).Render(text))
}

// focusMatch scrolls the viewport so the match's line is visible and records
// the new reading position.
func (m *model) focusMatch(match search.Match) {
	text := m.rd.ChapterText()
	total := strings.Count(text, "\n") + 1
	line := lineOfOffset(text, match.Offset)

	m.refreshContent()
	target := 0
	if total > 0 {
		target = line * m.vp.TotalLineCount() / total
	}
	m.vp.SetYOffset(target - m.vp.Height/2)
	m.rd.JumpToOffset(m.rd.Doc.Chapters[m.rd.Current].Start + match.Offset)
	m.note = fmt.Sprintf("%d/%d", m.session.Index()+1, m.session.Count())
}

// trackPos derives the reading position from the scroll state, for the page
// display and for saving on exit.
func (m *model) trackPos() {
	length := utf8.RuneCountInString(m.rd.ChapterText())
	m.rd.Pos = int(m.vp.ScrollPercent() * float64(length))
	if m.rd.Pos > length {
		m.rd.Pos = length
	}
}

func (m *model) savePosition() {
	if m.store == nil || m.fileHash == "" {
		return
	}
	m.store.SetPosition(m.fileHash, state.ReadingState{
		Chapter: m.rd.Current,
		Offset:  m.rd.Pos,
	})
}

// scrollToPos restores the viewport scroll for a saved in-chapter offset.
func (m *model) scrollToPos(pos int) {
	length := utf8.RuneCountInString(m.rd.ChapterText())
	if length == 0 || pos <= 0 {
		return
	}
	m.vp.SetYOffset(pos * m.vp.TotalLineCount() / length)
	m.rd.Pos = pos
}

func (m model) View() string {
	if !m.ready {
		return "加载中..."
	}

	th := themes[m.theme]

	chapterNo, chapterTotal := m.rd.Progress()
	page, pages := m.rd.Page()
	status := th.status.Render(fmt.Sprintf("%s | 编码: %s | 章节 %d/%d %s | 页码 %d/%d",
		displayName(m.rd.Doc.Path),
		m.rd.Doc.Encoding,
		chapterNo, chapterTotal,
		strings.TrimSpace(m.rd.ChapterTitle()),
		page, pages,
	))

	var body string
	switch {
	case m.showChapters:
		body = m.chapters.View()
	default:
		body = m.vp.View()
	}

	var bottom string
	switch {
	case m.searchMode:
		caseNote := ""
		if m.caseSensitive {
			caseNote = " [区分大小写]"
		}
		bottom = m.input.View() + caseNote
	case m.note != "":
		bottom = th.status.Render(m.note) + " " + controlsStyle.Render(controlsText)
	default:
		bottom = controlsStyle.Render(controlsText)
	}

	return status + "\n" + body + "\n" + bottom
}

func displayName(path string) string {
	if path == "" {
		return "stdin"
	}
	return path
}

// lineOfOffset returns the zero-based line index containing the given rune
// offset of text.
func lineOfOffset(text string, offset int) int {
	line := 0
	n := 0
	for _, r := range text {
		if n >= offset {
			break
		}
		if r == '\n' {
			line++
		}
		n++
	}
	return line
}

// highlightMatches wraps every match of the active session in the match
// style, and the match under the cursor in the active style. Offsets are
// rune offsets into text.
func highlightMatches(text string, session *search.Session, kwRunes int, match, active lipgloss.Style) string {
	if session.Count() == 0 || kwRunes == 0 {
		return text
	}

	rs := []rune(text)
	var sb strings.Builder
	prev := 0
	for i := 0; i < session.Count(); i++ {
		m, ok := session.At(i)
		if !ok || m.Offset < prev || m.Offset+kwRunes > len(rs) {
			continue
		}
		sb.WriteString(string(rs[prev:m.Offset]))
		style := match
		if i == session.Index() {
			style = active
		}
		sb.WriteString(style.Render(string(rs[m.Offset : m.Offset+kwRunes])))
		prev = m.Offset + kwRunes
	}
	sb.WriteString(string(rs[prev:]))
	return sb.String()
}

func main() {
	encodingName := flag.String("e", "", "Force a character encoding (utf-8, gbk, big5, ...) instead of detecting")
	freshStart := flag.Bool("fresh", false, "Ignore saved reading position")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Novl - Terminal Novel Reader\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  novl [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  novl book.txt             Read a novel, encoding auto-detected\n")
		fmt.Fprintf(os.Stderr, "  novl -e gbk book.txt      Force GBK decoding\n")
		fmt.Fprintf(os.Stderr, "  novl book.epub            Read an EPUB\n")
		fmt.Fprintf(os.Stderr, "  cat book.txt | novl       Read from stdin\n")
		fmt.Fprintf(os.Stderr, "\nFormats: %s\n", strings.Join(format.Supported(), "; "))
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  ←/→      Previous/next chapter\n")
		fmt.Fprintf(os.Stderr, "  ↑/↓      Scroll\n")
		fmt.Fprintf(os.Stderr, "  c        Chapter list\n")
		fmt.Fprintf(os.Stderr, "  /        Search in current chapter (ctrl+t toggles case)\n")
		fmt.Fprintf(os.Stderr, "  n/N      Next/previous match\n")
		fmt.Fprintf(os.Stderr, "  t        Cycle theme\n")
		fmt.Fprintf(os.Stderr, "  q        Quit\n")
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("novl %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	var (
		doc *document.Document
		err error
	)

	if flag.NArg() > 0 {
		filename := flag.Arg(0)
		if *encodingName != "" {
			doc, err = document.LoadWithEncoding(filename, *encodingName)
		} else {
			doc, err = document.Load(filename)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			fmt.Fprintln(os.Stderr, "Error: No input provided. Provide a file or pipe text to stdin.")
			fmt.Fprintln(os.Stderr, "Try: novl -h")
			os.Exit(1)
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
		doc = document.FromText(string(data))
	}

	rd := reader.New(doc)

	var store *state.StateStore
	var hash string
	if doc.Path != "" {
		if s, err := state.NewStateStore(); err == nil {
			store = s
			if h, err := state.ComputeHash(doc.Path); err == nil {
				hash = h
				if !*freshStart {
					pos := store.GetPosition(hash)
					if rd.JumpToChapter(pos.Chapter) {
						rd.Pos = pos.Offset
					}
				}
			}
		}
	}

	p := tea.NewProgram(newModel(rd, store, hash), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
