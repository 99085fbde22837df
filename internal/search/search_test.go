package search

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func offsets(matches []Match) []int {
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Offset)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFind(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		keyword       string
		caseSensitive bool
		want          []int
	}{
		{
			name:    "empty keyword",
			text:    "anything at all",
			keyword: "",
			want:    []int{},
		},
		{
			name:    "case insensitive",
			text:    "abcABCabc",
			keyword: "abc",
			want:    []int{0, 3, 6},
		},
		{
			name:          "case sensitive",
			text:          "abcABCabc",
			keyword:       "abc",
			caseSensitive: true,
			want:          []int{0, 6},
		},
		{
			name:    "non overlapping",
			text:    "aaaa",
			keyword: "aa",
			want:    []int{0, 2},
		},
		{
			name:    "no match",
			text:    "nothing here",
			keyword: "zzz",
			want:    []int{},
		},
		{
			name:    "empty text",
			text:    "",
			keyword: "abc",
			want:    []int{},
		},
		{
			name:    "cjk offsets are rune offsets",
			text:    "主角说：你好，世界。你好。",
			keyword: "你好",
			want:    []int{4, 10},
		},
		{
			name:    "literal not pattern",
			text:    "a.c abc a.c",
			keyword: "a.c",
			want:    []int{0, 8},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Find(tt.text, tt.keyword, tt.caseSensitive)
			if !equalInts(offsets(got), tt.want) {
				t.Errorf("Find offsets = %v, want %v", offsets(got), tt.want)
			}
		})
	}
}

func TestFindContext(t *testing.T) {
	text := strings.Repeat("前", 80) + "关键词" + strings.Repeat("后", 80)
	matches := Find(text, "关键词", false)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}

	m := matches[0]
	if m.Offset != 80 {
		t.Errorf("offset = %d, want 80", m.Offset)
	}
	if n := utf8.RuneCountInString(m.Before); n != 50 {
		t.Errorf("before context = %d runes, want 50", n)
	}
	if n := utf8.RuneCountInString(m.After); n != 50 {
		t.Errorf("after context = %d runes, want 50", n)
	}
	if m.Before != strings.Repeat("前", 50) || m.After != strings.Repeat("后", 50) {
		t.Error("context windows hold the wrong text")
	}
}

func TestFindContextClamped(t *testing.T) {
	matches := Find("short match tail", "match", false)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Before != "short " {
		t.Errorf("before = %q", matches[0].Before)
	}
	if matches[0].After != " tail" {
		t.Errorf("after = %q", matches[0].After)
	}
}

func TestSessionNavigation(t *testing.T) {
	matches := Find("x x x", "x", false)
	s := NewSession(matches)
	if s.Count() != 3 || s.Index() != 0 {
		t.Fatalf("Count=%d Index=%d, want 3 and 0", s.Count(), s.Index())
	}

	if m, ok := s.Next(); !ok || m.Offset != 2 {
		t.Errorf("Next -> %v %v, want offset 2", m, ok)
	}
	s.Next()
	// Clamped at the last index.
	if m, _ := s.Next(); m.Offset != 4 || s.Index() != 2 {
		t.Errorf("Next past end -> offset %d index %d", m.Offset, s.Index())
	}

	s.Previous()
	s.Previous()
	// Clamped at zero.
	if m, _ := s.Previous(); m.Offset != 0 || s.Index() != 0 {
		t.Errorf("Previous past start -> offset %d index %d", m.Offset, s.Index())
	}
}

func TestSessionEmpty(t *testing.T) {
	s := NewSession(nil)
	if _, ok := s.Current(); ok {
		t.Error("Current on empty session reported a match")
	}
	if _, ok := s.Next(); ok {
		t.Error("Next on empty session reported a match")
	}
	if _, ok := s.Previous(); ok {
		t.Error("Previous on empty session reported a match")
	}
	if s.Index() != 0 {
		t.Errorf("Index = %d, want 0", s.Index())
	}
}

func TestWorkerEventStream(t *testing.T) {
	var w Worker
	gen, ch := w.Start("abcABCabc", "abc", false)
	if gen != 1 {
		t.Errorf("first generation = %d, want 1", gen)
	}

	var got []int
	var total = -1
	for ev := range ch {
		if ev.Gen != gen {
			t.Errorf("event carries generation %d, want %d", ev.Gen, gen)
		}
		if ev.Match != nil {
			got = append(got, ev.Match.Offset)
		}
		if ev.Done {
			total = ev.Total
		}
	}

	if !equalInts(got, []int{0, 3, 6}) {
		t.Errorf("match offsets = %v, want [0 3 6]", got)
	}
	if total != 3 {
		t.Errorf("completion total = %d, want 3", total)
	}
}

func TestWorkerSupersede(t *testing.T) {
	var w Worker
	gen1, _ := w.Start(strings.Repeat("a", 10000), "a", false)
	gen2, ch2 := w.Start("b a b", "a", false)

	if gen2 <= gen1 {
		t.Fatalf("generations not increasing: %d then %d", gen1, gen2)
	}
	if w.Gen() != gen2 {
		t.Errorf("Gen() = %d, want %d", w.Gen(), gen2)
	}

	// The second search completes normally even though the first may still
	// be parked; all its events carry the new generation.
	count := 0
	for ev := range ch2 {
		if ev.Gen != gen2 {
			t.Errorf("stale generation %d on new channel", ev.Gen)
		}
		if ev.Match != nil {
			count++
		}
		if ev.Done && ev.Total != 1 {
			t.Errorf("total = %d, want 1", ev.Total)
		}
	}
	if count != 1 {
		t.Errorf("got %d matches, want 1", count)
	}
}

func TestWorkerEmptyKeyword(t *testing.T) {
	var w Worker
	_, ch := w.Start("some text", "", false)
	for ev := range ch {
		if ev.Match != nil {
			t.Error("empty keyword produced a match")
		}
		if ev.Done && ev.Total != 0 {
			t.Errorf("total = %d, want 0", ev.Total)
		}
	}
}
