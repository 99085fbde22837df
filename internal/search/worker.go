package search

import (
	"sync"
	"sync/atomic"
)

// Event is one item on a worker's result channel: a match, or the final
// completion event carrying the total count. Gen identifies which search run
// produced it; consumers drop events whose generation is no longer current.
type Event struct {
	Gen   uint64
	Match *Match
	Done  bool
	Total int
}

// Worker runs searches off the rendering path, one at a time per document
// view. Starting a new search supersedes the previous one: the old run is
// cancelled, and any of its events already in flight carry a stale
// generation tag.
type Worker struct {
	gen atomic.Uint64

	mu     sync.Mutex
	cancel chan struct{}
}

// Gen returns the generation of the most recently started search.
func (w *Worker) Gen() uint64 { return w.gen.Load() }

// Start launches a search over its own copies of text and keyword and
// returns the generation tag plus the event channel. Match events arrive in
// offset order, followed by one completion event; the channel is closed
// afterwards. A run parked on a slow consumer is unblocked and discarded as
// soon as a newer search starts.
func (w *Worker) Start(text, keyword string, caseSensitive bool) (uint64, <-chan Event) {
	gen := w.gen.Add(1)

	w.mu.Lock()
	if w.cancel != nil {
		close(w.cancel)
	}
	cancel := make(chan struct{})
	w.cancel = cancel
	w.mu.Unlock()

	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		matches := Find(text, keyword, caseSensitive)
		for i := range matches {
			select {
			case ch <- Event{Gen: gen, Match: &matches[i]}:
			case <-cancel:
				return
			}
		}
		select {
		case ch <- Event{Gen: gen, Done: true, Total: len(matches)}:
		case <-cancel:
		}
	}()

	return gen, ch
}

// Stop cancels the in-flight search, if any, without starting a new one.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.cancel != nil {
		close(w.cancel)
		w.cancel = nil
	}
	w.mu.Unlock()
}
