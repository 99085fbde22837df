package search

// Session holds the result set of the most recent search and a cursor over
// it. The cursor starts at the first match and clamps at both ends; every
// navigation on an empty result set is a no-op.
type Session struct {
	matches []Match
	index   int
}

// NewSession wraps a completed result set.
func NewSession(matches []Match) *Session {
	return &Session{matches: matches}
}

// Count returns the number of matches.
func (s *Session) Count() int { return len(s.matches) }

// Index returns the cursor position, 0-based. Meaningless when Count is 0.
func (s *Session) Index() int { return s.index }

// At returns the i-th match of the result set.
func (s *Session) At(i int) (Match, bool) {
	if i < 0 || i >= len(s.matches) {
		return Match{}, false
	}
	return s.matches[i], true
}

// Current returns the match under the cursor, if any.
func (s *Session) Current() (Match, bool) {
	if len(s.matches) == 0 {
		return Match{}, false
	}
	return s.matches[s.index], true
}

// Next advances the cursor and returns the match under it.
func (s *Session) Next() (Match, bool) {
	if len(s.matches) == 0 {
		return Match{}, false
	}
	if s.index < len(s.matches)-1 {
		s.index++
	}
	return s.matches[s.index], true
}

// Previous moves the cursor back and returns the match under it.
func (s *Session) Previous() (Match, bool) {
	if len(s.matches) == 0 {
		return Match{}, false
	}
	if s.index > 0 {
		s.index--
	}
	return s.matches[s.index], true
}
