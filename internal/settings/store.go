package settings

import "sync/atomic"

// Store holds the live settings for concurrent readers. The webhook server
// reads per request while the file watcher swaps in reloaded settings.
type Store struct {
	p atomic.Pointer[Settings]
}

// NewStore creates a store seeded with s.
func NewStore(s *Settings) *Store {
	st := &Store{}
	st.p.Store(s)
	return st
}

// Current returns the live settings. Callers must not mutate the result.
func (st *Store) Current() *Settings {
	return st.p.Load()
}

// Replace swaps in new settings.
func (st *Store) Replace(s *Settings) {
	st.p.Store(s)
}
