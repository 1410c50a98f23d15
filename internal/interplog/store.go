// Package interplog holds AI interaction records across one run, bounded
// so a long-running program cannot grow it without limit (spec §3
// "aiInteractions ... recorded when logging is enabled; otherwise
// discarded after resume").
package interplog

import (
	"sync"

	"github.com/pocketomega/vibe-runtime/internal/runtime"
)

// defaultCap bounds the ring when the caller does not specify one; beyond
// it the oldest interaction is dropped, matching the teacher's
// maxTurns-trimming discipline in internal/session/store.go.
const defaultCap = 500

// Store is a thread-safe, run-scoped ring of AIInteraction records. A
// driver that opts into RecordInteractions keeps one Store per run and
// flushes it into the snapshot document on completion or error.
type Store struct {
	mu       sync.Mutex
	cap      int
	records  []runtime.AIInteraction
}

// New builds a Store bounded to capacity. capacity <= 0 selects
// defaultCap.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = defaultCap
	}
	return &Store{cap: capacity}
}

// Append records one interaction, trimming the oldest entry if the store
// is at capacity (spec §7 "accumulated interaction log").
func (s *Store) Append(rec runtime.AIInteraction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	if len(s.records) > s.cap {
		s.records = s.records[len(s.records)-s.cap:]
	}
}

// All returns a copy of every retained interaction, oldest first.
func (s *Store) All() []runtime.AIInteraction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]runtime.AIInteraction, len(s.records))
	copy(out, s.records)
	return out
}

// Count reports how many interactions are currently retained.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Clear discards every retained interaction, e.g. after a successful
// flush into a snapshot document.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}
