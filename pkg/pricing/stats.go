package pricing

import "sync"

// Stats tracks pricing lookups per source
type Stats struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewStats creates an empty Stats
func NewStats() *Stats {
	return &Stats{counts: make(map[string]int)}
}

// record increments the counter for a lookup outcome ("table", "api", "cache", "failure")
func (s *Stats) record(outcome string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[outcome]++
}

// Snapshot returns a copy of the current counters
func (s *Stats) Snapshot() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	statsCopy := make(map[string]int, len(s.counts))
	for key, value := range s.counts {
		statsCopy[key] = value
	}
	return statsCopy
}
