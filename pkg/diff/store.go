package diff

import "sync"

// Store tracks the last-submitted content per (agent, file path) pair so
// successive diffs for the same file are computed against the previous
// submission rather than an empty baseline.
//
// Baselines are never shared across agents. The zero baseline (first diff
// for a path) is the empty string.
type Store struct {
	mu sync.Mutex

	// stateByAgent maps agent id -> file path -> last content.
	stateByAgent map[string]map[string]string
}

// NewStore creates an empty baseline store.
func NewStore() *Store {
	return &Store{
		stateByAgent: make(map[string]map[string]string),
	}
}

// ComputeDiff renders the unified diff between the agent's previous
// content for filePath (empty string if none) and newContent, then records
// newContent as the new baseline for that pair.
func (s *Store) ComputeDiff(agentID, filePath, newContent string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, ok := s.stateByAgent[agentID]
	if !ok {
		files = make(map[string]string)
		s.stateByAgent[agentID] = files
	}

	oldContent := files[filePath]
	out := Unified(filePath, oldContent, newContent)
	files[filePath] = newContent

	return out
}

// Reset clears all baselines for all agents. Used for test isolation.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateByAgent = make(map[string]map[string]string)
}
