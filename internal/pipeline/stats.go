package pipeline

import "sync"

// Stats accumulates per-run processing counters. It is owned by the
// Orchestrator and reset by constructing a new one; increments are serialized
// so a future parallel run loop would not need changes here.
type Stats struct {
	mu             sync.Mutex
	totalProcessed int
	preFilteredOut int
	aiAnalyzed     int
	relevantFound  int
}

// StatsSnapshot is the read-only view used for reporting. Field names are part
// of the report document contract.
type StatsSnapshot struct {
	TotalProcessed int `json:"total_processed"`
	PreFilteredOut int `json:"pre_filtered_out"`
	AIAnalyzed     int `json:"ai_analyzed"`
	RelevantFound  int `json:"relevant_found"`
}

func (s *Stats) addTotalProcessed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalProcessed++
}

func (s *Stats) addPreFilteredOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preFilteredOut++
}

func (s *Stats) addAIAnalyzed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aiAnalyzed++
}

func (s *Stats) addRelevantFound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relevantFound++
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		TotalProcessed: s.totalProcessed,
		PreFilteredOut: s.preFilteredOut,
		AIAnalyzed:     s.aiAnalyzed,
		RelevantFound:  s.relevantFound,
	}
}
