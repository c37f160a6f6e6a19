package metrics

import (
	"sync"
	"time"
)

// Metrics is run-health state served by the optional monitoring endpoint.
type Metrics struct {
	mu sync.RWMutex

	// Counters from the last completed run
	EntriesProcessed int64
	PreFilteredOut   int64
	AIAnalyzed       int64
	RelevantFound    int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) RecordRun(processed, preFiltered, analyzed, relevant int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesProcessed = int64(processed)
	m.PreFilteredOut = int64(preFiltered)
	m.AIAnalyzed = int64(analyzed)
	m.RelevantFound = int64(relevant)
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"entries_processed": m.EntriesProcessed,
		"pre_filtered_out":  m.PreFilteredOut,
		"ai_analyzed":       m.AIAnalyzed,
		"relevant_found":    m.RelevantFound,
		"last_run_time":     m.LastRunTime.Format(time.RFC3339),
		"last_error_time":   m.LastErrorTime.Format(time.RFC3339),
		"last_error":        m.LastError,
		"is_healthy":        m.IsHealthy,
	}
}
