package autoconnect

import "time"

// Metrics tracks connection stability for one managed address.
type Metrics struct {
	TotalAttempts      int
	Successful         int
	Failed             int
	LastConnectedAt    *time.Time
	LastFailureAt      *time.Time
	AvgConnectionTime  time.Duration
	Uptime             time.Duration
	StabilityScore     float64
	ConsecutiveFailures int
}

// recordSuccess folds a successful attempt of the given duration into the
// running average connection time and resets ConsecutiveFailures.
func (m *Metrics) recordSuccess(now time.Time, duration time.Duration) {
	m.TotalAttempts++
	m.Successful++
	m.LastConnectedAt = &now
	m.ConsecutiveFailures = 0
	if duration > 0 {
		totalTime := m.AvgConnectionTime * time.Duration(m.Successful-1)
		m.AvgConnectionTime = (totalTime + duration) / time.Duration(m.Successful)
	}
	m.recomputeStability()
}

func (m *Metrics) recordFailure(now time.Time) {
	m.TotalAttempts++
	m.Failed++
	m.LastFailureAt = &now
	m.ConsecutiveFailures++
	m.recomputeStability()
}

func (m *Metrics) recomputeStability() {
	total := m.TotalAttempts
	if total < 1 {
		total = 1
	}
	m.StabilityScore = float64(m.Successful) / float64(total)
}
