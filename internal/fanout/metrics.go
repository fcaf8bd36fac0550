package fanout

import (
	"log/slog"
	"sync"
	"time"

	"chat-backend/internal/models"
)

const (
	defaultSlowDispatch     = 500 * time.Millisecond
	defaultFailureRateAlert = 5.0 // percent of attempted pushes
)

// MetricsSnapshot is a point-in-time copy of the dispatch counters
type MetricsSnapshot struct {
	Dispatches     int64         `json:"dispatches"`
	Delivered      int64         `json:"delivered"`
	Skipped        int64         `json:"skipped"`
	Failed         int64         `json:"failed"`
	TotalTime      time.Duration `json:"totalTime"`
	PeakTime       time.Duration `json:"peakTime"`
	PeakRecipients int           `json:"peakRecipients"`
}

// Metrics aggregates dispatch results and warns on slow or failing fan-outs
type Metrics struct {
	mu   sync.Mutex
	snap MetricsSnapshot

	slowThreshold    time.Duration
	failureRateAlert float64
}

func NewMetrics() *Metrics {
	return &Metrics{
		slowThreshold:    defaultSlowDispatch,
		failureRateAlert: defaultFailureRateAlert,
	}
}

// Record adds one dispatch
func (m *Metrics) Record(event models.EventType, res Result, elapsed time.Duration) {
	m.mu.Lock()
	m.snap.Dispatches++
	m.snap.Delivered += int64(res.Delivered)
	m.snap.Skipped += int64(res.Skipped)
	m.snap.Failed += int64(res.Failed)
	m.snap.TotalTime += elapsed
	if elapsed > m.snap.PeakTime {
		m.snap.PeakTime = elapsed
	}
	if n := res.Delivered + res.Failed; n > m.snap.PeakRecipients {
		m.snap.PeakRecipients = n
	}
	m.mu.Unlock()

	if elapsed > m.slowThreshold {
		slog.Warn("Slow dispatch", "event", event, "duration", elapsed, "recipients", res.Delivered+res.Failed)
	}
	if attempted := res.Delivered + res.Failed; attempted > 0 {
		rate := float64(res.Failed) / float64(attempted) * 100
		if rate > m.failureRateAlert {
			slog.Warn("High push failure rate", "event", event, "failed", res.Failed, "attempted", attempted)
		}
	}
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}
