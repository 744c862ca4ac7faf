package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/tenderops/internal/domain"
)

var eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tender_events_total",
	Help: "Domain events emitted, labeled by kind",
}, []string{"kind"})

// Sink receives one event per successful mutating operation.
type Sink interface {
	Emit(kind, entityID, status string)
}

// LogSink logs every event, counts it, and keeps the most recent ones in a
// ring buffer for the audit feed.
type LogSink struct {
	mu   sync.Mutex
	ring []domain.Event
	cap  int
}

func NewLogSink(capacity int) *LogSink {
	if capacity <= 0 {
		capacity = 256
	}
	return &LogSink{cap: capacity}
}

func (s *LogSink) Emit(kind, entityID, status string) {
	e := domain.Event{
		ID:       uuid.NewString(),
		Kind:     kind,
		EntityID: entityID,
		Status:   status,
		At:       time.Now().UTC(),
	}

	eventsTotal.WithLabelValues(kind).Inc()
	slog.Info("event", "kind", kind, "entity_id", entityID, "status", status, "event_id", e.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring = append(s.ring, e)
	if len(s.ring) > s.cap {
		s.ring = s.ring[len(s.ring)-s.cap:]
	}
}

// Recent returns up to limit of the most recently emitted events, newest
// first.
func (s *LogSink) Recent(limit int) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.ring) {
		limit = len(s.ring)
	}
	out := make([]domain.Event, 0, limit)
	for i := len(s.ring) - 1; i >= len(s.ring)-limit; i-- {
		out = append(out, s.ring[i])
	}
	return out
}
