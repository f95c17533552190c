package eventlog

import (
	"log"

	"backupcam/internal/pipeline"
)

// Sink adapts a Store to pipeline.AlertSink. Events are handed to a
// worker goroutine through a buffered channel so the tick loop never
// waits on a database write; when the buffer is full the event is dropped
// and counted against the log, not the tick.
type Sink struct {
	store  *Store
	logger *log.Logger
	events chan Event
	done   chan struct{}
}

// NewSink starts the writer goroutine.
func NewSink(store *Store, logger *log.Logger) *Sink {
	if logger == nil {
		logger = log.Default()
	}
	s := &Sink{
		store:  store,
		logger: logger,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// OnAlert implements pipeline.AlertSink.
func (s *Sink) OnAlert(e pipeline.AlertEvent) {
	ev := Event{
		ProximityCm: e.Proximity,
		ThresholdCm: e.ThresholdCm,
		Mode:        e.Mode.String(),
	}
	select {
	case s.events <- ev:
	default:
		s.logger.Printf("[EventLog] buffer full, dropping alert event")
	}
}

func (s *Sink) run() {
	for ev := range s.events {
		if err := s.store.Record(ev); err != nil {
			s.logger.Printf("[EventLog] failed to record event: %v", err)
		}
	}
	close(s.done)
}

// Close flushes buffered events and stops the writer.
func (s *Sink) Close() {
	close(s.events)
	<-s.done
}

var _ pipeline.AlertSink = (*Sink)(nil)
