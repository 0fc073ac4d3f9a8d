package agent

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-link/core/events"
	"github.com/koscakluka/ema-link/core/transport"
)

// streamTracker remembers the event id of the reply stream in progress.
// Only the transport's delivery goroutine touches it.
type streamTracker struct {
	id   string
	open bool
}

func (s *streamTracker) start(id string) {
	s.id = id
	s.open = true
}

func (s *streamTracker) matches(id string) bool {
	return s.open && s.id == id
}

func (s *streamTracker) clear() {
	s.id = ""
	s.open = false
}

// HandleEvent is the lifecycle callback registered with the transport.
//
// Interruptions only count when they reference the stream in progress;
// anything else is stale and dropped.
func (s *Session) HandleEvent(event transport.Event) error {
	if s.handler == nil {
		return ErrNoHandler
	}

	switch event.Type {
	case events.EventStart:
		s.stream.start(event.EventID)
		s.text.reset()
		logger.Debug("reply stream started", "event_id", event.EventID)

	case events.EventPayloadsEnd, events.EventEnd:

	case events.EventChatBreak, events.EventServerVAD:
		if !s.stream.matches(event.EventID) {
			ignoredEventCounter.Add(context.Background(), 1)
			logger.Debug("ignoring stale interruption", "type", event.Type, "event_id", event.EventID, "stream_id", s.stream.id)
			return nil
		}
		s.stream.clear()
		s.text.abort()
		logger.Info("reply stream interrupted", "type", event.Type, "event_id", event.EventID)

	default:
		logger.Warn("dropping unknown session event", "type", event.Type, "event_id", event.EventID)
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event.Type)
	}

	s.handler.OnEvent(events.NewSessionEvent(event.Type, event.EventID))
	return nil
}
