package events

import "fmt"

// EventType is a session lifecycle signal sent by the agent.
type EventType int

const (
	EventStart EventType = iota
	EventPayloadsEnd
	EventEnd
	EventChatBreak
	EventServerVAD
)

var eventTypeNames = map[EventType]string{
	EventStart:       "start",
	EventPayloadsEnd: "payloads_end",
	EventEnd:         "end",
	EventChatBreak:   "chat_break",
	EventServerVAD:   "server_vad",
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// IsInterruption reports whether the event cancels the stream in progress.
func (t EventType) IsInterruption() bool {
	return t == EventChatBreak || t == EventServerVAD
}

// ParseEventType maps a wire name back to its EventType.
func ParseEventType(name string) (EventType, bool) {
	for t, n := range eventTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

const (
	KindSessionStarted       Kind = "session.started"
	KindSessionPayloadsEnded Kind = "session.payloads_ended"
	KindSessionEnded         Kind = "session.ended"
	KindSessionChatBreak     Kind = "session.chat_break"
	KindSessionServerVAD     Kind = "session.server_vad"
)

var sessionEventKinds = map[EventType]Kind{
	EventStart:       KindSessionStarted,
	EventPayloadsEnd: KindSessionPayloadsEnded,
	EventEnd:         KindSessionEnded,
	EventChatBreak:   KindSessionChatBreak,
	EventServerVAD:   KindSessionServerVAD,
}

// SessionEvent is a lifecycle event forwarded by the dispatcher.
type SessionEvent struct {
	Base
	Type    EventType
	EventID string
}

// NewSessionEvent creates a session lifecycle event.
func NewSessionEvent(eventType EventType, eventID string) SessionEvent {
	kind, ok := sessionEventKinds[eventType]
	if !ok {
		kind = Kind("session." + eventType.String())
	}
	return SessionEvent{Base: NewBase(kind), Type: eventType, EventID: eventID}
}
