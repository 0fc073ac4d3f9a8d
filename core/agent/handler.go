package agent

import "github.com/koscakluka/ema-link/core/events"

// Handler receives everything the agent sends, in order, on the transport's
// delivery goroutine. Audio payloads inside messages are borrowed and must be
// copied if kept past the call.
type Handler interface {
	OnMessage(message events.Event)
	OnEvent(event events.SessionEvent)
}

// HandlerFuncs adapts plain functions to Handler. Nil functions drop their
// input.
type HandlerFuncs struct {
	Message func(message events.Event)
	Event   func(event events.SessionEvent)
}

func (h HandlerFuncs) OnMessage(message events.Event) {
	if h.Message != nil {
		h.Message(message)
	}
}

func (h HandlerFuncs) OnEvent(event events.SessionEvent) {
	if h.Event != nil {
		h.Event(event)
	}
}
