package orchestration

import (
	"context"

	"github.com/koscakluka/ema-link/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// sessionHandler receives the agent session's output on its delivery
// goroutine.
type sessionHandler struct {
	o *Orchestrator
}

func (h sessionHandler) OnMessage(message events.Event) {
	o := h.o
	ctx := o.context()

	var err error
	switch m := message.(type) {
	case events.AssistantSpeechStarted:
		err = o.playback.startSpeech(ctx, m.StreamID, m.Audio)
	case events.AssistantSpeechFrame:
		err = o.playback.writeSpeech(ctx, m.Audio)
	case events.AssistantSpeechFinal:
		err = o.playback.endSpeech(ctx)
	}
	if err != nil {
		playbackErrorCounter.Add(context.Background(), 1)
		logger.Warn("failed to play reply audio", "kind", message.Kind(), "error", err)
	}

	o.emit(message)
}

func (h sessionHandler) OnEvent(event events.SessionEvent) {
	o := h.o

	switch event.Type {
	case events.EventEnd:
		o.setChatting(false)
	case events.EventChatBreak, events.EventServerVAD:
		interruptionCounter.Add(context.Background(), 1)
		logger.Info("reply interrupted", "type", event.Type, "event_id", event.EventID)
		trace.SpanFromContext(o.context()).AddEvent("reply interrupted", trace.WithAttributes(
			attribute.String("event.type", event.Type.String()),
			attribute.String("event.id", event.EventID)))
		if err := o.playback.interrupt(); err != nil {
			logger.Warn("failed to stop playback", "error", err)
		}
		o.setChatting(false)
	}

	o.emit(event)
}
