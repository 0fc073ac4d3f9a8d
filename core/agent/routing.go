package agent

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-link/core/events"
	"github.com/koscakluka/ema-link/core/transport"
)

// HandleAudio routes a packet from the downlink audio channel.
//
// The opening chunk is always reported, even when empty, so a receiver can
// prepare playback; later empty chunks carry nothing and are skipped. The
// closing chunk is followed by an end-of-stream message.
func (s *Session) HandleAudio(attr *transport.PacketAttr, head *transport.PacketHead, payload []byte) error {
	if attr == nil || head == nil || payload == nil {
		malformedPacketCounter.Add(context.Background(), 1)
		logger.Error("malformed audio packet", "attr", attr != nil, "head", head != nil, "payload", payload != nil)
		return fmt.Errorf("%w: missing attr, head or payload", ErrMalformedPacket)
	}
	if s.handler == nil {
		return ErrNoHandler
	}

	switch head.Flag {
	case transport.StreamStart:
		s.handler.OnMessage(events.NewAssistantSpeechStarted(s.stream.id, payload))

	case transport.StreamIng, transport.StreamEnd:
		if len(payload) > 0 {
			s.handler.OnMessage(events.NewAssistantSpeechFrame(payload))
		}
		if head.Flag == transport.StreamEnd {
			s.handler.OnMessage(events.NewAssistantSpeechFinal())
		}

	case transport.StreamOneShot:
		s.handler.OnMessage(events.NewAssistantSpeechStarted(s.stream.id, payload))
		s.handler.OnMessage(events.NewAssistantSpeechFinal())

	default:
		logger.Warn("dropping audio packet with unknown stream flag", "flag", head.Flag)
	}

	return nil
}

// HandleText routes a packet from the downlink text channel.
func (s *Session) HandleText(attr *transport.PacketAttr, head *transport.PacketHead, payload []byte) error {
	if attr == nil || head == nil || payload == nil {
		malformedPacketCounter.Add(context.Background(), 1)
		logger.Error("malformed text packet", "attr", attr != nil, "head", head != nil, "payload", payload != nil)
		return fmt.Errorf("%w: missing attr, head or payload", ErrMalformedPacket)
	}
	if s.handler == nil {
		return ErrNoHandler
	}

	s.text.parse(payload, s.stream.id, s.handler.OnMessage)
	return nil
}
