package agent

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/koscakluka/ema-link/core/events"
	"github.com/koscakluka/ema-link/core/transport"
)

type sentPacket struct {
	channel transport.ChannelID
	attr    transport.PacketAttr
	head    transport.PacketHead
	payload []byte
}

type sentEvent struct {
	name    string
	eventID string
	attrs   []transport.Attribute
}

type fakeTransport struct {
	mu       sync.Mutex
	config   transport.SessionConfig
	opened   int
	closed   []string
	packets  []sentPacket
	events   []sentEvent
	openErr  error
	sendErr  error
	eventErr error
}

func (t *fakeTransport) OpenSession(_ context.Context, config transport.SessionConfig) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.openErr != nil {
		return "", t.openErr
	}
	t.config = config
	t.opened++
	return "session-1", nil
}

func (t *fakeTransport) CloseSession(_ context.Context, sessionID string, _ transport.CloseReason) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = append(t.closed, sessionID)
	return nil
}

func (t *fakeTransport) StartEvent(_ context.Context, _ string, eventID string, attrs []transport.Attribute) error {
	return t.recordEvent("start", eventID, attrs)
}

func (t *fakeTransport) EndEventPayloads(_ context.Context, _ string, eventID string, attrs []transport.Attribute) error {
	return t.recordEvent("payloads_end", eventID, attrs)
}

func (t *fakeTransport) EndEvent(_ context.Context, _ string, eventID string, attrs []transport.Attribute) error {
	return t.recordEvent("end", eventID, attrs)
}

func (t *fakeTransport) recordEvent(name, eventID string, attrs []transport.Attribute) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, sentEvent{name: name, eventID: eventID, attrs: attrs})
	return t.eventErr
}

func (t *fakeTransport) SendPacket(_ context.Context, channel transport.ChannelID, attr *transport.PacketAttr, head *transport.PacketHead, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	t.packets = append(t.packets, sentPacket{
		channel: channel,
		attr:    *attr,
		head:    *head,
		payload: append([]byte(nil), payload...),
	})
	return nil
}

var errFakeSend = errors.New("send failed")

type recorder struct {
	mu        sync.Mutex
	messages  []events.Event
	lifecycle []events.SessionEvent
}

func (r *recorder) OnMessage(message events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recorder) OnEvent(event events.SessionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lifecycle = append(r.lifecycle, event)
}

func (r *recorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]events.Kind, 0, len(r.messages))
	for _, m := range r.messages {
		kinds = append(kinds, m.Kind())
	}
	return kinds
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
	r.lifecycle = nil
}

func newTestSession(t *fakeTransport, r *recorder) *Session {
	ids := 0
	return New(t, r,
		WithEventIDGenerator(func() string {
			ids++
			return "event-" + strconv.Itoa(ids)
		}),
		WithClock(func() time.Time { return time.UnixMilli(1000) }),
	)
}

func audioPacket(flag transport.StreamFlag) (*transport.PacketAttr, *transport.PacketHead) {
	return &transport.PacketAttr{Type: transport.PacketAudio}, &transport.PacketHead{Flag: flag}
}
