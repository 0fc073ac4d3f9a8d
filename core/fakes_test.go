package orchestration

import (
	"context"
	"sync"

	"github.com/koscakluka/ema-link/core/player"
	"github.com/koscakluka/ema-link/core/transport"
)

type playerCall struct {
	op   string
	id   string
	data []byte
	eof  bool
}

type fakePlayer struct {
	mu      sync.Mutex
	calls   []playerCall
	playing bool
	running chan struct{}
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{running: make(chan struct{}, 1)}
}

func (p *fakePlayer) Start(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, playerCall{op: "start", id: id})
	p.playing = true
	return nil
}

func (p *fakePlayer) Write(_ context.Context, id string, data []byte, eof bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, playerCall{op: "write", id: id, data: append([]byte(nil), data...), eof: eof})
	return nil
}

func (p *fakePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, playerCall{op: "stop"})
	p.playing = false
	return nil
}

func (p *fakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) Run(ctx context.Context) error {
	p.running <- struct{}{}
	<-ctx.Done()
	return nil
}

func (p *fakePlayer) snapshot() []playerCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]playerCall(nil), p.calls...)
}

type fakeAlertPlayer struct {
	*fakePlayer
	alerts []player.AlertType
}

func (p *fakeAlertPlayer) PlayAlert(_ context.Context, alert player.AlertType) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, alert)
	return nil
}

type fakeTransport struct {
	mu      sync.Mutex
	events  []string
	packets []transport.StreamFlag
	closed  int
}

func (t *fakeTransport) OpenSession(context.Context, transport.SessionConfig) (string, error) {
	return "session-1", nil
}

func (t *fakeTransport) CloseSession(context.Context, string, transport.CloseReason) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed++
	return nil
}

func (t *fakeTransport) StartEvent(context.Context, string, string, []transport.Attribute) error {
	return t.record("start")
}

func (t *fakeTransport) EndEventPayloads(context.Context, string, string, []transport.Attribute) error {
	return t.record("payloads_end")
}

func (t *fakeTransport) EndEvent(context.Context, string, string, []transport.Attribute) error {
	return t.record("end")
}

func (t *fakeTransport) record(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, name)
	return nil
}

func (t *fakeTransport) SendPacket(_ context.Context, _ transport.ChannelID, _ *transport.PacketAttr, head *transport.PacketHead, _ []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.packets = append(t.packets, head.Flag)
	return nil
}

type fakeAudioInput struct {
	mu      sync.Mutex
	onAudio func([]byte)
	starts  int
	stops   int
}

func (a *fakeAudioInput) StartCapture(_ context.Context, onAudio func([]byte)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onAudio = onAudio
	a.starts++
	return nil
}

func (a *fakeAudioInput) StopCapture() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stops++
	return nil
}

func (a *fakeAudioInput) push(pcm []byte) {
	a.mu.Lock()
	onAudio := a.onAudio
	a.mu.Unlock()
	onAudio(pcm)
}
