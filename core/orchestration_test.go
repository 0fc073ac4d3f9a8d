package orchestration

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/koscakluka/ema-link/core/events"
	"github.com/koscakluka/ema-link/core/player"
	"github.com/koscakluka/ema-link/core/transport"
)

func newTestOrchestrator(t *testing.T, opts ...OrchestratorOption) (*Orchestrator, *fakePlayer, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	fp := newFakePlayer()
	o, err := NewOrchestrator(ft, fp, opts...)
	if err != nil {
		t.Fatalf("expected orchestrator, got %v", err)
	}
	if err := o.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	return o, fp, ft
}

func deliverAudio(o *Orchestrator, flag transport.StreamFlag, payload []byte) {
	_ = o.session.HandleAudio(&transport.PacketAttr{Type: transport.PacketAudio}, &transport.PacketHead{Flag: flag}, payload)
}

func deliverEvent(o *Orchestrator, eventType events.EventType, eventID string) {
	_ = o.session.HandleEvent(transport.Event{Type: eventType, SessionID: "session-1", EventID: eventID})
}

func TestNewOrchestratorValidation(t *testing.T) {
	if _, err := NewOrchestrator(&fakeTransport{}, newFakePlayer(), WithWorkMode(ASRWakeupFreeTalk)); !errors.Is(err, ErrUnsupportedWorkMode) {
		t.Fatalf("expected ErrUnsupportedWorkMode, got %v", err)
	}
	if _, err := NewOrchestrator(nil, newFakePlayer()); !errors.Is(err, ErrNoTransport) {
		t.Fatalf("expected ErrNoTransport, got %v", err)
	}
	var typedNil *player.Player
	if _, err := NewOrchestrator(&fakeTransport{}, typedNil); !errors.Is(err, ErrNoPlayer) {
		t.Fatalf("expected ErrNoPlayer for a typed nil player, got %v", err)
	}
}

func TestReplyAudioReachesPlayer(t *testing.T) {
	o, fp, _ := newTestOrchestrator(t)

	deliverEvent(o, events.EventStart, "reply-1")
	deliverAudio(o, transport.StreamStart, []byte{1})
	deliverAudio(o, transport.StreamIng, []byte{2})
	deliverAudio(o, transport.StreamEnd, []byte{})

	expected := []playerCall{
		{op: "start", id: "reply-1"},
		{op: "write", id: "reply-1", data: []byte{1}},
		{op: "write", id: "reply-1", data: []byte{2}},
		{op: "write", id: "reply-1", data: []byte{}, eof: true},
	}
	calls := fp.snapshot()
	if len(calls) != len(expected) {
		t.Fatalf("expected %d player calls, got %+v", len(expected), calls)
	}
	for i, call := range calls {
		want := expected[i]
		if call.op != want.op || call.id != want.id || call.eof != want.eof || !slices.Equal(call.data, want.data) {
			t.Fatalf("expected call %d to be %+v, got %+v", i, want, call)
		}
	}
}

func TestNewReplyStopsPlayingReply(t *testing.T) {
	o, fp, _ := newTestOrchestrator(t)

	deliverEvent(o, events.EventStart, "reply-1")
	deliverAudio(o, transport.StreamStart, []byte{})
	deliverEvent(o, events.EventStart, "reply-2")
	deliverAudio(o, transport.StreamStart, []byte{})

	ops := []string{}
	for _, call := range fp.snapshot() {
		ops = append(ops, call.op+":"+call.id)
	}
	expected := []string{"start:reply-1", "stop:", "start:reply-2"}
	if !slices.Equal(ops, expected) {
		t.Fatalf("expected %v, got %v", expected, ops)
	}
}

func TestReplyWithoutStreamGetsGeneratedID(t *testing.T) {
	o, fp, _ := newTestOrchestrator(t)

	deliverAudio(o, transport.StreamStart, []byte{1})
	deliverAudio(o, transport.StreamEnd, []byte{})

	calls := fp.snapshot()
	if len(calls) != 3 {
		t.Fatalf("expected 3 player calls, got %+v", calls)
	}
	if calls[0].id == "" {
		t.Fatalf("expected a generated playback id")
	}
	for _, call := range calls[1:] {
		if call.id != calls[0].id {
			t.Fatalf("expected writes to use %q, got %q", calls[0].id, call.id)
		}
	}
}

func TestInterruptionStopsPlayback(t *testing.T) {
	for _, eventType := range []events.EventType{events.EventChatBreak, events.EventServerVAD} {
		t.Run(eventType.String(), func(t *testing.T) {
			o, fp, _ := newTestOrchestrator(t)
			states := []bool{}
			o.configure(context.Background(), WithChatStateChangedCallback(func(chatting bool) {
				states = append(states, chatting)
			}))

			if err := o.StartTalking(context.Background()); err != nil {
				t.Fatalf("expected start talking to succeed, got %v", err)
			}
			if err := o.StopTalking(context.Background()); err != nil {
				t.Fatalf("expected stop talking to succeed, got %v", err)
			}
			deliverEvent(o, events.EventStart, "reply-1")
			deliverAudio(o, transport.StreamStart, []byte{1})

			deliverEvent(o, eventType, "stale")
			if !fp.IsPlaying() || !o.IsChatting() {
				t.Fatalf("expected a stale interruption to be ignored")
			}

			deliverEvent(o, eventType, "reply-1")
			if fp.IsPlaying() {
				t.Fatalf("expected playback to be stopped")
			}
			if o.IsChatting() {
				t.Fatalf("expected chat to be over")
			}
			if !slices.Equal(states, []bool{true, false}) {
				t.Fatalf("expected chat states [true false], got %v", states)
			}

			deliverAudio(o, transport.StreamIng, []byte{2})
			for _, call := range fp.snapshot() {
				if call.op == "write" && slices.Equal(call.data, []byte{2}) {
					t.Fatalf("expected audio after the interruption to be dropped")
				}
			}
		})
	}
}

func TestEndEventClearsChatting(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	if err := o.StartTalking(context.Background()); err != nil {
		t.Fatalf("expected start talking to succeed, got %v", err)
	}
	deliverEvent(o, events.EventEnd, "reply-1")
	if o.IsChatting() {
		t.Fatalf("expected end event to clear chatting")
	}
}

func TestTalkingWithAudioInput(t *testing.T) {
	input := &fakeAudioInput{}
	o, _, ft := newTestOrchestrator(t, WithAudioInput(input))
	ctx := context.Background()

	var uploaded [][]byte
	var speaking []bool
	o.configure(ctx,
		WithInputAudioCallback(func(audio []byte) { uploaded = append(uploaded, audio) }),
		WithSpeakingStateChangedCallback(func(isSpeaking bool) { speaking = append(speaking, isSpeaking) }),
	)

	if err := o.StartTalking(ctx); err != nil {
		t.Fatalf("expected start talking to succeed, got %v", err)
	}
	input.push([]byte{1, 2})
	input.push([]byte{3, 4})
	if err := o.StopTalking(ctx); err != nil {
		t.Fatalf("expected stop talking to succeed, got %v", err)
	}

	if input.starts != 1 || input.stops != 1 {
		t.Fatalf("expected one capture start and stop, got %d and %d", input.starts, input.stops)
	}
	expectedFlags := []transport.StreamFlag{transport.StreamStart, transport.StreamIng, transport.StreamEnd}
	if !slices.Equal(ft.packets, expectedFlags) {
		t.Fatalf("expected packets %v, got %v", expectedFlags, ft.packets)
	}
	if !slices.Equal(ft.events, []string{"start", "payloads_end", "end"}) {
		t.Fatalf("expected upload events, got %v", ft.events)
	}
	if len(uploaded) != 2 {
		t.Fatalf("expected 2 uploaded chunks reported, got %d", len(uploaded))
	}
	if !slices.Equal(speaking, []bool{true, false}) {
		t.Fatalf("expected speaking states [true false], got %v", speaking)
	}

	input.push([]byte{5})
	if len(ft.packets) != 3 {
		t.Fatalf("expected audio after stop to be dropped, got %d packets", len(ft.packets))
	}
}

func TestSendAudioWithoutTurn(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	if err := o.SendAudio(context.Background(), []byte{1}); err == nil {
		t.Fatalf("expected sending audio without an open turn to fail")
	}
}

func TestOrchestrateRunsPlayback(t *testing.T) {
	o, fp, _ := newTestOrchestrator(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- o.Orchestrate(ctx) }()

	select {
	case <-fp.running:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the playback loop to run")
	}
	if err := o.Orchestrate(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected orchestrate to return after cancel")
	}
}

func TestCloseEndsSession(t *testing.T) {
	o, fp, ft := newTestOrchestrator(t)
	if err := o.StartTalking(context.Background()); err != nil {
		t.Fatalf("expected start talking to succeed, got %v", err)
	}
	deliverEvent(o, events.EventStart, "reply-1")
	deliverAudio(o, transport.StreamStart, []byte{1})

	if err := o.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	if err := o.Close(); err != nil {
		t.Fatalf("expected second close to be a no-op, got %v", err)
	}

	if ft.closed != 1 {
		t.Fatalf("expected session to be closed once, got %d", ft.closed)
	}
	if !slices.Equal(ft.events, []string{"start", "payloads_end", "end"}) {
		t.Fatalf("expected open upload to be closed, got %v", ft.events)
	}
	if fp.IsPlaying() {
		t.Fatalf("expected playback to be stopped")
	}
	if err := o.Orchestrate(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestDisconnectStopsEverything(t *testing.T) {
	input := &fakeAudioInput{}
	o, fp, _ := newTestOrchestrator(t, WithAudioInput(input))
	if err := o.StartTalking(context.Background()); err != nil {
		t.Fatalf("expected start talking to succeed, got %v", err)
	}
	deliverEvent(o, events.EventStart, "reply-1")
	deliverAudio(o, transport.StreamStart, []byte{1})

	o.Disconnect()

	if o.IsOnline() || o.IsChatting() || fp.IsPlaying() {
		t.Fatalf("expected offline, idle and silent after disconnect")
	}
	if input.stops != 1 {
		t.Fatalf("expected capture to stop, got %d stops", input.stops)
	}
}

func TestConnectAlert(t *testing.T) {
	fp := &fakeAlertPlayer{fakePlayer: newFakePlayer()}
	o, err := NewOrchestrator(&fakeTransport{}, fp, WithConnectAlert(true))
	if err != nil {
		t.Fatalf("expected orchestrator, got %v", err)
	}
	if err := o.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	if !slices.Equal(fp.alerts, []player.AlertType{player.AlertNetworkConnected}) {
		t.Fatalf("expected network connected alert, got %v", fp.alerts)
	}

	plain, _, _ := newTestOrchestrator(t)
	if err := plain.PlayAlert(context.Background(), player.AlertPowerOn); !errors.Is(err, ErrAlertsUnsupported) {
		t.Fatalf("expected ErrAlertsUnsupported, got %v", err)
	}
}

func TestPlaybackTransitionsBecomeEvents(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	var started, ended []string
	o.configure(context.Background(), WithPlaybackCallbacks(
		func(id string) { started = append(started, id) },
		func(id string) { ended = append(ended, id) },
	))

	o.OnPlaybackTransition(player.Transition{From: player.StateIdle, To: player.StateStart, ID: "a"})
	o.OnPlaybackTransition(player.Transition{From: player.StateStart, To: player.StatePlay, ID: "a"})
	o.OnPlaybackTransition(player.Transition{From: player.StatePlay, To: player.StateFinish, ID: "a"})
	o.OnPlaybackTransition(player.Transition{From: player.StateFinish, To: player.StateIdle, ID: "a"})

	if !slices.Equal(started, []string{"a"}) || !slices.Equal(ended, []string{"a"}) {
		t.Fatalf("expected one start and one end for a, got %v and %v", started, ended)
	}
}
