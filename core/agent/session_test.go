package agent

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/koscakluka/ema-link/core/events"
	"github.com/koscakluka/ema-link/core/transport"
)

func connectedSession(t *testing.T) (*Session, *fakeTransport, *recorder) {
	t.Helper()
	ft := &fakeTransport{}
	r := &recorder{}
	s := newTestSession(ft, r)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	return s, ft, r
}

func TestConnectOpensSession(t *testing.T) {
	s, ft, _ := connectedSession(t)

	if !s.IsOnline() {
		t.Fatalf("expected session to be online")
	}
	if s.ID() != "session-1" {
		t.Fatalf("expected session id session-1, got %q", s.ID())
	}
	if ft.config.BizCode != transport.BizCodeChat {
		t.Fatalf("expected biz code %#x, got %#x", transport.BizCodeChat, ft.config.BizCode)
	}
	expectedChannels := []transport.ChannelID{transport.UplinkAudio, transport.UplinkVideo, transport.UplinkText, transport.UplinkImage}
	if !slices.Equal(ft.config.SendChannels, expectedChannels) {
		t.Fatalf("expected send channels %v, got %v", expectedChannels, ft.config.SendChannels)
	}
	if ft.config.Receivers[transport.DownlinkText] == nil || ft.config.Receivers[transport.DownlinkAudio] == nil {
		t.Fatalf("expected text and audio receivers to be registered")
	}
	if ft.config.OnEvent == nil {
		t.Fatalf("expected an event handler to be registered")
	}

	clientType, ok := transport.FindAttribute(ft.config.Attributes, transport.AttrClientType)
	if !ok || clientType.Kind != transport.AttributeUint8 || clientType.Int != uint32(transport.ClientTypeDevice) {
		t.Fatalf("expected device client type attribute, got %v", clientType)
	}
	order, ok := transport.FindAttribute(ft.config.Attributes, transport.AttrTTSOrderSupports)
	if !ok {
		t.Fatalf("expected tts order attribute")
	}
	expectedOrder := `{"tts.order.supports":[{"format":"mp3","container":"","sampleRate":16000,"bitDepth":"16","channels":1}]}`
	if order.Value != expectedOrder {
		t.Fatalf("expected %s, got %s", expectedOrder, order.Value)
	}
}

func TestConnectFailureStaysOffline(t *testing.T) {
	ft := &fakeTransport{openErr: errors.New("refused")}
	s := newTestSession(ft, &recorder{})

	if err := s.Connect(context.Background()); err == nil {
		t.Fatalf("expected connect to fail")
	}
	if s.IsOnline() {
		t.Fatalf("expected session to stay offline")
	}
	if _, err := s.UploadStart(context.Background(), UploadOptions{}); !errors.Is(err, ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}
}

func TestUploadFraming(t *testing.T) {
	s, ft, r := connectedSession(t)
	ctx := context.Background()

	eventID, err := s.UploadStart(ctx, UploadOptions{EnableInterrupt: true})
	if err != nil {
		t.Fatalf("expected upload start to succeed, got %v", err)
	}
	if eventID != "event-1" {
		t.Fatalf("expected event-1, got %q", eventID)
	}
	for range 3 {
		if err := s.UploadData(ctx, []byte{1, 2, 3, 4}); err != nil {
			t.Fatalf("expected upload data to succeed, got %v", err)
		}
	}
	if err := s.UploadStop(ctx); err != nil {
		t.Fatalf("expected upload stop to succeed, got %v", err)
	}

	flags := make([]transport.StreamFlag, 0, len(ft.packets))
	for _, p := range ft.packets {
		if p.channel != transport.UplinkAudio {
			t.Fatalf("expected uplink audio channel, got %d", p.channel)
		}
		if p.attr.Audio.SampleRate != 16000 || p.attr.Audio.Channels != 1 || p.attr.Audio.BitsPerSample != 16 {
			t.Fatalf("expected 16 kHz mono 16 bit, got %+v", p.attr.Audio.Format)
		}
		if p.head.Timestamp != 1000 {
			t.Fatalf("expected timestamp 1000, got %d", p.head.Timestamp)
		}
		flags = append(flags, p.head.Flag)
	}
	expectedFlags := []transport.StreamFlag{transport.StreamStart, transport.StreamIng, transport.StreamIng, transport.StreamEnd}
	if !slices.Equal(flags, expectedFlags) {
		t.Fatalf("expected flags %v, got %v", expectedFlags, flags)
	}
	if last := ft.packets[len(ft.packets)-1]; len(last.payload) != 0 || last.head.Length != 0 {
		t.Fatalf("expected empty closing packet, got %d bytes", len(last.payload))
	}

	names := make([]string, 0, len(ft.events))
	for _, e := range ft.events {
		if e.eventID != "event-1" {
			t.Fatalf("expected event-1 on every event, got %q", e.eventID)
		}
		names = append(names, e.name)
	}
	if !slices.Equal(names, []string{"start", "payloads_end", "end"}) {
		t.Fatalf("expected start, payloads_end, end, got %v", names)
	}

	options, ok := transport.FindAttribute(ft.events[0].attrs, transport.AttrEventOptions)
	if !ok {
		t.Fatalf("expected event options attribute")
	}
	var decoded map[string]bool
	if err := json.Unmarshal([]byte(options.Value), &decoded); err != nil {
		t.Fatalf("expected valid JSON options, got %v", err)
	}
	if !decoded["asr.enableVad"] || !decoded["processing.interrupt"] {
		t.Fatalf("expected vad and interrupt enabled, got %v", decoded)
	}
	channel, ok := transport.FindAttribute(ft.events[1].attrs, transport.AttrEventChannel)
	if !ok || channel.Int != uint32(transport.UplinkAudio) {
		t.Fatalf("expected uplink audio channel attribute, got %v", channel)
	}

	expectedKinds := []events.Kind{events.KindUserSpeechStarted, events.KindUserSpeechEnded}
	if !slices.Equal(r.kinds(), expectedKinds) {
		t.Fatalf("expected %v, got %v", expectedKinds, r.kinds())
	}
}

func TestUploadWithoutInterrupt(t *testing.T) {
	s, ft, _ := connectedSession(t)
	if _, err := s.UploadStart(context.Background(), UploadOptions{}); err != nil {
		t.Fatalf("expected upload start to succeed, got %v", err)
	}

	options, _ := transport.FindAttribute(ft.events[0].attrs, transport.AttrEventOptions)
	if options.Value != `{"asr.enableVad":true}` {
		t.Fatalf("expected only vad option, got %s", options.Value)
	}
}

func TestUploadSingleOpen(t *testing.T) {
	s, _, _ := connectedSession(t)
	ctx := context.Background()

	if err := s.UploadData(ctx, []byte{1}); !errors.Is(err, ErrNoUpload) {
		t.Fatalf("expected ErrNoUpload, got %v", err)
	}
	if err := s.UploadStop(ctx); !errors.Is(err, ErrNoUpload) {
		t.Fatalf("expected ErrNoUpload, got %v", err)
	}
	if _, err := s.UploadStart(ctx, UploadOptions{}); err != nil {
		t.Fatalf("expected upload start to succeed, got %v", err)
	}
	if _, err := s.UploadStart(ctx, UploadOptions{}); !errors.Is(err, ErrUploadInProgress) {
		t.Fatalf("expected ErrUploadInProgress, got %v", err)
	}
}

func TestUploadFailedSendKeepsStartFlag(t *testing.T) {
	s, ft, _ := connectedSession(t)
	ctx := context.Background()
	if _, err := s.UploadStart(ctx, UploadOptions{}); err != nil {
		t.Fatalf("expected upload start to succeed, got %v", err)
	}

	ft.sendErr = errFakeSend
	if err := s.UploadData(ctx, []byte{1}); !errors.Is(err, errFakeSend) {
		t.Fatalf("expected send error, got %v", err)
	}
	ft.sendErr = nil
	if err := s.UploadData(ctx, []byte{1}); err != nil {
		t.Fatalf("expected upload data to succeed, got %v", err)
	}
	if ft.packets[0].head.Flag != transport.StreamStart {
		t.Fatalf("expected first delivered packet to carry start flag, got %s", ft.packets[0].head.Flag)
	}
}

func TestUploadStopClosesOnError(t *testing.T) {
	s, ft, _ := connectedSession(t)
	ctx := context.Background()
	if _, err := s.UploadStart(ctx, UploadOptions{}); err != nil {
		t.Fatalf("expected upload start to succeed, got %v", err)
	}

	ft.sendErr = errFakeSend
	if err := s.UploadStop(ctx); !errors.Is(err, errFakeSend) {
		t.Fatalf("expected send error, got %v", err)
	}
	if len(ft.events) != 3 {
		t.Fatalf("expected closing events despite the failed packet, got %d events", len(ft.events))
	}
	if _, err := s.UploadStart(ctx, UploadOptions{}); err != nil {
		t.Fatalf("expected a new upload after a failed stop, got %v", err)
	}
}

func TestDisconnectAbandonsUpload(t *testing.T) {
	s, _, _ := connectedSession(t)
	ctx := context.Background()
	if _, err := s.UploadStart(ctx, UploadOptions{}); err != nil {
		t.Fatalf("expected upload start to succeed, got %v", err)
	}

	s.Disconnect()
	if s.IsOnline() {
		t.Fatalf("expected session to be offline")
	}
	if err := s.UploadData(ctx, []byte{1}); !errors.Is(err, ErrNoUpload) {
		t.Fatalf("expected ErrNoUpload, got %v", err)
	}
}

func TestCloseSession(t *testing.T) {
	s, ft, _ := connectedSession(t)

	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	if !slices.Equal(ft.closed, []string{"session-1"}) {
		t.Fatalf("expected session-1 to be closed, got %v", ft.closed)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("expected second close to be a no-op, got %v", err)
	}
	if len(ft.closed) != 1 {
		t.Fatalf("expected a single close, got %d", len(ft.closed))
	}
}
