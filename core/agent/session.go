// Package agent is the device side of a streaming conversation with a remote
// agent. It frames microphone audio into uplink events and turns downlink
// packets and lifecycle signals into typed events for the application.
package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/koscakluka/ema-link/core/events"
	"github.com/koscakluka/ema-link/core/transport"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Session struct {
	transport transport.Transport
	handler   Handler
	options   options

	mu        sync.Mutex
	sessionID string
	online    bool

	uplinkMu sync.Mutex
	upload   *upload

	// Downlink state, owned by the transport's delivery goroutine.
	stream streamTracker
	text   textParser
}

// New creates a session over t that reports to h. Nothing is sent until
// Connect.
func New(t transport.Transport, h Handler, opts ...Option) *Session {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Session{
		transport: t,
		handler:   h,
		options:   options,
	}
}

// Connect opens the agent session. It is called whenever the transport
// becomes ready.
func (s *Session) Connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "connect session")
	defer span.End()

	ttsOrder, err := marshalTTSOrder(s.options.ttsFormats)
	if err != nil {
		err = fmt.Errorf("failed to marshal tts formats: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	config := transport.SessionConfig{
		BizCode: s.options.bizCode,
		Attributes: []transport.Attribute{
			transport.Uint8Attribute(transport.AttrClientType, transport.ClientTypeDevice),
			transport.StringAttribute(transport.AttrTTSOrderSupports, ttsOrder),
		},
		SendChannels: []transport.ChannelID{
			transport.UplinkAudio,
			transport.UplinkVideo,
			transport.UplinkText,
			transport.UplinkImage,
		},
		Receivers: map[transport.ChannelID]transport.PacketHandler{
			transport.DownlinkText:  s.HandleText,
			transport.DownlinkAudio: s.HandleAudio,
		},
		OnEvent: s.HandleEvent,
	}

	sessionID, err := s.transport.OpenSession(ctx, config)
	if err != nil {
		err = fmt.Errorf("failed to open agent session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.String("session.id", sessionID))

	s.mu.Lock()
	s.sessionID = sessionID
	s.online = true
	s.mu.Unlock()

	logger.Info("agent session opened", "session_id", sessionID)
	return nil
}

// Disconnect marks the session offline after the transport lost its link.
// Any open upload is abandoned.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.online = false
	sessionID := s.sessionID
	s.mu.Unlock()

	s.uplinkMu.Lock()
	s.upload = nil
	s.uplinkMu.Unlock()

	logger.Info("agent session offline", "session_id", sessionID)
}

// Close ends the agent session, if one was opened.
func (s *Session) Close(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "close session")
	defer span.End()

	s.mu.Lock()
	sessionID := s.sessionID
	s.sessionID = ""
	s.online = false
	s.mu.Unlock()

	s.uplinkMu.Lock()
	s.upload = nil
	s.uplinkMu.Unlock()

	if sessionID == "" {
		return nil
	}
	span.SetAttributes(attribute.String("session.id", sessionID))

	if err := s.transport.CloseSession(ctx, sessionID, transport.CloseReasonOK); err != nil {
		err = fmt.Errorf("failed to close agent session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	logger.Info("agent session closed", "session_id", sessionID)
	return nil
}

func (s *Session) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// ID returns the id of the last opened session.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Session) onlineSession() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID, s.online && s.sessionID != ""
}

func (s *Session) emit(message events.Event) {
	if s.handler != nil {
		s.handler.OnMessage(message)
	}
}
