package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-link/core/audio"
	"github.com/koscakluka/ema-link/core/events"
	"github.com/koscakluka/ema-link/core/transport"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// upload is the uplink event currently open.
type upload struct {
	eventID string
	packets int
}

type UploadOptions struct {
	// EnableInterrupt lets the agent cut its reply short when the user
	// starts talking over it.
	EnableInterrupt bool
}

type eventOptions struct {
	EnableVAD bool `json:"asr.enableVad"`
	Interrupt bool `json:"processing.interrupt,omitempty"`
}

// UploadStart opens a new uplink event and returns its id.
func (s *Session) UploadStart(ctx context.Context, opts UploadOptions) (string, error) {
	ctx, span := tracer.Start(ctx, "upload start",
		trace.WithAttributes(attribute.Bool("upload.enable_interrupt", opts.EnableInterrupt)))
	defer span.End()

	s.uplinkMu.Lock()
	defer s.uplinkMu.Unlock()

	if s.upload != nil {
		span.RecordError(ErrUploadInProgress)
		span.SetStatus(codes.Error, ErrUploadInProgress.Error())
		return "", ErrUploadInProgress
	}
	sessionID, ok := s.onlineSession()
	if !ok {
		span.RecordError(ErrOffline)
		span.SetStatus(codes.Error, ErrOffline.Error())
		return "", ErrOffline
	}

	value, err := json.Marshal(eventOptions{EnableVAD: true, Interrupt: opts.EnableInterrupt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal event options: %w", err)
	}

	eventID := s.options.newEventID()
	span.SetAttributes(attribute.String("event.id", eventID))
	attrs := []transport.Attribute{transport.StringAttribute(transport.AttrEventOptions, string(value))}
	if err := s.transport.StartEvent(ctx, sessionID, eventID, attrs); err != nil {
		err = fmt.Errorf("failed to start upload event: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	s.upload = &upload{eventID: eventID}
	logger.Info("upload started", "event_id", eventID, "interrupt", opts.EnableInterrupt)
	s.emit(events.NewUserSpeechStarted(eventID))
	return eventID, nil
}

// UploadData sends one chunk of 16 kHz mono 16 bit PCM for the open upload.
func (s *Session) UploadData(ctx context.Context, pcm []byte) error {
	s.uplinkMu.Lock()
	defer s.uplinkMu.Unlock()

	if s.upload == nil {
		return ErrNoUpload
	}

	flag := transport.StreamIng
	if s.upload.packets == 0 {
		flag = transport.StreamStart
	}
	if err := s.sendAudio(ctx, flag, pcm); err != nil {
		return fmt.Errorf("failed to send upload data: %w", err)
	}
	s.upload.packets++
	return nil
}

// UploadStop closes the open upload. The upload is closed even when one of
// the closing sends fails.
func (s *Session) UploadStop(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "upload stop")
	defer span.End()

	s.uplinkMu.Lock()
	defer s.uplinkMu.Unlock()

	if s.upload == nil {
		return ErrNoUpload
	}
	current := s.upload
	s.upload = nil
	span.SetAttributes(
		attribute.String("event.id", current.eventID),
		attribute.Int("event.packets", current.packets),
	)

	sessionID, ok := s.onlineSession()
	if !ok {
		span.RecordError(ErrOffline)
		span.SetStatus(codes.Error, ErrOffline.Error())
		return ErrOffline
	}

	var errs []error
	if err := s.sendAudio(ctx, transport.StreamEnd, []byte{}); err != nil {
		errs = append(errs, fmt.Errorf("failed to send closing packet: %w", err))
	}
	attrs := []transport.Attribute{transport.Uint16Attribute(transport.AttrEventChannel, uint16(transport.UplinkAudio))}
	if err := s.transport.EndEventPayloads(ctx, sessionID, current.eventID, attrs); err != nil {
		errs = append(errs, fmt.Errorf("failed to end upload payloads: %w", err))
	}
	if err := s.transport.EndEvent(ctx, sessionID, current.eventID, nil); err != nil {
		errs = append(errs, fmt.Errorf("failed to end upload event: %w", err))
	}

	logger.Info("upload stopped", "event_id", current.eventID, "packets", current.packets)
	s.emit(events.NewUserSpeechEnded(current.eventID))

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s *Session) sendAudio(ctx context.Context, flag transport.StreamFlag, pcm []byte) error {
	attr := &transport.PacketAttr{
		Type: transport.PacketAudio,
		Audio: transport.AudioAttr{
			Codec:  audio.CodecPCM,
			Format: audio.DefaultUplinkFormat(),
		},
	}
	head := &transport.PacketHead{
		Flag:      flag,
		Length:    len(pcm),
		Timestamp: uint64(s.options.now().UnixMilli()),
	}
	return s.transport.SendPacket(ctx, transport.UplinkAudio, attr, head, pcm)
}
