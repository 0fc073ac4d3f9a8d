package orchestration

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-link/core/player"
)

var ErrAlertsUnsupported = errors.New("player does not support alerts")

// Player renders reply audio. *player.Player implements it.
type Player interface {
	Start(id string) error
	Write(ctx context.Context, id string, data []byte, eof bool) error
	Stop() error
	IsPlaying() bool
	Run(ctx context.Context) error
}

// AlertPlayer is implemented by players that can play local prompt sounds.
type AlertPlayer interface {
	PlayAlert(ctx context.Context, alert player.AlertType) error
}

// playback routes reply audio streams to the configured player.
//
// speechID is the playback id of the reply audio stream in progress. It is
// only touched from the session's delivery goroutine.
type playback struct {
	base   Player
	alerts AlertPlayer

	speechID string
}

func newPlayback(client Player) *playback {
	p := &playback{}
	p.Set(client)
	return p
}

// Set replaces the player. Nil and typed-nil players are treated as
// unconfigured.
func (p *playback) Set(client Player) {
	if p == nil {
		return
	}

	p.base = nil
	p.alerts = nil
	p.speechID = ""

	if isNilPlayer(client) {
		return
	}
	p.base = client

	if alerts, ok := client.(AlertPlayer); ok {
		p.alerts = alerts
	}
}

func (p *playback) isConfigured() bool {
	return p != nil && p.base != nil
}

// startSpeech begins playback of a reply audio stream, cutting off whatever
// is playing. Streams without an id get a generated one so their chunks are
// not mistaken for the anonymous playback.
func (p *playback) startSpeech(ctx context.Context, streamID string, audio []byte) error {
	if !p.isConfigured() {
		return nil
	}

	if p.base.IsPlaying() {
		logger.Debug("player is playing, stopping it first", "playback_id", p.speechID)
		if err := p.base.Stop(); err != nil {
			return fmt.Errorf("failed to stop previous playback: %w", err)
		}
	}

	id := streamID
	if id == "" {
		id = uuid.NewString()
	}
	p.speechID = id

	if err := p.base.Start(id); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	if len(audio) == 0 {
		return nil
	}
	return p.writeSpeech(ctx, audio)
}

func (p *playback) writeSpeech(ctx context.Context, audio []byte) error {
	if !p.isConfigured() || p.speechID == "" {
		return nil
	}
	return p.base.Write(ctx, p.speechID, audio, false)
}

func (p *playback) endSpeech(ctx context.Context) error {
	if !p.isConfigured() || p.speechID == "" {
		return nil
	}
	id := p.speechID
	p.speechID = ""
	return p.base.Write(ctx, id, nil, true)
}

// interrupt stops the reply being played, if any.
func (p *playback) interrupt() error {
	if !p.isConfigured() {
		return nil
	}
	p.speechID = ""
	if !p.base.IsPlaying() {
		return nil
	}
	return p.base.Stop()
}

func (p *playback) playAlert(ctx context.Context, alert player.AlertType) error {
	if p == nil || p.alerts == nil {
		return ErrAlertsUnsupported
	}
	return p.alerts.PlayAlert(ctx, alert)
}

// isNilPlayer detects nil and typed-nil interface values so Set can avoid
// storing unusable interface wrappers as configured players.
func isNilPlayer(client Player) bool {
	if client == nil {
		return true
	}

	v := reflect.ValueOf(client)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
