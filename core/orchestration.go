// Package orchestration ties an agent session to local playback and capture:
// reply audio goes to the player, interruptions cut it short, and
// conversation turns are opened and closed around microphone uploads.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-link/core/agent"
	"github.com/koscakluka/ema-link/core/events"
	"github.com/koscakluka/ema-link/core/player"
	"github.com/koscakluka/ema-link/core/transport"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrNoTransport    = errors.New("no transport configured")
	ErrNoPlayer       = errors.New("no player configured")
	ErrClosed         = errors.New("orchestrator closed")
	ErrAlreadyRunning = errors.New("orchestrator already running")
)

const closeTimeout = 5 * time.Second

type Orchestrator struct {
	session    *agent.Session
	playback   *playback
	audioInput *audioInput

	workMode       WorkMode
	sessionOptions []agent.Option
	connectAlert   bool

	chatting atomic.Bool

	mu                 sync.Mutex
	emitter            eventEmitter
	orchestrateOptions OrchestrateOptions
	baseContext        context.Context

	running   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
}

func NewOrchestrator(t transport.Transport, p Player, opts ...OrchestratorOption) (*Orchestrator, error) {
	o := &Orchestrator{
		workMode:    ManualSingleTalk,
		emitter:     noopEventEmitter,
		baseContext: context.Background(),
	}
	o.audioInput = newAudioInput(nil, o.forwardCapturedAudio)

	for _, opt := range opts {
		opt(o)
	}

	if err := o.workMode.validate(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNoTransport
	}
	if isNilPlayer(p) {
		return nil, ErrNoPlayer
	}

	o.playback = newPlayback(p)
	o.session = agent.New(t, sessionHandler{o}, o.sessionOptions...)
	return o, nil
}

// Orchestrate runs the playback loop until ctx is done.
//
// ctx is also used as the base context for playback writes made on behalf
// of the agent.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) error {
	if o.closed.Load() {
		return ErrClosed
	}
	if !o.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer o.running.Store(false)

	o.configure(ctx, opts...)

	logger.Info("orchestrator running", "work_mode", o.workMode)
	if err := o.playback.base.Run(ctx); err != nil {
		return fmt.Errorf("playback loop failed: %w", err)
	}
	return nil
}

func (o *Orchestrator) configure(ctx context.Context, opts ...OrchestrateOption) {
	options := OrchestrateOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.orchestrateOptions = options
	o.emitter = newCallbackEventEmitter(options)
	o.baseContext = ctx
}

// Connect brings the agent session online. Register it as the transport's
// ready callback.
func (o *Orchestrator) Connect(ctx context.Context) error {
	if o.closed.Load() {
		return ErrClosed
	}
	if err := o.session.Connect(ctx); err != nil {
		return err
	}

	if o.connectAlert {
		if err := o.playback.playAlert(ctx, player.AlertNetworkConnected); err != nil {
			logger.Debug("connect alert not played", "error", err)
		}
	}
	return nil
}

// Disconnect takes the agent session offline. Register it as the
// transport's lost callback.
func (o *Orchestrator) Disconnect() {
	if err := o.audioInput.StopCapture(); err != nil {
		logger.Warn("failed to stop capture", "error", err)
	}
	o.session.Disconnect()
	if err := o.playback.interrupt(); err != nil {
		logger.Warn("failed to stop playback", "error", err)
	}
	o.setChatting(false)
}

// StartTalking opens a conversation turn and, with an audio input
// configured, starts uploading microphone audio.
func (o *Orchestrator) StartTalking(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "start talking")
	defer span.End()

	eventID, err := o.session.UploadStart(ctx, agent.UploadOptions{EnableInterrupt: o.workMode.interruptible()})
	if err != nil {
		err = fmt.Errorf("failed to start upload: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.String("event.id", eventID))
	o.setChatting(true)

	if err := o.audioInput.Capture(o.context()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errors.Join(err, o.session.UploadStop(ctx))
	}
	return nil
}

// SendAudio uploads a chunk of 16 kHz mono 16 bit PCM for the open turn.
func (o *Orchestrator) SendAudio(ctx context.Context, pcm []byte) error {
	if err := o.session.UploadData(ctx, pcm); err != nil {
		return err
	}
	o.emit(events.NewUserAudioFrame(pcm))
	return nil
}

// StopTalking closes the open conversation turn. The agent replies after
// this.
func (o *Orchestrator) StopTalking(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "stop talking")
	defer span.End()

	captureErr := o.audioInput.StopCapture()
	if err := errors.Join(captureErr, o.session.UploadStop(ctx)); err != nil {
		err = fmt.Errorf("failed to stop talking: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// PlayAlert plays a local prompt sound unless a reply is playing.
func (o *Orchestrator) PlayAlert(ctx context.Context, alert player.AlertType) error {
	return o.playback.playAlert(ctx, alert)
}

// OnPlaybackTransition turns player state changes into playback events.
// Pass it to the player with player.WithStateChangeCallback.
func (o *Orchestrator) OnPlaybackTransition(transition player.Transition) {
	switch {
	case transition.From == player.StateStart && transition.To == player.StatePlay:
		o.emit(events.NewAssistantPlaybackStarted(transition.ID))
	case transition.To == player.StateIdle && transition.From != player.StateIdle:
		o.emit(events.NewAssistantPlaybackEnded(transition.ID))
	}
}

func (o *Orchestrator) IsChatting() bool { return o.chatting.Load() }
func (o *Orchestrator) IsOnline() bool   { return o.session.IsOnline() }
func (o *Orchestrator) WorkMode() WorkMode {
	return o.workMode
}

// Close stops capture and playback and closes the agent session.
func (o *Orchestrator) Close() error {
	var err error
	o.closeOnce.Do(func() {
		o.closed.Store(true)

		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()

		var errs []error
		if err := o.audioInput.StopCapture(); err != nil {
			errs = append(errs, err)
		}
		if err := o.session.UploadStop(ctx); err != nil && !errors.Is(err, agent.ErrNoUpload) {
			errs = append(errs, fmt.Errorf("failed to close upload: %w", err))
		}
		if err := o.playback.interrupt(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playback: %w", err))
		}
		if err := o.session.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		o.setChatting(false)
		err = errors.Join(errs...)
	})
	return err
}

func (o *Orchestrator) forwardCapturedAudio(pcm []byte) {
	if err := o.SendAudio(o.context(), pcm); err != nil {
		logger.Warn("failed to upload captured audio", "error", err)
	}
}

func (o *Orchestrator) setChatting(chatting bool) {
	if o.chatting.Swap(chatting) == chatting {
		return
	}

	o.mu.Lock()
	callback := o.orchestrateOptions.onChatStateChanged
	o.mu.Unlock()
	if callback != nil {
		callback(chatting)
	}
}

func (o *Orchestrator) emit(event events.Event) {
	o.mu.Lock()
	emitter := o.emitter
	o.mu.Unlock()
	emitter(event)
}

func (o *Orchestrator) context() context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.baseContext
}
