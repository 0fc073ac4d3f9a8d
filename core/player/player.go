// Package player turns a stream of compressed audio chunks into PCM on an
// output sink.
//
// Writers push compressed bytes with Write; a single loop goroutine (Run)
// decodes one frame per cycle and renders it. The player lock guards state
// and is released while writers wait for buffer space, so Stop can always
// get through.
package player

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-link/core/audio"
	"github.com/koscakluka/ema-link/core/audio/mp3"
)

// Sink renders interleaved 16-bit PCM.
type Sink interface {
	// Open prepares the sink for a format. It is called before the first
	// write of every playback and must be cheap when the format is unchanged.
	Open(format audio.Format) error
	// Write blocks until frames have been accepted.
	Write(pcm []int16, frames int) (int, error)
	// Stop discards anything not yet played.
	Stop() error
}

// FrameDecoder decodes the first complete frame in a window. A zero sample
// count must come with an error.
type FrameDecoder interface {
	Reset()
	DecodeFrame(window []byte, pcm []int16) (int, audio.FrameInfo, error)
}

type Player struct {
	sink    Sink
	decoder FrameDecoder
	buffer  *audio.RingBuffer
	options options

	mu          sync.Mutex
	initialized bool
	state       State
	playing     bool
	writers     int
	id          string
	eof         bool
	transitions []Transition

	// decode cursor, only touched by the loop under mu
	raw        []byte
	rawHead    int
	rawUsed    int
	pcm        []int16
	sinkReady  bool
	sinkFormat audio.Format

	stallTimer      *time.Timer
	stallGeneration uint64

	running atomic.Bool
}

func New(sink Sink, opts ...Option) (*Player, error) {
	if isNilSink(sink) {
		return nil, ErrNoSink
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.windowSize <= 0 {
		return nil, fmt.Errorf("invalid window size %d", options.windowSize)
	}

	buffer, err := audio.NewRingBuffer(options.bufferSize, options.overflowPolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to create playback buffer: %w", err)
	}

	decoder := options.decoder
	if decoder == nil {
		decoder = mp3.NewDecoder()
	}

	return &Player{
		sink:        sink,
		decoder:     decoder,
		buffer:      buffer,
		options:     options,
		initialized: true,
		state:       StateIdle,
		raw:         make([]byte, options.windowSize),
		pcm:         make([]int16, mp3.MaxPCMSamples),
	}, nil
}

// isNilSink treats typed-nil sinks as missing.
func isNilSink(sink Sink) bool {
	if sink == nil {
		return true
	}

	value := reflect.ValueOf(sink)
	switch value.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return value.IsNil()
	default:
		return false
	}
}

// Start begins a playback identified by id. The empty id is the anonymous
// playback. Starting while a playback is active is a no-op.
func (p *Player) Start(id string) error {
	if p == nil {
		return ErrNotInitialized
	}

	p.mu.Lock()
	defer p.unlock()
	if !p.initialized {
		return ErrNotInitialized
	}
	if p.playing {
		logger.Debug("player already started", "id", p.id, "requested_id", id)
		return nil
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%w: length %d exceeds %d", ErrInvalidID, len(id), MaxIDLength)
	}

	p.id = id
	p.eof = false
	p.playing = true
	p.setState(StateStart)
	logger.Info("player started", "id", id)
	return nil
}

// Write appends compressed audio to the current playback. It blocks while
// the buffer is full, and gives up without error if the playback is stopped
// meanwhile. ctx bounds the wait; its error is returned wrapped.
//
// eof marks the end of the stream once every byte has been accepted; it may
// be sent with empty data.
func (p *Player) Write(ctx context.Context, id string, data []byte, eof bool) error {
	if p == nil {
		return ErrNotInitialized
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return ErrNotInitialized
	}
	if !p.state.acceptsAudio() {
		return fmt.Errorf("%w: %s", ErrInvalidState, p.state)
	}
	if p.id != id {
		logger.Debug("playback id mismatch", "id", id, "current_id", p.id)
		return fmt.Errorf("%w: got %q, playing %q", ErrIDMismatch, id, p.id)
	}

	if len(data) > 0 {
		p.writers++
		defer func() { p.writers-- }()
	}

	for len(data) > 0 && p.state.acceptsAudio() {
		if n := p.buffer.Write(data); n > 0 {
			data = data[n:]
			continue
		}

		p.mu.Unlock()
		timer := time.NewTimer(p.options.writeRetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.mu.Lock()
			return fmt.Errorf("failed to write audio: %w", ctx.Err())
		case <-timer.C:
		}
		p.mu.Lock()
	}

	p.eof = eof
	return nil
}

// Stop abandons the current playback and discards buffered audio.
func (p *Player) Stop() error {
	if p == nil {
		return ErrNotInitialized
	}

	p.mu.Lock()
	defer p.unlock()
	if !p.initialized {
		return ErrNotInitialized
	}
	if !p.playing {
		return nil
	}

	p.id = ""
	p.eof = false
	p.disarmStall()
	p.setState(StatePause)

	for p.writers > 0 {
		p.mu.Unlock()
		time.Sleep(p.options.writeRetryInterval)
		p.mu.Lock()
	}

	p.buffer.Reset()
	err := p.sink.Stop()

	p.playing = false
	p.setState(StateIdle)
	logger.Info("player stopped")

	if err != nil {
		sinkErrorCounter.Add(context.Background(), 1)
		return fmt.Errorf("failed to stop output sink: %w", err)
	}
	return nil
}

func (p *Player) IsPlaying() bool {
	if p == nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) State() State {
	if p == nil {
		return StateIdle
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// ID returns the id of the current playback.
func (p *Player) ID() string {
	if p == nil {
		return ""
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id
}

// Run drives playback until ctx is done. Only one Run may be active.
func (p *Player) Run(ctx context.Context) error {
	if p == nil || !p.initialized {
		return ErrNotInitialized
	}
	if !p.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer p.running.Store(false)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.disarmStall()
			p.mu.Unlock()
			return nil
		case <-timer.C:
		}

		timer.Reset(p.step())
	}
}

// setState records a transition; callbacks fire from unlock.
func (p *Player) setState(state State) {
	if p.state == state {
		return
	}

	logger.Debug("player state changed", "from", p.state, "to", state)
	p.transitions = append(p.transitions, Transition{From: p.state, To: state, ID: p.id})
	p.state = state
}

// unlock releases the player lock and then reports pending transitions.
func (p *Player) unlock() {
	transitions := p.transitions
	p.transitions = nil
	p.mu.Unlock()

	if p.options.onStateChange == nil {
		return
	}
	for _, transition := range transitions {
		p.options.onStateChange(transition)
	}
}
