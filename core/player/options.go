package player

import (
	"time"

	"github.com/koscakluka/ema-link/core/audio"
)

const (
	DefaultBufferSize         = 1024 * 64 * 2
	DefaultWindowSize         = 1940
	DefaultPollInterval       = 10 * time.Millisecond
	DefaultWriteRetryInterval = 3 * time.Millisecond
	DefaultStallTimeout       = 5 * time.Second
	// MaxIDLength is the longest accepted playback id, in bytes.
	MaxIDLength = 256
)

type options struct {
	bufferSize         int
	overflowPolicy     audio.OverflowPolicy
	windowSize         int
	pollInterval       time.Duration
	writeRetryInterval time.Duration
	stallTimeout       time.Duration
	decoder            FrameDecoder
	onStateChange      func(Transition)
	alerts             map[AlertType][]byte
}

func defaultOptions() options {
	return options{
		bufferSize:         DefaultBufferSize,
		overflowPolicy:     audio.OverflowStop,
		windowSize:         DefaultWindowSize,
		pollInterval:       DefaultPollInterval,
		writeRetryInterval: DefaultWriteRetryInterval,
		stallTimeout:       DefaultStallTimeout,
		alerts:             map[AlertType][]byte{},
	}
}

type Option func(*options)

// WithBufferSize sets the capacity of the compressed audio buffer in bytes.
func WithBufferSize(size int) Option {
	return func(o *options) { o.bufferSize = size }
}

// WithOverflowPolicy selects what Write does when the buffer is full.
// OverflowStop (the default) blocks the writer; OverflowCoverage drops the
// oldest buffered audio instead.
func WithOverflowPolicy(policy audio.OverflowPolicy) Option {
	return func(o *options) { o.overflowPolicy = policy }
}

// WithWindowSize sets how many bytes are handed to the decoder per attempt.
// It must exceed the largest frame the stream can contain.
func WithWindowSize(size int) Option {
	return func(o *options) { o.windowSize = size }
}

func WithPollInterval(interval time.Duration) Option {
	return func(o *options) { o.pollInterval = interval }
}

func WithWriteRetryInterval(interval time.Duration) Option {
	return func(o *options) { o.writeRetryInterval = interval }
}

// WithStallTimeout sets how long playback waits for more audio before it
// finishes on its own.
func WithStallTimeout(timeout time.Duration) Option {
	return func(o *options) { o.stallTimeout = timeout }
}

// WithDecoder replaces the default MP3 decoder.
func WithDecoder(decoder FrameDecoder) Option {
	return func(o *options) { o.decoder = decoder }
}

// WithStateChangeCallback registers a callback for every state change. It
// runs without the player lock held but must not block.
func WithStateChangeCallback(callback func(Transition)) Option {
	return func(o *options) { o.onStateChange = callback }
}

// WithAlertSound registers the compressed sound played for an alert.
func WithAlertSound(alert AlertType, sound []byte) Option {
	return func(o *options) { o.alerts[alert] = sound }
}
