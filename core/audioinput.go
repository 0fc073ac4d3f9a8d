package orchestration

import (
	"context"
	"fmt"
	"sync/atomic"
)

// AudioInput captures microphone audio as 16 kHz mono 16 bit PCM.
type AudioInput interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

type audioInput struct {
	// base stores the configured capture client.
	base AudioInput

	// isCapturing reports whether the input client is currently capturing audio.
	isCapturing atomic.Bool

	// onInputAudio is called when input audio is received
	onInputAudio func(audio []byte)
}

func newAudioInput(client AudioInput, onInputAudio func(audio []byte)) *audioInput {
	if onInputAudio == nil {
		onInputAudio = func(audio []byte) {}
	}

	audioInput := audioInput{onInputAudio: onInputAudio}
	audioInput.Set(client)
	return &audioInput
}

func (a *audioInput) Set(client AudioInput) {
	if a == nil {
		return
	}

	a.base = client
	a.isCapturing.Store(false)
}

func (a *audioInput) IsConfigured() bool { return a != nil && a.base != nil }
func (a *audioInput) IsCapturing() bool  { return a != nil && a.isCapturing.Load() }

// Capture starts the input client unless it is already capturing. Without a
// client it is a no-op and audio is expected through SendAudio.
func (a *audioInput) Capture(ctx context.Context) error {
	if !a.IsConfigured() {
		return nil
	}

	if !a.isCapturing.CompareAndSwap(false, true) {
		return nil
	}

	if err := a.base.StartCapture(ctx, a.onAudio); err != nil {
		a.isCapturing.Store(false)
		return fmt.Errorf("failed to start audio input: %w", err)
	}
	return nil
}

func (a *audioInput) StopCapture() error {
	if !a.IsConfigured() {
		return nil
	}

	if !a.isCapturing.CompareAndSwap(true, false) {
		return nil
	}

	if err := a.base.StopCapture(); err != nil {
		return fmt.Errorf("failed to stop audio input: %w", err)
	}
	return nil
}

func (a *audioInput) onAudio(audio []byte) {
	if !a.IsCapturing() {
		return
	}

	a.onInputAudio(audio)
}
