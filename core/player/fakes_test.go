package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-link/core/audio"
	"github.com/koscakluka/ema-link/core/audio/mp3"
)

const (
	fakeFrameMarker  = 0xA5
	fakeFrameSize    = 8
	fakeFrameSamples = 4
)

var fakeFormat = audio.Format{Channels: 2, SampleRate: 16000, BitsPerSample: 16}

// fakeFrames builds n frames the fake decoder understands.
func fakeFrames(n int) []byte {
	data := make([]byte, 0, n*fakeFrameSize)
	for i := range n {
		frame := make([]byte, fakeFrameSize)
		frame[0] = fakeFrameMarker
		frame[1] = byte(i)
		data = append(data, frame...)
	}
	return data
}

type fakeDecoder struct {
	mu      sync.Mutex
	resets  int
	decoded int
	failed  int
}

func (d *fakeDecoder) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resets++
}

func (d *fakeDecoder) DecodeFrame(window []byte, pcm []int16) (int, audio.FrameInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	info := audio.FrameInfo{Format: fakeFormat, FrameBytes: fakeFrameSize}
	if window[0] != fakeFrameMarker {
		d.failed++
		return 0, audio.FrameInfo{}, mp3.ErrNoFrame
	}
	if len(window) < fakeFrameSize {
		return 0, info, mp3.ErrIncompleteFrame
	}

	for i := range fakeFrameSamples * fakeFormat.Channels {
		pcm[i] = int16(window[1])
	}
	d.decoded++
	return fakeFrameSamples, info, nil
}

func (d *fakeDecoder) counts() (decoded, failed int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.decoded, d.failed
}

type fakeSink struct {
	mu      sync.Mutex
	opens   int
	formats []audio.Format
	frames  int
	writes  int
	stops   int
	err     error
}

func (s *fakeSink) Open(format audio.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	s.formats = append(s.formats, format)
	return nil
}

func (s *fakeSink) Write(pcm []int16, frames int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.err != nil {
		return 0, s.err
	}
	s.frames += frames
	return frames, nil
}

func (s *fakeSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	return nil
}

func (s *fakeSink) snapshot() (opens, frames, writes, stops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens, s.frames, s.writes, s.stops
}

type transitionRecorder struct {
	mu          sync.Mutex
	transitions []Transition
}

func (r *transitionRecorder) record(transition Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, transition)
}

func (r *transitionRecorder) has(from, to State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, transition := range r.transitions {
		if transition.From == from && transition.To == to {
			return true
		}
	}
	return false
}

func newTestPlayer(t *testing.T, sink *fakeSink, decoder *fakeDecoder, opts ...Option) *Player {
	t.Helper()

	opts = append([]Option{
		WithDecoder(decoder),
		WithPollInterval(time.Millisecond),
		WithWriteRetryInterval(time.Millisecond),
	}, opts...)
	player, err := New(sink, opts...)
	if err != nil {
		t.Fatalf("expected no error creating player, got %v", err)
	}
	return player
}

func runPlayer(t *testing.T, player *Player) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = player.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitFor(t *testing.T, what string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
