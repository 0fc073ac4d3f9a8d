package miniaudio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-link/core/audio"
)

const (
	periodSizeInFrames = 576
	periods            = 8
	// maxQueuedDuration bounds how far ahead of the device Write may run.
	maxQueuedDuration = 200 * time.Millisecond
	queuePollInterval = 5 * time.Millisecond
	// maxRecoveries is how many times a stopped device is restarted before
	// a write gives up.
	maxRecoveries = 2
)

var ErrNotOpen = errors.New("playback device not open")

type playbackClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	format       audio.Format
	maxQueued    int

	queue   []byte
	stopped bool
	starved bool

	mu      sync.Mutex
	audioMu sync.Mutex
}

// Open prepares the device for the given PCM format. Reopening with the
// format already in use keeps the running device.
func (c *playbackClient) Open(format audio.Format) error {
	if format.IsZero() {
		return fmt.Errorf("invalid playback format %+v", format)
	}
	if format.BitsPerSample != 16 {
		return fmt.Errorf("unsupported bit depth %d", format.BitsPerSample)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.audioContext == nil {
		return fmt.Errorf("audio context not initialized")
	}
	if c.device != nil && c.format == format {
		return nil
	}
	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(format.SampleRate)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = uint32(format.Channels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = periodSizeInFrames
	config.Periods = periods

	device, err := malgo.InitDevice(
		c.audioContext.Context,
		config,
		malgo.DeviceCallbacks{Data: c.processAudio(format.BytesPerFrame())},
	)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	c.device = device
	c.format = format
	c.maxQueued = int(maxQueuedDuration.Seconds()*float64(format.SampleRate)) * format.BytesPerFrame()
	c.ClearBuffer()
	logger.Info("playback device opened", "channels", format.Channels, "sample_rate", format.SampleRate)
	return nil
}

// Write queues frames interleaved samples for playback and blocks while the
// device is more than maxQueuedDuration behind. A stopped device is
// restarted before the write is retried.
func (c *playbackClient) Write(pcm []int16, frames int) (int, error) {
	c.mu.Lock()
	device, format := c.device, c.format
	c.mu.Unlock()
	if device == nil {
		return 0, ErrNotOpen
	}

	samples := min(frames*format.Channels, len(pcm))
	frames = samples / format.Channels
	if frames == 0 {
		return 0, nil
	}

	var err error
	for attempt := 0; ; attempt++ {
		if err = c.ensureStarted(); err == nil {
			break
		}
		if attempt >= maxRecoveries {
			return 0, fmt.Errorf("failed to recover playback device: %w", err)
		}
		logger.Warn("playback device not running, restarting", "attempt", attempt+1, "error", err)
	}

	data := make([]byte, 2*frames*format.Channels)
	for i, sample := range pcm[:frames*format.Channels] {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(sample))
	}

	for c.queued() > c.maxQueued {
		c.audioMu.Lock()
		stopped := c.stopped
		c.audioMu.Unlock()
		if stopped {
			return 0, nil
		}
		time.Sleep(queuePollInterval)
	}

	c.audioMu.Lock()
	c.queue = append(c.queue, data...)
	c.audioMu.Unlock()
	return frames, nil
}

func (c *playbackClient) ensureStarted() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return ErrNotOpen
	}
	if c.device.IsStarted() {
		return nil
	}

	c.audioMu.Lock()
	c.stopped = false
	c.audioMu.Unlock()
	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	return nil
}

// Stop halts the device and drops any queued audio.
func (c *playbackClient) Stop() error {
	c.audioMu.Lock()
	c.stopped = true
	c.audioMu.Unlock()

	c.mu.Lock()
	device := c.device
	c.mu.Unlock()

	if device != nil && device.IsStarted() {
		if err := device.Stop(); err != nil {
			return fmt.Errorf("failed to stop playback device: %w", err)
		}
	}

	c.ClearBuffer()
	return nil
}

func (c *playbackClient) ClearBuffer() {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.queue = nil
	c.starved = false
}

func (c *playbackClient) queued() int {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	return len(c.queue)
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	device := c.device
	c.device = nil
	c.mu.Unlock()

	if device == nil {
		return fmt.Errorf("device not initialized")
	}

	device.Uninit()
	return nil
}

func (c *playbackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := min(int(frameCount)*bytesPerFrame, len(pOutput))

		c.audioMu.Lock()
		n := copy(pOutput[:need], c.queue)
		c.queue = c.queue[n:]
		wasStarved := c.starved
		c.starved = n < need
		c.audioMu.Unlock()

		if n < need {
			clear(pOutput[n:need])
			// Only the transition into starvation is an underrun; an idle
			// device stays starved between responses.
			if n > 0 && !wasStarved {
				underrunCounter.Add(context.Background(), 1)
			}
		}
	}
}
