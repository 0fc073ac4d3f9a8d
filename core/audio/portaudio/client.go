package portaudio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-link/core/audio"
)

// maxRecoveries is how many times a stopped stream is restarted before a
// write gives up.
const maxRecoveries = 2

var ErrNotOpen = errors.New("output stream not open")

// Client is a blocking PortAudio output sink. Writes are chunked into
// fixed-size stream buffers; a trailing partial buffer is kept for the next
// write.
type Client struct {
	framesPerBuffer int
	stream          *portaudio.Stream
	format          audio.Format

	out      []int16
	leftover []int16

	mu sync.Mutex
}

func NewClient(framesPerBuffer int) (*Client, error) {
	if framesPerBuffer <= 0 {
		return nil, fmt.Errorf("invalid buffer size %d", framesPerBuffer)
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	return &Client{framesPerBuffer: framesPerBuffer}, nil
}

func (c *Client) Open(format audio.Format) error {
	if format.IsZero() || format.BitsPerSample != 16 {
		return fmt.Errorf("unsupported output format %+v", format)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil && c.format == format {
		return nil
	}
	if c.stream != nil {
		_ = c.stream.Close()
		c.stream = nil
	}

	out := make([]int16, c.framesPerBuffer*format.Channels)
	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), c.framesPerBuffer, out)
	if err != nil {
		return fmt.Errorf("failed to open PortAudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("failed to start PortAudio stream: %w", err)
	}

	c.stream = stream
	c.format = format
	c.out = out
	c.leftover = nil
	logger.Info("output stream opened", "channels", format.Channels, "sample_rate", format.SampleRate)
	return nil
}

// Write blocks until all complete stream buffers have been handed to
// PortAudio.
func (c *Client) Write(pcm []int16, frames int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return 0, ErrNotOpen
	}

	samples := min(frames*c.format.Channels, len(pcm))
	frames = samples / c.format.Channels
	samples = frames * c.format.Channels

	pending := append(c.leftover, pcm[:samples]...)
	for len(pending) >= len(c.out) {
		copy(c.out, pending[:len(c.out)])
		if err := c.writeBuffer(); err != nil {
			c.leftover = nil
			return 0, err
		}
		pending = pending[len(c.out):]
	}
	c.leftover = append(c.leftover[:0:0], pending...)

	return frames, nil
}

func (c *Client) writeBuffer() error {
	for attempt := 0; ; attempt++ {
		err := c.stream.Write()
		switch {
		case err == nil:
			return nil
		case errors.Is(err, portaudio.OutputUnderflowed):
			// The buffer was still written; only the gap before it is lost.
			underrunCounter.Add(context.Background(), 1)
			return nil
		case errors.Is(err, portaudio.StreamIsStopped) && attempt < maxRecoveries:
			logger.Warn("output stream stopped, restarting", "attempt", attempt+1)
			if startErr := c.stream.Start(); startErr != nil {
				logger.Warn("failed to restart output stream", "error", startErr)
			}
		default:
			return fmt.Errorf("failed to write to PortAudio stream: %w", err)
		}
	}
}

// Stop halts the stream and drops the partial buffer.
func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leftover = nil
	if c.stream == nil {
		return nil
	}

	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop PortAudio stream: %w", err)
	}
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		_ = c.stream.Close()
		c.stream = nil
	}
	_ = portaudio.Terminate()
}
