package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/koscakluka/ema-link/core/audio"
)

const (
	// OutputChannels is fixed: the underlying decoder always renders stereo.
	OutputChannels = 2
	// MaxPCMSamples is the interleaved sample count of the largest frame.
	MaxPCMSamples = MaxSamplesPerFrame * OutputChannels

	bytesPerOutputFrame = OutputChannels * 2
)

var (
	// ErrNoFrame means the window holds no recognizable frame header.
	ErrNoFrame = errors.New("no mp3 frame found")
	// ErrIncompleteFrame means a header was found but the frame is truncated,
	// or the window ends partway through a header.
	ErrIncompleteFrame = errors.New("incomplete mp3 frame")
	// ErrPCMBufferTooSmall means the caller's PCM buffer cannot hold a frame.
	ErrPCMBufferTooSmall = errors.New("pcm buffer too small for frame")
)

// Decoder decodes one Layer III frame per call. Frames are handed to a
// persistent streaming decoder, so the bit reservoir carries across calls
// exactly as it would for a contiguous stream.
// MPEG-2.5 (8, 11.025 and 12 kHz) frames are not supported and are
// skipped like junk.
type Decoder struct {
	feed    frameFeed
	stream  *gomp3.Decoder
	scratch []byte
}

func NewDecoder() *Decoder {
	return &Decoder{scratch: make([]byte, MaxSamplesPerFrame*bytesPerOutputFrame)}
}

// Reset drops decoder state so the next frame starts a new stream.
func (d *Decoder) Reset() {
	d.feed.Reset()
	d.stream = nil
}

// DecodeFrame decodes the first complete frame in window into pcm as
// interleaved 16-bit samples and returns the per-channel sample count.
// A zero count is always accompanied by an error.
func (d *Decoder) DecodeFrame(window []byte, pcm []int16) (int, audio.FrameInfo, error) {
	offset, header, ok := findFrame(window)
	if !ok {
		if trailingHeader(window) >= 0 {
			return 0, audio.FrameInfo{}, ErrIncompleteFrame
		}
		return 0, audio.FrameInfo{}, ErrNoFrame
	}

	frameSize := header.FrameSize()
	info := audio.FrameInfo{
		Format: audio.Format{
			Channels:      OutputChannels,
			SampleRate:    header.SampleRate,
			BitsPerSample: 16,
		},
		FrameBytes:  offset + frameSize,
		BitrateKbps: header.BitrateKbps,
	}
	if offset+frameSize > len(window) {
		return 0, info, ErrIncompleteFrame
	}
	if len(pcm) < header.SamplesPerFrame()*OutputChannels {
		return 0, info, ErrPCMBufferTooSmall
	}

	d.feed.Write(window[offset : offset+frameSize])

	if d.stream == nil {
		stream, err := gomp3.NewDecoder(&d.feed)
		if err != nil {
			d.Reset()
			return 0, info, fmt.Errorf("failed to start mp3 stream: %w", err)
		}
		d.stream = stream
	}

	// The streaming decoder only pulls a new frame once its previous output
	// is drained, so a single read yields exactly the frame just fed.
	n, err := d.stream.Read(d.scratch)
	if err != nil && !errors.Is(err, io.EOF) {
		d.Reset()
		return 0, info, fmt.Errorf("failed to decode mp3 frame: %w", err)
	}
	if n == 0 {
		d.Reset()
		return 0, info, fmt.Errorf("failed to decode mp3 frame: %w", io.ErrUnexpectedEOF)
	}

	samples := n / bytesPerOutputFrame
	for i := range samples * OutputChannels {
		pcm[i] = int16(binary.LittleEndian.Uint16(d.scratch[2*i:]))
	}

	return samples, info, nil
}

// frameFeed is the reader behind the streaming decoder. It reports io.EOF
// whenever it runs dry instead of blocking.
type frameFeed struct {
	bytes.Buffer
}
