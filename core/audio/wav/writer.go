// Package wav dumps captured PCM to disk for diagnostics.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/koscakluka/ema-link/core/audio"
)

var ErrClosed = errors.New("wav writer closed")

// Writer streams 16-bit little-endian PCM into a WAV file. The header is
// finalized on Close.
type Writer struct {
	file    *os.File
	encoder *gowav.Encoder
	format  audio.Format
	buffer  *goaudio.IntBuffer

	mu     sync.Mutex
	closed bool
}

func Create(path string, format audio.Format) (*Writer, error) {
	if format.IsZero() || format.BitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported wav format %+v", format)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create wav file: %w", err)
	}

	const pcmFormat = 1
	return &Writer{
		file:    file,
		encoder: gowav.NewEncoder(file, format.SampleRate, format.BitsPerSample, format.Channels, pcmFormat),
		format:  format,
		buffer: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
			SourceBitDepth: format.BitsPerSample,
		},
	}, nil
}

// Write appends raw little-endian PCM bytes. A trailing odd byte is dropped.
func (w *Writer) Write(pcm []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, ErrClosed
	}

	samples := len(pcm) / 2
	data := w.buffer.Data[:0]
	for i := range samples {
		data = append(data, int(int16(binary.LittleEndian.Uint16(pcm[2*i:]))))
	}
	w.buffer.Data = data

	if err := w.encoder.Write(w.buffer); err != nil {
		return 0, fmt.Errorf("failed to write wav samples: %w", err)
	}
	return samples * 2, nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	return errors.Join(w.encoder.Close(), w.file.Close())
}
