package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/koscakluka/ema-link/core/audio"
	"github.com/koscakluka/ema-link/core/audio/wav"
)

// uploadRecorder keeps a WAV copy of every upload in dir. A recorder with
// an empty dir does nothing.
type uploadRecorder struct {
	dir    string
	format audio.Format
	now    func() time.Time

	mu     sync.Mutex
	writer *wav.Writer
	path   string
}

func newUploadRecorder(dir string, format audio.Format) *uploadRecorder {
	return &uploadRecorder{dir: dir, format: format, now: time.Now}
}

func (r *uploadRecorder) start() error {
	if r.dir == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writer != nil {
		_ = r.writer.Close()
		r.writer = nil
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create record dir: %w", err)
	}
	path := filepath.Join(r.dir, "upload-"+r.now().Format("20060102-150405.000")+".wav")
	writer, err := wav.Create(path, r.format)
	if err != nil {
		return err
	}
	r.writer = writer
	r.path = path
	return nil
}

func (r *uploadRecorder) write(pcm []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writer == nil {
		return
	}
	if _, err := r.writer.Write(pcm); err != nil && !errors.Is(err, wav.ErrClosed) {
		slog.Warn("failed to record upload audio", "path", r.path, "error", err)
	}
}

// stop finalizes the current recording and returns its path.
func (r *uploadRecorder) stop() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writer == nil {
		return "", nil
	}
	err := r.writer.Close()
	r.writer = nil
	return r.path, err
}
