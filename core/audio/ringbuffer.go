package audio

import (
	"errors"
	"sync"
)

// OverflowPolicy decides what happens to bytes that do not fit.
type OverflowPolicy int

const (
	// OverflowStop rejects bytes that do not fit; Write reports a short count.
	OverflowStop OverflowPolicy = iota
	// OverflowCoverage overwrites the oldest bytes so the newest always fit.
	OverflowCoverage
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowStop:
		return "stop"
	case OverflowCoverage:
		return "coverage"
	}
	return "unknown"
}

var ErrInvalidCapacity = errors.New("ring buffer capacity must be positive")

// RingBuffer is a fixed-capacity byte FIFO. All methods are safe for
// concurrent use; the internal lock is only held for the duration of a copy.
//
// Used()+Free() always equals Capacity().
type RingBuffer struct {
	data    []byte
	policy  OverflowPolicy
	readPos int
	size    int
	mu      sync.Mutex
}

func NewRingBuffer(capacity int, policy OverflowPolicy) (*RingBuffer, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	return &RingBuffer{
		data:   make([]byte, capacity),
		policy: policy,
	}, nil
}

// Write appends p and returns how many bytes were accepted. Under
// OverflowStop this is at most Free(); under OverflowCoverage it is always
// len(p), though only the newest Capacity() bytes are retained.
func (rb *RingBuffer) Write(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	capacity := len(rb.data)
	n := len(p)
	if n == 0 {
		return 0
	}

	switch rb.policy {
	case OverflowCoverage:
		if n >= capacity {
			copy(rb.data, p[n-capacity:])
			rb.readPos = 0
			rb.size = capacity
			return n
		}
		if overflow := rb.size + n - capacity; overflow > 0 {
			rb.readPos = (rb.readPos + overflow) % capacity
			rb.size -= overflow
		}
	default:
		if free := capacity - rb.size; n > free {
			n = free
		}
		if n == 0 {
			return 0
		}
	}

	writePos := (rb.readPos + rb.size) % capacity
	copied := copy(rb.data[writePos:], p[:n])
	if copied < n {
		copy(rb.data, p[copied:n])
	}
	rb.size += n

	if rb.policy == OverflowCoverage {
		return len(p)
	}
	return n
}

// Read moves up to len(p) of the oldest bytes into p.
func (rb *RingBuffer) Read(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := min(len(p), rb.size)
	if n == 0 {
		return 0
	}

	copied := copy(p[:n], rb.data[rb.readPos:])
	if copied < n {
		copy(p[copied:n], rb.data)
	}
	rb.readPos = (rb.readPos + n) % len(rb.data)
	rb.size -= n
	if rb.size == 0 {
		rb.readPos = 0
	}

	return n
}

func (rb *RingBuffer) Used() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size
}

func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.data) - rb.size
}

func (rb *RingBuffer) Capacity() int {
	return len(rb.data)
}

func (rb *RingBuffer) Policy() OverflowPolicy {
	return rb.policy
}

// Reset discards all buffered bytes.
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.readPos = 0
	rb.size = 0
}
