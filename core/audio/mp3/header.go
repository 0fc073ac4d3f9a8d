package mp3

import (
	"errors"
	"fmt"
)

type Version int

const (
	Version2_5 Version = iota
	versionReserved
	Version2
	Version1
)

func (v Version) String() string {
	switch v {
	case Version1:
		return "MPEG-1"
	case Version2:
		return "MPEG-2"
	case Version2_5:
		return "MPEG-2.5"
	}
	return "reserved"
}

type ChannelMode int

const (
	ChannelModeStereo ChannelMode = iota
	ChannelModeJointStereo
	ChannelModeDualChannel
	ChannelModeMono
)

const (
	HeaderSize = 4
	// MaxFrameSize bounds a Layer III frame: 320 kbps at 32 kHz with padding.
	MaxFrameSize = 1441
	// MaxSamplesPerFrame is per channel.
	MaxSamplesPerFrame = 1152
)

var (
	ErrNotLayer3     = errors.New("not an MPEG Layer III header")
	ErrInvalidHeader = errors.New("invalid MPEG audio frame header")
)

var bitratesKbps = map[Version][16]int{
	Version1: {0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, -1},
	Version2: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, -1},
}

var sampleRates = map[Version][3]int{
	Version1:   {44100, 48000, 32000},
	Version2:   {22050, 24000, 16000},
	Version2_5: {11025, 12000, 8000},
}

// Header is a parsed MPEG audio Layer III frame header.
type Header struct {
	Version     Version
	Protected   bool
	BitrateKbps int
	SampleRate  int
	Padding     bool
	ChannelMode ChannelMode
}

// ParseHeader parses the four header bytes at the start of b. Free-format
// bitrates are rejected because their frame length cannot be derived from
// the header alone.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrInvalidHeader
	}
	if b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return Header{}, ErrInvalidHeader
	}

	version := Version((b[1] >> 3) & 0x03)
	if version == versionReserved {
		return Header{}, fmt.Errorf("%w: reserved version", ErrInvalidHeader)
	}
	if layer := (b[1] >> 1) & 0x03; layer != 0x01 {
		return Header{}, ErrNotLayer3
	}

	bitrateIndex := (b[2] >> 4) & 0x0F
	rateTable := Version2
	if version == Version1 {
		rateTable = Version1
	}
	bitrate := bitratesKbps[rateTable][bitrateIndex]
	if bitrate <= 0 {
		return Header{}, fmt.Errorf("%w: bitrate index %d", ErrInvalidHeader, bitrateIndex)
	}

	sampleRateIndex := (b[2] >> 2) & 0x03
	if sampleRateIndex == 0x03 {
		return Header{}, fmt.Errorf("%w: reserved sample rate", ErrInvalidHeader)
	}

	return Header{
		Version:     version,
		Protected:   b[1]&0x01 == 0,
		BitrateKbps: bitrate,
		SampleRate:  sampleRates[version][sampleRateIndex],
		Padding:     (b[2]>>1)&0x01 == 1,
		ChannelMode: ChannelMode((b[3] >> 6) & 0x03),
	}, nil
}

// FrameSize is the length of the whole frame in bytes, header included.
func (h Header) FrameSize() int {
	coefficient := 144
	if h.Version != Version1 {
		coefficient = 72
	}
	size := coefficient * h.BitrateKbps * 1000 / h.SampleRate
	if h.Padding {
		size++
	}
	return size
}

// SamplesPerFrame is per channel.
func (h Header) SamplesPerFrame() int {
	if h.Version == Version1 {
		return 1152
	}
	return 576
}

func (h Header) Channels() int {
	if h.ChannelMode == ChannelModeMono {
		return 1
	}
	return 2
}

// findFrame returns the offset of the first decodable header in window.
// MPEG-2.5 headers are skipped: the stream decoder cannot render them.
func findFrame(window []byte) (int, Header, bool) {
	for i := 0; i+HeaderSize <= len(window); i++ {
		if window[i] != 0xFF {
			continue
		}
		if header, err := ParseHeader(window[i:]); err == nil && header.Version != Version2_5 {
			return i, header, true
		}
	}
	return 0, Header{}, false
}

// trailingHeader returns the offset of a header cut off by the end of
// window, or -1 when the last HeaderSize-1 bytes cannot start one.
func trailingHeader(window []byte) int {
	for i := max(len(window)-(HeaderSize-1), 0); i < len(window); i++ {
		if window[i] == 0xFF && headerPrefix(window[i:]) {
			return i
		}
	}
	return -1
}

// headerPrefix reports whether b, shorter than a header, agrees with a
// decodable Layer III header as far as it goes.
func headerPrefix(b []byte) bool {
	if len(b) >= 2 {
		if b[1]&0xE0 != 0xE0 {
			return false
		}
		if version := Version((b[1] >> 3) & 0x03); version == versionReserved || version == Version2_5 {
			return false
		}
		if (b[1]>>1)&0x03 != 0x01 {
			return false
		}
	}
	if len(b) >= 3 {
		if bitrateIndex := (b[2] >> 4) & 0x0F; bitrateIndex == 0 || bitrateIndex == 0x0F {
			return false
		}
		if (b[2]>>2)&0x03 == 0x03 {
			return false
		}
	}
	return true
}
