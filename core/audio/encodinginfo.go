package audio

const (
	DefaultSampleRate    = 16000
	DefaultChannels      = 1
	DefaultBitsPerSample = 16
)

// DefaultUplinkFormat is the capture format sent to the agent: 16 kHz mono
// 16-bit little-endian PCM.
func DefaultUplinkFormat() Format {
	return Format{
		Channels:      DefaultChannels,
		SampleRate:    DefaultSampleRate,
		BitsPerSample: DefaultBitsPerSample,
	}
}

// Format describes interleaved PCM audio.
type Format struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

func (f Format) IsZero() bool {
	return f.Channels == 0 || f.SampleRate == 0 || f.BitsPerSample == 0
}

// BytesPerFrame is the size of one sample across all channels.
func (f Format) BytesPerFrame() int {
	return f.Channels * f.BitsPerSample / 8
}

// FrameInfo describes a single decoded compressed frame.
type FrameInfo struct {
	Format
	// FrameBytes is the number of input bytes consumed, including any junk
	// skipped before the frame header.
	FrameBytes  int
	BitrateKbps int
}

type Codec string

func (c Codec) Name() string {
	return string(c)
}

const (
	CodecPCM  Codec = "pcm"
	CodecMP3  Codec = "mp3"
	CodecOpus Codec = "opus"
	CodecWAV  Codec = "wav"
)
