package player

import (
	"context"
	"errors"

	"github.com/koscakluka/ema-link/core/audio/mp3"
)

type cycleResult int

const (
	cycleNeedData cycleResult = iota
	cycleFailed
	cycleDecoded
)

// decodeCycle tops up the decode window from the buffer, decodes one frame
// and renders it. Called with p.mu held.
func (p *Player) decodeCycle() cycleResult {
	if p.rawHead > 0 && p.rawUsed > 0 {
		copy(p.raw, p.raw[p.rawHead:p.rawHead+p.rawUsed])
	}
	p.rawHead = 0

	if p.rawUsed < len(p.raw) {
		p.rawUsed += p.buffer.Read(p.raw[p.rawUsed:])
	}
	if p.rawUsed == 0 {
		return cycleNeedData
	}

	samples, info, err := p.decoder.DecodeFrame(p.raw[:p.rawUsed], p.pcm)
	if samples == 0 {
		// A frame cut off by the end of what has arrived so far is retried
		// once more data is appended behind it.
		if errors.Is(err, mp3.ErrIncompleteFrame) && p.rawUsed < len(p.raw) && !(p.eof && p.buffer.Used() == 0) {
			return cycleNeedData
		}

		decodeErrorCounter.Add(context.Background(), 1)
		logger.Debug("failed to decode frame, dropping window", "bytes", p.rawUsed, "error", err)
		p.rawUsed = 0
		return cycleFailed
	}

	consumed := min(max(info.FrameBytes, 0), p.rawUsed)
	p.rawHead += consumed
	p.rawUsed -= consumed

	if !p.sinkReady || p.sinkFormat != info.Format {
		if err := p.sink.Open(info.Format); err != nil {
			sinkErrorCounter.Add(context.Background(), 1)
			logger.Error("failed to open output sink", "format", info.Format, "error", err)
			return cycleDecoded
		}
		p.sinkReady = true
		p.sinkFormat = info.Format
		logger.Debug("output sink opened", "channels", info.Channels, "sample_rate", info.SampleRate)
	}

	samplesToWrite := min(samples*info.Channels, len(p.pcm))
	if _, err := p.sink.Write(p.pcm[:samplesToWrite], samples); err != nil {
		sinkErrorCounter.Add(context.Background(), 1)
		logger.Error("failed to write to output sink, dropping frame", "error", err)
		return cycleDecoded
	}

	decodedFrameCounter.Add(context.Background(), 1)
	return cycleDecoded
}
