package player

import (
	"context"
	"time"
)

// step runs one iteration of the state machine and returns how long the
// loop should sleep before the next one.
func (p *Player) step() time.Duration {
	p.mu.Lock()
	defer p.unlock()

	switch p.state {
	case StateIdle:
		p.disarmStall()
		p.eof = false

	case StateStart:
		p.decoder.Reset()
		p.rawHead, p.rawUsed = 0, 0
		p.sinkReady = false
		p.setState(StatePlay)
		return 0

	case StatePlay:
		result := p.decodeCycle()
		switch result {
		case cycleNeedData:
			p.armStall()
		case cycleDecoded:
			p.disarmStall()
		}

		if p.buffer.Used() == 0 && p.rawUsed == 0 && p.eof {
			logger.Debug("playback drained", "id", p.id)
			p.setState(StateFinish)
			return p.options.pollInterval
		}
		if result == cycleDecoded {
			// the sink paces a flowing stream
			return 0
		}

	case StateFinish:
		p.disarmStall()
		p.playing = false
		p.eof = false
		p.setState(StateIdle)

	case StatePause:
	}

	return p.options.pollInterval
}

// armStall starts the stall timer unless it is already running. Each arm
// gets a new generation so a late expiry from an older arm is ignored.
func (p *Player) armStall() {
	if p.stallTimer != nil {
		return
	}

	p.stallGeneration++
	generation := p.stallGeneration
	p.stallTimer = time.AfterFunc(p.options.stallTimeout, func() { p.onStall(generation) })
}

func (p *Player) disarmStall() {
	if p.stallTimer == nil {
		return
	}

	p.stallTimer.Stop()
	p.stallTimer = nil
	p.stallGeneration++
}

func (p *Player) onStall(generation uint64) {
	p.mu.Lock()
	defer p.unlock()
	if generation != p.stallGeneration || p.state != StatePlay {
		return
	}

	p.stallTimer = nil
	stallTimeoutCounter.Add(context.Background(), 1)
	logger.Warn("no audio received in time, finishing playback", "id", p.id, "timeout", p.options.stallTimeout)
	p.setState(StateFinish)
}
