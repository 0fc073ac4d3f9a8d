package orchestration

import (
	"errors"
	"fmt"
)

var ErrUnsupportedWorkMode = errors.New("unsupported work mode")

// WorkMode selects how a conversation turn is opened and closed.
type WorkMode int

const (
	// ManualSingleTalk opens and closes every turn explicitly, e.g. with a
	// push-to-talk key.
	ManualSingleTalk WorkMode = iota + 1
	// VADFreeTalk keeps talking turns open and lets the user barge in on
	// replies.
	VADFreeTalk
	ASRWakeupSingleTalk
	ASRWakeupFreeTalk
)

var workModeNames = map[WorkMode]string{
	ManualSingleTalk:    "manual_single_talk",
	VADFreeTalk:         "vad_free_talk",
	ASRWakeupSingleTalk: "asr_wakeup_single_talk",
	ASRWakeupFreeTalk:   "asr_wakeup_free_talk",
}

func (m WorkMode) String() string {
	if name, ok := workModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(m))
}

// ParseWorkMode maps a mode name to its WorkMode.
func ParseWorkMode(name string) (WorkMode, error) {
	for mode, modeName := range workModeNames {
		if modeName == name {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedWorkMode, name)
}

// validate reports whether the mode can run without a local wake word
// engine.
func (m WorkMode) validate() error {
	switch m {
	case ManualSingleTalk, VADFreeTalk:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedWorkMode, m)
}

func (m WorkMode) interruptible() bool {
	return m == VADFreeTalk
}
