package agent

import (
	"time"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-link/core/transport"
)

type options struct {
	bizCode    uint32
	ttsFormats []TTSFormat
	newEventID func() string
	now        func() time.Time
}

func defaultOptions() options {
	return options{
		bizCode:    transport.BizCodeChat,
		ttsFormats: []TTSFormat{DefaultTTSFormat()},
		newEventID: uuid.NewString,
		now:        time.Now,
	}
}

type Option func(*options)

func WithBizCode(code uint32) Option {
	return func(o *options) { o.bizCode = code }
}

// WithTTSFormats replaces the reply audio formats offered to the agent, in
// order of preference.
func WithTTSFormats(formats ...TTSFormat) Option {
	return func(o *options) { o.ttsFormats = formats }
}

// WithEventIDGenerator replaces the generator of upload event ids.
func WithEventIDGenerator(generator func() string) Option {
	return func(o *options) { o.newEventID = generator }
}

// WithClock replaces the clock used for packet timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}
