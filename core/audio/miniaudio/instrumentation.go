package miniaudio

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-link/core/audio/miniaudio"

var (
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var underrunCounter, _ = meter.Int64Counter("audio.sink.underruns",
	metric.WithDescription("Playback device callbacks that ran out of queued audio"))
