package player

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-link/core/player"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	decodedFrameCounter, _ = meter.Int64Counter("player.frames.decoded",
		metric.WithDescription("Frames decoded and handed to the output sink"))
	decodeErrorCounter, _ = meter.Int64Counter("player.decode.errors",
		metric.WithDescription("Decode attempts that produced no samples"))
	stallTimeoutCounter, _ = meter.Int64Counter("player.stall.timeouts",
		metric.WithDescription("Playbacks finished because no audio arrived in time"))
	sinkErrorCounter, _ = meter.Int64Counter("player.sink.errors",
		metric.WithDescription("Output sink open or write failures"))
)
