package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-link/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	interruptionCounter, _ = meter.Int64Counter("orchestrator.interruptions",
		metric.WithDescription("Replies cut short by a chat break or server VAD"))
	playbackErrorCounter, _ = meter.Int64Counter("orchestrator.playback.errors",
		metric.WithDescription("Reply audio that could not be handed to the player"))
)
