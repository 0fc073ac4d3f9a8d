package agent

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-link/core/agent"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	ignoredEventCounter, _ = meter.Int64Counter("agent.events.ignored",
		metric.WithDescription("Interruptions ignored because they referenced a stale stream"))
	malformedPacketCounter, _ = meter.Int64Counter("agent.packets.malformed",
		metric.WithDescription("Downlink packets rejected as malformed"))
)
