package websocket

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-link/core/transport/websocket"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	droppedFrameCounter, _ = meter.Int64Counter("transport.frames.dropped",
		metric.WithDescription("Incoming stream frames that could not be delivered"))
	sentPacketCounter, _ = meter.Int64Counter("transport.packets.sent",
		metric.WithDescription("Packets written to the stream"))
)
