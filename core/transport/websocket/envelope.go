package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/koscakluka/ema-link/core/transport"
)

const envelopeTypeEvent = "event"

// envelope is a JSON text frame on the stream.
type envelope struct {
	Type       string          `json:"type"`
	Event      string          `json:"event,omitempty"`
	SessionID  string          `json:"sessionId,omitempty"`
	EventID    string          `json:"eventId,omitempty"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

type wireAttribute struct {
	ID    uint16 `json:"id"`
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

func marshalAttributes(attrs []transport.Attribute) (json.RawMessage, error) {
	if len(attrs) == 0 {
		return nil, nil
	}

	wire := make([]wireAttribute, 0, len(attrs))
	for _, attr := range attrs {
		w := wireAttribute{ID: attr.ID, Kind: attr.Kind.String(), Value: attr.Int}
		if attr.Kind == transport.AttributeString {
			w.Value = attr.Value
		}
		wire = append(wire, w)
	}

	b, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attributes: %w", err)
	}
	return b, nil
}

type sessionRequest struct {
	BizCode         uint32                `json:"bizCode"`
	SendChannels    []transport.ChannelID `json:"sendChannels"`
	ReceiveChannels []transport.ChannelID `json:"receiveChannels"`
	Attributes      json.RawMessage       `json:"attributes,omitempty"`
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
}
