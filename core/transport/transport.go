// Package transport defines the contract between the agent session and the
// network layer that carries it.
package transport

import (
	"context"

	"github.com/koscakluka/ema-link/core/audio"
	"github.com/koscakluka/ema-link/core/events"
)

type ChannelID uint16

const (
	UplinkAudio ChannelID = 1
	UplinkVideo ChannelID = 3
	UplinkText  ChannelID = 5
	UplinkImage ChannelID = 7

	DownlinkAudio ChannelID = 2
	DownlinkText  ChannelID = 4
)

// BizCodeChat selects the interruptible chat business on the agent side.
const BizCodeChat uint32 = 0x00010001

// StreamFlag marks a packet's position inside a multi-packet stream.
type StreamFlag uint8

const (
	StreamStart StreamFlag = iota
	StreamIng
	StreamEnd
	// StreamOneShot carries a complete stream in a single packet.
	StreamOneShot
)

func (f StreamFlag) String() string {
	switch f {
	case StreamStart:
		return "start"
	case StreamIng:
		return "ing"
	case StreamEnd:
		return "end"
	case StreamOneShot:
		return "one_shot"
	}
	return "unknown"
}

type PacketType uint8

const (
	PacketAudio PacketType = iota + 1
	PacketVideo
	PacketText
	PacketImage
)

// PacketHead travels with every packet.
type PacketHead struct {
	Flag      StreamFlag
	Length    int
	Timestamp uint64
}

// PacketAttr describes the payload of a packet. Audio is only meaningful for
// PacketAudio.
type PacketAttr struct {
	Type  PacketType
	Audio AudioAttr
}

type AudioAttr struct {
	Codec audio.Codec
	audio.Format
}

// CloseReason is reported to the agent when a session ends.
type CloseReason int

const (
	CloseReasonOK CloseReason = iota
	CloseReasonDeviceOffline
	CloseReasonError
)

// PacketHandler receives downlink packets for one channel. The payload is
// only valid for the duration of the call.
type PacketHandler func(attr *PacketAttr, head *PacketHead, payload []byte) error

// Event is a lifecycle signal received from the agent.
type Event struct {
	Type      events.EventType
	SessionID string
	EventID   string
	Attrs     []byte
}

// EventHandler receives lifecycle signals for a session.
type EventHandler func(event Event) error

// SessionConfig is everything needed to open an agent session.
type SessionConfig struct {
	BizCode    uint32
	Attributes []Attribute
	// SendChannels are the uplink channels the device will use.
	SendChannels []ChannelID
	// Receivers maps downlink channels to their handlers.
	Receivers map[ChannelID]PacketHandler
	OnEvent   EventHandler
}

// Transport is the network collaborator of the agent session. Downlink
// packets and events for a session must be delivered from a single
// goroutine, in order.
type Transport interface {
	OpenSession(ctx context.Context, config SessionConfig) (string, error)
	CloseSession(ctx context.Context, sessionID string, reason CloseReason) error

	StartEvent(ctx context.Context, sessionID, eventID string, attrs []Attribute) error
	EndEventPayloads(ctx context.Context, sessionID, eventID string, attrs []Attribute) error
	EndEvent(ctx context.Context, sessionID, eventID string, attrs []Attribute) error

	SendPacket(ctx context.Context, channel ChannelID, attr *PacketAttr, head *PacketHead, payload []byte) error
}
