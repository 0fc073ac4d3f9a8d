package websocket

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-link/core/audio"
	"github.com/koscakluka/ema-link/core/transport"
)

const (
	frameVersion    = 1
	packetHeaderLen = 20
)

var (
	ErrShortFrame         = errors.New("stream frame shorter than its header")
	ErrUnsupportedVersion = errors.New("unsupported stream frame version")
	ErrUnknownCodec       = errors.New("unknown audio codec")
)

var codecIDs = map[audio.Codec]uint8{
	audio.CodecPCM:  1,
	audio.CodecMP3:  2,
	audio.CodecOpus: 3,
	audio.CodecWAV:  4,
}

func codecID(codec audio.Codec) (uint8, error) {
	if codec == "" {
		return 0, nil
	}
	id, ok := codecIDs[codec]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCodec, codec)
	}
	return id, nil
}

func codecFromID(id uint8) (audio.Codec, error) {
	if id == 0 {
		return "", nil
	}
	for codec, codecID := range codecIDs {
		if codecID == id {
			return codec, nil
		}
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownCodec, id)
}

// encodePacket lays out a packet as a binary stream frame:
//
//	0      version
//	1      packet type
//	2..3   channel
//	4      stream flag
//	5      codec
//	6      channels
//	7      bits per sample
//	8..11  sample rate
//	12..19 timestamp
//
// followed by the payload. Multi-byte fields are big endian.
func encodePacket(channel transport.ChannelID, attr *transport.PacketAttr, head *transport.PacketHead, payload []byte) ([]byte, error) {
	codec, err := codecID(attr.Audio.Codec)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, packetHeaderLen, packetHeaderLen+len(payload))
	frame[0] = frameVersion
	frame[1] = uint8(attr.Type)
	binary.BigEndian.PutUint16(frame[2:4], uint16(channel))
	frame[4] = uint8(head.Flag)
	frame[5] = codec
	frame[6] = uint8(attr.Audio.Channels)
	frame[7] = uint8(attr.Audio.BitsPerSample)
	binary.BigEndian.PutUint32(frame[8:12], uint32(attr.Audio.SampleRate))
	binary.BigEndian.PutUint64(frame[12:20], head.Timestamp)
	return append(frame, payload...), nil
}

// decodePacket is the inverse of encodePacket. The returned payload aliases
// frame.
func decodePacket(frame []byte) (transport.ChannelID, *transport.PacketAttr, *transport.PacketHead, []byte, error) {
	if len(frame) < packetHeaderLen {
		return 0, nil, nil, nil, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(frame))
	}
	if frame[0] != frameVersion {
		return 0, nil, nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, frame[0])
	}
	codec, err := codecFromID(frame[5])
	if err != nil {
		return 0, nil, nil, nil, err
	}

	channel := transport.ChannelID(binary.BigEndian.Uint16(frame[2:4]))
	attr := &transport.PacketAttr{
		Type: transport.PacketType(frame[1]),
		Audio: transport.AudioAttr{
			Codec: codec,
			Format: audio.Format{
				Channels:      int(frame[6]),
				BitsPerSample: int(frame[7]),
				SampleRate:    int(binary.BigEndian.Uint32(frame[8:12])),
			},
		},
	}
	payload := frame[packetHeaderLen:]
	head := &transport.PacketHead{
		Flag:      transport.StreamFlag(frame[4]),
		Length:    len(payload),
		Timestamp: binary.BigEndian.Uint64(frame[12:20]),
	}
	return channel, attr, head, payload, nil
}
