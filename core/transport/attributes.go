package transport

import "fmt"

// Attribute ids used when opening sessions and events.
const (
	AttrClientType       uint16 = 1003
	AttrTTSOrderSupports uint16 = 1004
	// AttrEventOptions shares its id with AttrClientType; the two live in
	// different scopes (session vs event).
	AttrEventOptions uint16 = 1003
	AttrEventChannel uint16 = 1002
)

// ClientTypeDevice identifies a hardware client.
const ClientTypeDevice uint8 = 2

type AttributeKind uint8

const (
	AttributeUint8 AttributeKind = iota + 1
	AttributeUint16
	AttributeUint32
	AttributeString
)

func (k AttributeKind) String() string {
	switch k {
	case AttributeUint8:
		return "u8"
	case AttributeUint16:
		return "u16"
	case AttributeUint32:
		return "u32"
	case AttributeString:
		return "str"
	}
	return "unknown"
}

// Attribute is a typed key/value pair attached to sessions and events.
type Attribute struct {
	ID    uint16
	Kind  AttributeKind
	Int   uint32
	Value string
}

func Uint8Attribute(id uint16, v uint8) Attribute {
	return Attribute{ID: id, Kind: AttributeUint8, Int: uint32(v)}
}

func Uint16Attribute(id uint16, v uint16) Attribute {
	return Attribute{ID: id, Kind: AttributeUint16, Int: uint32(v)}
}

func Uint32Attribute(id uint16, v uint32) Attribute {
	return Attribute{ID: id, Kind: AttributeUint32, Int: v}
}

func StringAttribute(id uint16, v string) Attribute {
	return Attribute{ID: id, Kind: AttributeString, Value: v}
}

func (a Attribute) String() string {
	if a.Kind == AttributeString {
		return fmt.Sprintf("%d:%s=%q", a.ID, a.Kind, a.Value)
	}
	return fmt.Sprintf("%d:%s=%d", a.ID, a.Kind, a.Int)
}

// FindAttribute returns the first attribute with the given id.
func FindAttribute(attrs []Attribute, id uint16) (Attribute, bool) {
	for _, attr := range attrs {
		if attr.ID == id {
			return attr, true
		}
	}
	return Attribute{}, false
}
