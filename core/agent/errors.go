package agent

import "errors"

var (
	ErrMalformedPacket  = errors.New("malformed downlink packet")
	ErrNoHandler        = errors.New("no message handler registered")
	ErrUnknownEvent     = errors.New("unknown session event")
	ErrOffline          = errors.New("agent session not online")
	ErrUploadInProgress = errors.New("an upload is already open")
	ErrNoUpload         = errors.New("no upload open")
)
