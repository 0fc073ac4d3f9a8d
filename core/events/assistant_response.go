package events

const (
	// KindAssistantResponseStarted identifies the start of a reply text stream.
	KindAssistantResponseStarted Kind = "assistant_response.started"
	// KindAssistantResponseSegment identifies streamed assistant response text.
	KindAssistantResponseSegment Kind = "assistant_response.segment"
	// KindAssistantResponseFinal identifies assistant response stream completion.
	KindAssistantResponseFinal Kind = "assistant_response.final"
)

// AssistantResponseStarted marks the start of a reply text stream. StreamID
// is the id of the session event the reply belongs to.
type AssistantResponseStarted struct {
	Base
	StreamID string
}

// NewAssistantResponseStarted creates an assistant response started event.
func NewAssistantResponseStarted(streamID string) AssistantResponseStarted {
	return AssistantResponseStarted{Base: NewBase(KindAssistantResponseStarted), StreamID: streamID}
}

// AssistantResponseSegment carries a streamed assistant response text segment.
type AssistantResponseSegment struct {
	Base
	Segment string
}

// NewAssistantResponseSegment creates an assistant response segment event.
func NewAssistantResponseSegment(segment string) AssistantResponseSegment {
	return AssistantResponseSegment{Base: NewBase(KindAssistantResponseSegment), Segment: segment}
}

// AssistantResponseFinal marks assistant response stream completion and
// carries the last piece of text.
type AssistantResponseFinal struct {
	Base
	Segment string
}

// NewAssistantResponseFinal creates an assistant response final event.
func NewAssistantResponseFinal(segment string) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), Segment: segment}
}
