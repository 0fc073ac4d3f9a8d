package events

const (
	// KindAssistantPlaybackStarted identifies local playback start.
	KindAssistantPlaybackStarted Kind = "assistant_playback.started"
	// KindAssistantPlaybackEnded identifies local playback completion.
	KindAssistantPlaybackEnded Kind = "assistant_playback.ended"
)

// AssistantPlaybackStarted marks the start of local playback for ID.
type AssistantPlaybackStarted struct {
	Base
	ID string
}

// NewAssistantPlaybackStarted creates an assistant playback started event.
func NewAssistantPlaybackStarted(id string) AssistantPlaybackStarted {
	return AssistantPlaybackStarted{Base: NewBase(KindAssistantPlaybackStarted), ID: id}
}

// AssistantPlaybackEnded marks the end of local playback, either because the
// stream drained or because it was stopped.
type AssistantPlaybackEnded struct {
	Base
	ID string
}

// NewAssistantPlaybackEnded creates an assistant playback ended event.
func NewAssistantPlaybackEnded(id string) AssistantPlaybackEnded {
	return AssistantPlaybackEnded{Base: NewBase(KindAssistantPlaybackEnded), ID: id}
}
