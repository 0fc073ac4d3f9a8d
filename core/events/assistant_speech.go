package events

const (
	// KindAssistantSpeechStarted identifies the first chunk of a reply audio stream.
	KindAssistantSpeechStarted Kind = "assistant_speech.started"
	// KindAssistantSpeechFrame identifies compressed reply audio.
	KindAssistantSpeechFrame Kind = "assistant_speech.frame"
	// KindAssistantSpeechFinal identifies the end of a reply audio stream.
	KindAssistantSpeechFinal Kind = "assistant_speech.final"
)

// AssistantSpeechStarted opens a reply audio stream. Audio is the payload of
// the opening chunk and may be empty.
//
// Audio is borrowed: it is only valid while the receiving callback runs.
type AssistantSpeechStarted struct {
	Base
	StreamID string
	Audio    []byte
}

// NewAssistantSpeechStarted creates an assistant speech started event.
func NewAssistantSpeechStarted(streamID string, audio []byte) AssistantSpeechStarted {
	return AssistantSpeechStarted{Base: NewBase(KindAssistantSpeechStarted), StreamID: streamID, Audio: audio}
}

// AssistantSpeechFrame carries a chunk of compressed reply audio.
//
// Audio is borrowed: it is only valid while the receiving callback runs.
type AssistantSpeechFrame struct {
	Base
	Audio []byte
}

// NewAssistantSpeechFrame creates an assistant speech audio frame event.
func NewAssistantSpeechFrame(audio []byte) AssistantSpeechFrame {
	return AssistantSpeechFrame{Base: NewBase(KindAssistantSpeechFrame), Audio: audio}
}

// AssistantSpeechFinal marks the end of a reply audio stream.
type AssistantSpeechFinal struct{ Base }

// NewAssistantSpeechFinal creates an assistant speech final event.
func NewAssistantSpeechFinal() AssistantSpeechFinal {
	return AssistantSpeechFinal{Base: NewBase(KindAssistantSpeechFinal)}
}
