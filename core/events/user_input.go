package events

const (
	// KindUserAudioFrame identifies raw audio captured from user input.
	KindUserAudioFrame Kind = "user_input.audio_frame"
	// KindUserSpeechStarted identifies the start of an uplink upload.
	KindUserSpeechStarted Kind = "user_input.speech_started"
	// KindUserSpeechEnded identifies the end of an uplink upload.
	KindUserSpeechEnded Kind = "user_input.speech_ended"
	// KindUserTranscriptFinal identifies the recognized text for the utterance.
	KindUserTranscriptFinal Kind = "user_input.transcript_final"
)

// UserAudioFrame carries a user input audio frame.
type UserAudioFrame struct {
	Base
	Audio []byte
}

// NewUserAudioFrame creates a user input audio frame event.
func NewUserAudioFrame(audio []byte) UserAudioFrame {
	return UserAudioFrame{Base: NewBase(KindUserAudioFrame), Audio: audio}
}

// UserSpeechStarted marks the start of an upload.
type UserSpeechStarted struct {
	Base
	EventID string
}

// NewUserSpeechStarted creates a user speech started event.
func NewUserSpeechStarted(eventID string) UserSpeechStarted {
	return UserSpeechStarted{Base: NewBase(KindUserSpeechStarted), EventID: eventID}
}

// UserSpeechEnded marks the end of an upload.
type UserSpeechEnded struct {
	Base
	EventID string
}

// NewUserSpeechEnded creates a user speech ended event.
func NewUserSpeechEnded(eventID string) UserSpeechEnded {
	return UserSpeechEnded{Base: NewBase(KindUserSpeechEnded), EventID: eventID}
}

// UserTranscriptFinal carries the ASR result for the utterance. The
// transcript is empty when nothing was recognized.
type UserTranscriptFinal struct {
	Base
	Transcript string
}

// NewUserTranscriptFinal creates a final transcript event.
func NewUserTranscriptFinal(transcript string) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal), Transcript: transcript}
}
