package orchestration

import (
	"github.com/koscakluka/ema-link/core/agent"
	"github.com/koscakluka/ema-link/core/events"
)

type OrchestratorOption func(*Orchestrator)

// WithWorkMode selects how turns are opened. ManualSingleTalk is the
// default.
func WithWorkMode(mode WorkMode) OrchestratorOption {
	return func(o *Orchestrator) {
		o.workMode = mode
	}
}

// WithAudioInput lets StartTalking capture and upload microphone audio on
// its own. Without it audio is expected through SendAudio.
func WithAudioInput(client AudioInput) OrchestratorOption {
	return func(o *Orchestrator) {
		o.audioInput.Set(client)
	}
}

// WithSessionOptions forwards options to the agent session.
func WithSessionOptions(opts ...agent.Option) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sessionOptions = append(o.sessionOptions, opts...)
	}
}

// WithConnectAlert plays the network connected prompt whenever the agent
// session comes online.
func WithConnectAlert(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.connectAlert = enabled
	}
}

type OrchestrateOptions struct {
	onInputAudio           func(audio []byte)
	onSpeakingStateChanged func(isSpeaking bool)
	onTranscription        func(transcript string)
	onResponseStart        func(streamID string)
	onResponse             func(segment string)
	onResponseEnd          func(segment string)
	onAudio                func(audio []byte)
	onAudioEnded           func()
	onEmotion              func(name, text string)
	onPlaybackStarted      func(id string)
	onPlaybackEnded        func(id string)
	onChatStateChanged     func(isChatting bool)
	onEvent                func(event events.Event)
}

type OrchestrateOption func(*OrchestrateOptions)

// WithInputAudioCallback is called with every chunk of uploaded audio.
func WithInputAudioCallback(callback func(audio []byte)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onInputAudio = callback
	}
}

// WithSpeakingStateChangedCallback is called when the user starts or stops
// talking.
func WithSpeakingStateChangedCallback(callback func(isSpeaking bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onSpeakingStateChanged = callback
	}
}

// WithTranscriptionCallback is called with the recognized text of a turn.
// Empty transcripts are not reported.
func WithTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onTranscription = callback
	}
}

func WithResponseStartCallback(callback func(streamID string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponseStart = callback
	}
}

func WithResponseCallback(callback func(segment string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponse = callback
	}
}

// WithResponseEndCallback is called with the last segment of a reply.
func WithResponseEndCallback(callback func(segment string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponseEnd = callback
	}
}

// WithAudioCallback is called with every chunk of compressed reply audio.
// The chunk must be copied if kept.
func WithAudioCallback(callback func(audio []byte)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onAudio = callback
	}
}

func WithAudioEndedCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onAudioEnded = callback
	}
}

// WithEmotionCallback is called with emotions sent by the agent. Missing
// fields are empty.
func WithEmotionCallback(callback func(name, text string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onEmotion = callback
	}
}

func WithPlaybackCallbacks(onStarted, onEnded func(id string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onPlaybackStarted = onStarted
		o.onPlaybackEnded = onEnded
	}
}

// WithChatStateChangedCallback is called when a conversation turn opens or
// closes.
func WithChatStateChangedCallback(callback func(isChatting bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onChatStateChanged = callback
	}
}

// WithEventCallback is called with every event before the typed callbacks.
func WithEventCallback(callback func(event events.Event)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onEvent = callback
	}
}
