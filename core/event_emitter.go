package orchestration

import events "github.com/koscakluka/ema-link/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event events.Event) {
		if opts.onEvent != nil {
			opts.onEvent(event)
		}

		switch typedEvent := event.(type) {
		case events.UserAudioFrame:
			if opts.onInputAudio != nil {
				opts.onInputAudio(typedEvent.Audio)
			}
		case events.UserSpeechStarted:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(true)
			}
		case events.UserSpeechEnded:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(false)
			}
		case events.UserTranscriptFinal:
			if opts.onTranscription != nil && typedEvent.Transcript != "" {
				opts.onTranscription(typedEvent.Transcript)
			}
		case events.AssistantResponseStarted:
			if opts.onResponseStart != nil {
				opts.onResponseStart(typedEvent.StreamID)
			}
		case events.AssistantResponseSegment:
			if opts.onResponse != nil {
				opts.onResponse(typedEvent.Segment)
			}
		case events.AssistantResponseFinal:
			if opts.onResponseEnd != nil {
				opts.onResponseEnd(typedEvent.Segment)
			}
		case events.AssistantSpeechStarted:
			if opts.onAudio != nil && len(typedEvent.Audio) > 0 {
				opts.onAudio(typedEvent.Audio)
			}
		case events.AssistantSpeechFrame:
			if opts.onAudio != nil {
				opts.onAudio(typedEvent.Audio)
			}
		case events.AssistantSpeechFinal:
			if opts.onAudioEnded != nil {
				opts.onAudioEnded()
			}
		case events.AssistantEmotion:
			if opts.onEmotion != nil {
				opts.onEmotion(deref(typedEvent.Name), deref(typedEvent.Text))
			}
		case events.AssistantPlaybackStarted:
			if opts.onPlaybackStarted != nil {
				opts.onPlaybackStarted(typedEvent.ID)
			}
		case events.AssistantPlaybackEnded:
			if opts.onPlaybackEnded != nil {
				opts.onPlaybackEnded(typedEvent.ID)
			}
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
