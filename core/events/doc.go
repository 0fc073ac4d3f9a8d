// Package events defines the typed event contract between the agent session,
// the orchestrator and the application.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - user_input.*
//   - assistant_response.*
//   - assistant_speech.*
//   - assistant_skill.*
//   - assistant_playback.*
//   - session.*
//
// Semantics used across the package:
//
//   - Frame: binary audio chunk payload, borrowed for the duration of the
//     callback that receives it.
//   - Segment: append-only text piece emitted in stream order.
//   - Final: terminal text/state for the current stream.
//   - Ended: lifecycle boundary indicating stream completion.
//
// user_input events
//
//   - UserAudioFrame (user_input.audio_frame): captured audio sent upstream.
//   - UserSpeechStarted (user_input.speech_started): an upload was opened.
//   - UserSpeechEnded (user_input.speech_ended): an upload was closed.
//   - UserTranscriptFinal (user_input.transcript_final): recognized text for
//     the upload, possibly empty.
//
// assistant_response events
//
//   - AssistantResponseStarted (assistant_response.started): reply text stream
//     opened for a session event id.
//   - AssistantResponseSegment (assistant_response.segment): streamed reply
//     text segment.
//   - AssistantResponseFinal (assistant_response.final): last reply text
//     segment; the stream is complete.
//
// assistant_speech events
//
//   - AssistantSpeechStarted (assistant_speech.started): reply audio stream
//     opened, with the opening chunk.
//   - AssistantSpeechFrame (assistant_speech.frame): compressed reply audio.
//   - AssistantSpeechFinal (assistant_speech.final): reply audio stream ended.
//
// assistant_skill events
//
//   - AssistantEmotion (assistant_skill.emotion): emotion name and text.
//
// assistant_playback events
//
//   - AssistantPlaybackStarted (assistant_playback.started): local playback
//     started.
//   - AssistantPlaybackEnded (assistant_playback.ended): local playback ended.
//
// session events
//
//   - SessionEvent (session.started, session.payloads_ended, session.ended,
//     session.chat_break, session.server_vad): lifecycle signals forwarded by
//     the dispatcher.
package events
