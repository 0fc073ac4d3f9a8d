package agent

import (
	"bytes"
	"encoding/json"

	"github.com/koscakluka/ema-link/core/events"
)

const (
	bizTypeASR   = "ASR"
	bizTypeNLG   = "NLG"
	bizTypeSkill = "SKILL"

	skillCodeEmotion = "emo"
)

// replyStatus tracks the reply text stream between session START events.
type replyStatus int

const (
	replyStart replyStatus = iota
	replyData
	replyStop
	replyAbort
)

func (s replyStatus) String() string {
	switch s {
	case replyStart:
		return "start"
	case replyData:
		return "data"
	case replyStop:
		return "stop"
	case replyAbort:
		return "abort"
	}
	return "unknown"
}

type textParser struct {
	status replyStatus
}

// reset readies the parser for a new reply stream.
func (p *textParser) reset() {
	p.status = replyStart
}

// abort drops the rest of the current reply stream.
func (p *textParser) abort() {
	p.status = replyAbort
}

// parse decodes one text document and emits the messages it implies.
// Documents that are not valid JSON, or carry nothing of interest, are
// dropped without error.
func (p *textParser) parse(payload []byte, streamID string, emit func(events.Event)) {
	var document rawTextDocument
	if err := json.Unmarshal(payload, &document); err != nil {
		logger.Debug("ignoring invalid text document", "error", err)
		return
	}

	bizType, _ := stringField(document.BizType)
	eof := truthy(document.EOF)

	switch {
	case bizType == bizTypeASR && eof:
		text, _ := stringField(document.Data["text"])
		emit(events.NewUserTranscriptFinal(text))

	case bizType == bizTypeNLG:
		p.parseReply(document.Data, eof, streamID, emit)

	case bizType == bizTypeSkill && eof:
		code, ok := stringField(document.Data["code"])
		if !ok || code != skillCodeEmotion {
			return
		}
		emit(parseEmotion(document.Data["skillContent"]))
	}
}

func (p *textParser) parseReply(data map[string]json.RawMessage, eof bool, streamID string, emit func(events.Event)) {
	content, _ := stringField(data["content"])

	if p.status == replyStart {
		p.status = replyData
		emit(events.NewAssistantResponseStarted(streamID))
	}

	if p.status != replyData {
		logger.Debug("dropping reply text outside of a stream", "status", p.status)
		return
	}

	if eof {
		p.status = replyStop
		emit(events.NewAssistantResponseFinal(content))
		return
	}
	emit(events.NewAssistantResponseSegment(content))
}

func parseEmotion(raw json.RawMessage) events.AssistantEmotion {
	var content struct {
		Emotion []json.RawMessage `json:"emotion"`
		Text    []json.RawMessage `json:"text"`
	}
	_ = json.Unmarshal(raw, &content)

	return events.NewAssistantEmotion(firstString(content.Emotion), firstString(content.Text))
}

type rawTextDocument struct {
	BizType json.RawMessage            `json:"bizType"`
	EOF     json.RawMessage            `json:"eof"`
	Data    map[string]json.RawMessage `json:"data"`
}

// UnmarshalJSON tolerates a data field of the wrong type.
func (d *rawTextDocument) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	d.BizType = fields["bizType"]
	d.EOF = fields["eof"]
	if data, ok := fields["data"]; ok {
		_ = json.Unmarshal(data, &d.Data)
	}
	return nil
}

func stringField(raw json.RawMessage) (string, bool) {
	var value string
	if len(raw) == 0 || json.Unmarshal(raw, &value) != nil {
		return "", false
	}
	return value, true
}

func firstString(values []json.RawMessage) *string {
	if len(values) == 0 {
		return nil
	}
	value, ok := stringField(values[0])
	if !ok {
		return nil
	}
	return &value
}

// truthy accepts the numeric flags the agent sends as well as booleans.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number != 0
	}
	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		return flag
	}
	return false
}
