package agent

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// TTSFormat is one reply audio format the device can play.
type TTSFormat struct {
	Format     string `json:"format"`
	Container  string `json:"container"`
	SampleRate int    `json:"sampleRate"`
	BitDepth   string `json:"bitDepth"`
	Channels   int    `json:"channels"`
}

// DefaultTTSFormat is 16 kHz mono 16 bit mp3, the only format the player
// decodes.
func DefaultTTSFormat() TTSFormat {
	return TTSFormat{
		Format:     "mp3",
		Container:  "",
		SampleRate: 16000,
		BitDepth:   "16",
		Channels:   1,
	}
}

type ttsOrder struct {
	Supports []TTSFormat `json:"tts.order.supports"`
}

func marshalTTSOrder(formats []TTSFormat) (string, error) {
	b, err := json.Marshal(ttsOrder{Supports: formats})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// TextDocument is a downlink text channel document.
type TextDocument struct {
	BizType string   `json:"bizType" jsonschema:"enum=ASR,enum=NLG,enum=SKILL"`
	EOF     int      `json:"eof" jsonschema:"enum=0,enum=1"`
	Data    TextData `json:"data"`
}

type TextData struct {
	// Text is the recognized transcript of an ASR document.
	Text string `json:"text,omitempty"`
	// Content is a reply segment of an NLG document.
	Content string `json:"content,omitempty"`
	// Code names the skill of a SKILL document.
	Code         string        `json:"code,omitempty"`
	SkillContent *SkillContent `json:"skillContent,omitempty"`
}

type SkillContent struct {
	Emotion []string `json:"emotion,omitempty"`
	Text    []string `json:"text,omitempty"`
}

// TextDocumentSchema describes the documents accepted on the downlink text
// channel.
func TextDocumentSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(&TextDocument{})
}
