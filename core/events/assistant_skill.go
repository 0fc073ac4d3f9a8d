package events

// KindAssistantEmotion identifies an emotion produced by the agent's skill.
const KindAssistantEmotion Kind = "assistant_skill.emotion"

// AssistantEmotion carries an emotion name and its accompanying text. Either
// is nil when the agent did not send it.
type AssistantEmotion struct {
	Base
	Name *string
	Text *string
}

// NewAssistantEmotion creates an assistant emotion event.
func NewAssistantEmotion(name, text *string) AssistantEmotion {
	return AssistantEmotion{Base: NewBase(KindAssistantEmotion), Name: name, Text: text}
}
