package models

// Origin tells who authored a line in the chat log.
type Origin string

const (
	OriginUser Origin = "user"
	OriginBot  Origin = "bot"
)

// ChatMessage is a single display record in the append-only chat log.
type ChatMessage struct {
	Origin Origin `json:"origin"`
	Text   string `json:"text"`
}

// UserMessage builds a user-origin record.
func UserMessage(text string) ChatMessage {
	return ChatMessage{Origin: OriginUser, Text: text}
}

// BotMessage builds a bot-origin record.
func BotMessage(text string) ChatMessage {
	return ChatMessage{Origin: OriginBot, Text: text}
}

// ReplyRequest is the body sent to the responder endpoint.
type ReplyRequest struct {
	Message string `json:"message"`
}

// ReplyResponse is the body returned by the responder endpoint.
type ReplyResponse struct {
	Response string `json:"response"`
}
