package whatsapp

import "time"

// SendRequest is the Cloud API payload for an outbound text message.
type SendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             TextBody `json:"text"`
}

// TextBody carries the text of a message in either direction.
type TextBody struct {
	Body string `json:"body"`
}

// SendResponse is the Graph API reply to a send call.
type SendResponse struct {
	MessagingProduct string        `json:"messaging_product"`
	Contacts         []SentContact `json:"contacts,omitempty"`
	Messages         []SentMessage `json:"messages,omitempty"`
	Error            *SendError    `json:"error,omitempty"`
}

type SentContact struct {
	Input string `json:"input"`
	WaID  string `json:"wa_id"`
}

type SentMessage struct {
	ID string `json:"id"`
}

// SendError is the error object returned by the Graph API.
type SendError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}

// InboundMessage is the first text message of a webhook delivery.
type InboundMessage struct {
	From        string
	ProfileName string
	Text        string
	MessageID   string
	Timestamp   time.Time
}
