package whatsapp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidPayload means the body is not JSON or has no entry[0].changes[0].value.
	ErrInvalidPayload = errors.New("whatsapp: invalid webhook payload")
	// ErrNoMessages means the delivery carries no messages, such as a status update.
	ErrNoMessages = errors.New("whatsapp: no messages in webhook payload")
	// ErrMissingFields means messages[0] lacks a sender or a text body.
	ErrMissingFields = errors.New("whatsapp: message missing from or text.body")
)

// VerificationHandler answers Meta's GET subscription challenge.
func VerificationHandler(verifyToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		challenge, ok := Verify(
			r.URL.Query().Get("hub.mode"),
			r.URL.Query().Get("hub.verify_token"),
			r.URL.Query().Get("hub.challenge"),
			verifyToken,
		)
		if !ok {
			http.Error(w, "Verification failed", http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
	}
}

// Verify returns the challenge when mode is "subscribe" and token matches.
func Verify(mode, token, challenge, verifyToken string) (string, bool) {
	if mode != "subscribe" || verifyToken == "" || token != verifyToken {
		return "", false
	}
	return challenge, true
}

// ParseInbound extracts the first message of a webhook delivery. Only the
// first entry, change and message are considered.
func ParseInbound(body []byte) (*InboundMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidPayload
	}
	value := gjson.GetBytes(body, "entry.0.changes.0.value")
	if !value.Exists() || !value.IsObject() {
		return nil, ErrInvalidPayload
	}

	messages := value.Get("messages")
	if !messages.Exists() || !messages.IsArray() || len(messages.Array()) == 0 {
		return nil, ErrNoMessages
	}

	first := messages.Get("0")
	from := first.Get("from")
	text := first.Get("text.body")
	if from.String() == "" || !text.Exists() || text.Type != gjson.String {
		return nil, ErrMissingFields
	}

	msg := &InboundMessage{
		From:        from.String(),
		ProfileName: value.Get("contacts.0.profile.name").String(),
		Text:        text.String(),
		MessageID:   first.Get("id").String(),
	}
	if ts, err := strconv.ParseInt(first.Get("timestamp").String(), 10, 64); err == nil {
		msg.Timestamp = time.Unix(ts, 0)
	}
	return msg, nil
}
