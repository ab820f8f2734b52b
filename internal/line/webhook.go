package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// SignatureHeader carries the webhook body signature on inbound requests.
const SignatureHeader = "X-Line-Signature"

// ValidateSignature checks the webhook body against the channel secret:
// base64(HMAC-SHA256(secret, body)) must equal the signature header.
func ValidateSignature(channelSecret string, body []byte, signature string) bool {
	if channelSecret == "" || signature == "" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return hmac.Equal(decoded, mac.Sum(nil))
}

// MessageKind is the closed set of inbound message variants the relay
// distinguishes. Anything the platform adds later lands on KindOther.
type MessageKind int

const (
	KindText MessageKind = iota
	KindSticker
	KindImage
	KindOther
)

// Webhook is the inbound event envelope.
type Webhook struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is one webhook event. Message is nil for non-message events
// (follow, unfollow, join, ...).
type Event struct {
	Type       string   `json:"type"`
	ReplyToken string   `json:"replyToken"`
	Source     Source   `json:"source"`
	Message    *Message `json:"message,omitempty"`
}

// Source identifies who triggered the event.
type Source struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// Message is the inbound message payload. Text is only set for text
// messages; Type keeps the raw platform type name for fallback replies.
type Message struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// IsMessage reports whether the event carries a message payload.
func (e *Event) IsMessage() bool {
	return e.Type == "message" && e.Message != nil
}

// Kind maps the raw message type onto the closed variant set.
func (m *Message) Kind() MessageKind {
	switch m.Type {
	case "text":
		return KindText
	case "sticker":
		return KindSticker
	case "image":
		return KindImage
	default:
		return KindOther
	}
}

// ParseWebhook decodes the webhook envelope.
func ParseWebhook(body []byte) (*Webhook, error) {
	var hook Webhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("line: decode webhook body: %w", err)
	}
	return &hook, nil
}
