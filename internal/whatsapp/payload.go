package whatsapp

import "strings"

// webhookPayload is the subset of the Cloud API notification we read.
type webhookPayload struct {
	Object string         `json:"object"`
	Entry  []webhookEntry `json:"entry"`
}

type webhookEntry struct {
	ID      string          `json:"id"`
	Changes []webhookChange `json:"changes"`
}

type webhookChange struct {
	Field string       `json:"field"`
	Value webhookValue `json:"value"`
}

type webhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []webhookMessage `json:"messages"`
}

type webhookMessage struct {
	ID        string       `json:"id"`
	From      string       `json:"from"`
	Timestamp string       `json:"timestamp"`
	Type      string       `json:"type"`
	Text      *webhookText `json:"text,omitempty"`
}

type webhookText struct {
	Body string `json:"body"`
}

// incoming is a text message extracted from a notification.
type incoming struct {
	ID   string
	From string
	Text string
}

// firstTextMessage returns entry[0].changes[0].value.messages[0] when it is
// a non-empty text message. Status updates and media yield false.
func (p webhookPayload) firstTextMessage() (incoming, bool) {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return incoming{}, false
	}
	msgs := p.Entry[0].Changes[0].Value.Messages
	if len(msgs) == 0 {
		return incoming{}, false
	}
	msg := msgs[0]
	if msg.Type != "text" || msg.Text == nil {
		return incoming{}, false
	}
	text := strings.TrimSpace(msg.Text.Body)
	if text == "" || msg.From == "" {
		return incoming{}, false
	}
	return incoming{ID: msg.ID, From: msg.From, Text: text}, true
}
