package model

import "sync"

const (
	MessageSystem    = "system"
	MessageUser      = "user"
	MessageAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript is the running conversation one agent has seen so far.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
}

func NewTranscript(system string) *Transcript {
	return &Transcript{messages: []Message{{Role: MessageSystem, Content: system}}}
}

func (t *Transcript) Observe(content string) {
	t.append(Message{Role: MessageUser, Content: content})
}

func (t *Transcript) Said(content string) {
	t.append(Message{Role: MessageAssistant, Content: content})
}

func (t *Transcript) append(message Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	// consecutive observations are merged so the history alternates cleanly
	if n := len(t.messages); n > 1 && message.Role == MessageUser && t.messages[n-1].Role == MessageUser {
		t.messages[n-1].Content += "\n" + message.Content
		return
	}
	t.messages = append(t.messages, message)
}

func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	messages := make([]Message, len(t.messages))
	copy(messages, t.messages)
	return messages
}
