// Package assistant implements the tax assistant chat: Gemini-backed Q&A
// with canned company answers, document-intent detection that hands off to
// the template registry or an ad-hoc generated form, and per-user chat
// history.
package assistant

import (
	"encoding/json"
	"time"

	"github.com/finaccosolutions/portal/internal/plugins/templates"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Reply kinds; they tell the client what to do with the reply.
const (
	// KindAnswer is a chat answer rendered as HTML.
	KindAnswer = "answer"
	// KindOpenTemplate directs the client to a registry template's form.
	KindOpenTemplate = "open_template"
	// KindCollectFields asks the client to collect ad-hoc document fields.
	KindCollectFields = "collect_fields"
	// KindDocument carries a generated document's HTML.
	KindDocument = "document"
)

// Message is one chat turn, stored as JSON inside the thread row.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// IsDocument marks assistant turns whose content is generated document
	// HTML rather than a chat answer, so history re-renders them as such.
	IsDocument bool `json:"is_document,omitempty"`
}

// Thread is a stored conversation.
type Thread struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ThreadSummary is the history sidebar shape: no message bodies.
type ThreadSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reply is the assistant's response to one user turn.
type Reply struct {
	Kind     string `json:"kind"`
	ThreadID string `json:"thread_id"`

	// HTML is set for answers and generated documents.
	HTML string `json:"html,omitempty"`

	// TemplateID is set when the request matched a registry template.
	TemplateID   string `json:"template_id,omitempty"`
	TemplateName string `json:"template_name,omitempty"`

	// DocType and Fields are set when an ad-hoc document form is needed.
	DocType string            `json:"doc_type,omitempty"`
	Fields  []templates.Field `json:"fields,omitempty"`
}

// ChatRequest is the payload for a chat turn. An empty ThreadID starts a new
// conversation.
type ChatRequest struct {
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
}

// GenerateRequest asks for an ad-hoc document from collected field data.
type GenerateRequest struct {
	ThreadID string            `json:"thread_id"`
	DocType  string            `json:"doc_type"`
	Data     map[string]string `json:"data"`
}

// KeyRequest sets the caller's Gemini API key.
type KeyRequest struct {
	Key string `json:"key"`
}

// KeyStatus reports whether a key is stored, never the key itself.
type KeyStatus struct {
	Configured bool `json:"configured"`
}

// fieldListPayload is the JSON shape the field-list prompt asks Gemini for.
type fieldListPayload struct {
	Fields []templates.Field `json:"fields"`
}

func decodeFieldList(raw []byte) (*fieldListPayload, error) {
	var payload fieldListPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
