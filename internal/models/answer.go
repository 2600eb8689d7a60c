package models

// Source labels used when an answer has no document citations.
const (
	SourceGeneralKnowledge = "General Knowledge - No documents indexed yet"
	SourceKnowledgeBase    = "Knowledge Base"
)

// Answer is the unit returned to callers: response text plus distinct citations in first-seen order.
type Answer struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

// StreamEventType identifies a streamed event.
type StreamEventType string

const (
	StreamToken   StreamEventType = "token"
	StreamAnswer  StreamEventType = "answer" // whole structured answer, never split into tokens
	StreamSources StreamEventType = "sources"
	StreamDone    StreamEventType = "done"
)

// StreamEvent is one element of a streamed answer. Order is tokens (or one answer), sources, done.
type StreamEvent struct {
	Type    StreamEventType `json:"type"`
	Text    string          `json:"text,omitempty"`
	Sources []string        `json:"sources,omitempty"`
}

// Status reports readiness and index size.
type Status struct {
	Ready                bool   `json:"ready"`
	IndexedDocumentCount int    `json:"indexed_document_count"`
	Model                string `json:"model,omitempty"`
	PriceRecords         int    `json:"price_records"`
	FirstPriceDate       string `json:"first_price_date,omitempty"`
	LastPriceDate        string `json:"last_price_date,omitempty"`
}
