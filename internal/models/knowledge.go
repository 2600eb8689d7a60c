package models

import "time"

// Document is one loadable unit of a source file: a PDF page, a CSV row, or a whole text file.
type Document struct {
	Source string // path the document was loaded from
	Page   *int   // zero-based page index; nil when the format has no pages
	Text   string
}

// Chunk is a retrievable slice of a Document.
type Chunk struct {
	ID     string
	Source string
	Page   *int
	Index  int
	Text   string
}

// ScoredChunk is a similarity search hit.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Passage is a retrieved piece of context handed to the composer.
type Passage struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   *int   `json:"page,omitempty"`
}

// IndexResult summarises ingestion of one file.
type IndexResult struct {
	File     string        `json:"file"`
	Chunks   int           `json:"chunks"`
	Skipped  bool          `json:"skipped,omitempty"`
	Duration time.Duration `json:"duration"`
	Message  string        `json:"message"`
}
