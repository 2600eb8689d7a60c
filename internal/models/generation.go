package models

// ContentBlock is one typed element of a structured generation payload.
// Bare marks an untyped string element.
type ContentBlock struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text,omitempty"`
	Bare bool   `json:"-"`
}

// BlockTypeText is the block type that carries answer text.
const BlockTypeText = "text"

// GenerationContent is what a generation provider returns: either plain text
// or a sequence of typed blocks. The zero value is empty plain text.
type GenerationContent struct {
	blocks  []ContentBlock
	text    string
	isBlock bool
}

// PlainText wraps a plain string payload.
func PlainText(s string) GenerationContent {
	return GenerationContent{text: s}
}

// Blocks wraps a structured payload.
func Blocks(blocks ...ContentBlock) GenerationContent {
	return GenerationContent{blocks: blocks, isBlock: true}
}

// TextBlock builds a {type: "text"} block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeText, Text: text}
}

// BareString builds an untyped string element.
func BareString(s string) ContentBlock {
	return ContentBlock{Text: s, Bare: true}
}

// IsBlocks reports whether the payload is structured.
func (c GenerationContent) IsBlocks() bool { return c.isBlock }

// Text returns the plain payload; "" for structured payloads.
func (c GenerationContent) Text() string { return c.text }

// BlockList returns the structured payload; nil for plain payloads.
func (c GenerationContent) BlockList() []ContentBlock { return c.blocks }
