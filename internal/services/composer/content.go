package composer

import (
	"encoding/json"

	"github.com/bobmcallan/arthmitra/internal/models"
)

// ExtractText returns the answer text of a generation payload. For structured
// payloads it takes the first text-typed block, then the first bare string,
// and otherwise the JSON form of the whole payload so the caller always has text.
func ExtractText(c models.GenerationContent) string {
	if !c.IsBlocks() {
		return c.Text()
	}

	blocks := c.BlockList()
	for _, b := range blocks {
		if !b.Bare && b.Type == models.BlockTypeText {
			return b.Text
		}
	}
	for _, b := range blocks {
		if b.Bare {
			return b.Text
		}
	}

	if blocks == nil {
		blocks = []models.ContentBlock{}
	}
	raw, err := json.Marshal(blocks)
	if err != nil {
		return ""
	}
	return string(raw)
}
