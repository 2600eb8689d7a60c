package composer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/arthmitra/internal/models"
)

// FormatSource renders a passage citation as "<basename>[ (Page n)]".
// Stored pages are zero-based and displayed one-based.
func FormatSource(p models.Passage) string {
	name := filepath.Base(strings.ReplaceAll(p.Source, `\`, "/"))
	if p.Source == "" || name == "." || name == "/" {
		name = "Unknown"
	}
	if p.Page != nil {
		return fmt.Sprintf("%s (Page %d)", name, *p.Page+1)
	}
	return name
}

// MergeSources appends the citations of passages to existing, skipping any
// formatted citation already present. Merging the same passages again is a no-op.
func MergeSources(existing []string, passages []models.Passage) []string {
	out := make([]string, 0, len(existing)+len(passages))
	seen := make(map[string]struct{}, len(existing)+len(passages))
	for _, s := range existing {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, p := range passages {
		s := FormatSource(p)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Sources returns the distinct citations of passages in first-seen order, or
// the knowledge base label when there are none.
func Sources(passages []models.Passage) []string {
	sources := MergeSources(nil, passages)
	if len(sources) == 0 {
		return []string{models.SourceKnowledgeBase}
	}
	return sources
}

// FormatContext joins passage text for the prompt context slot.
func FormatContext(passages []models.Passage) string {
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		if t := strings.TrimSpace(p.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n\n")
}
