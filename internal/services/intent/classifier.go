package intent

import (
	"strings"

	"github.com/bobmcallan/arthmitra/internal/models"
)

// Kind is the answering path chosen for a question.
type Kind string

const (
	KindGeneral   Kind = "general"
	KindGoldPrice Kind = "gold_price"
)

// goldKeywords includes common Hindi transliterations.
var goldKeywords = []string{
	"gold",
	"sona",
	"sonay",
	"gold price",
	"gold rate",
	"gold ki price",
	"gold ka rate",
}

// Intent is the routing decision for one question. Date is set only for KindGoldPrice.
type Intent struct {
	Kind Kind
	Date models.Date
}

// MentionsGold reports whether text contains a gold keyword, ignoring case.
func MentionsGold(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range goldKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// IsGoldPriceQuery is true only when text mentions gold AND contains a valid date.
func IsGoldPriceQuery(text string) bool {
	return Classify(text).Kind == KindGoldPrice
}

// Classify routes text, parsing the date once so callers can reuse it.
func Classify(text string) Intent {
	if !MentionsGold(text) {
		return Intent{Kind: KindGeneral}
	}
	d, ok := ExtractDate(text)
	if !ok {
		return Intent{Kind: KindGeneral}
	}
	return Intent{Kind: KindGoldPrice, Date: d}
}
