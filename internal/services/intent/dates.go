// Package intent decides how a free-text question should be answered.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bobmcallan/arthmitra/internal/models"
)

// monthNames maps full and abbreviated month names to month numbers.
var monthNames = map[string]int{
	"january": 1, "jan": 1,
	"february": 2, "feb": 2,
	"march": 3, "mar": 3,
	"april": 4, "apr": 4,
	"may": 5,
	"june": 6, "jun": 6,
	"july": 7, "jul": 7,
	"august": 8, "aug": 8,
	"september": 9, "sep": 9, "sept": 9,
	"october": 10, "oct": 10,
	"november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

// datePattern is one family of date layouts. Families are tried in order and
// only the first match of each is considered.
type datePattern struct {
	re    *regexp.Regexp
	lower bool // match against the lowercased text
	build func(m []string) (models.Date, bool)
}

var datePatterns = []datePattern{
	{
		// day-month-year
		re:    regexp.MustCompile(`(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})`),
		build: func(m []string) (models.Date, bool) {
			return numericDate(m[3], m[2], m[1])
		},
	},
	{
		// day monthname year
		re:    regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)?\s+([a-z]+)\s+(\d{4})`),
		lower: true,
		build: func(m []string) (models.Date, bool) {
			return namedDate(m[3], m[2], m[1])
		},
	},
	{
		// monthname day year
		re:    regexp.MustCompile(`([a-z]+)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s*(\d{4})`),
		lower: true,
		build: func(m []string) (models.Date, bool) {
			return namedDate(m[3], m[1], m[2])
		},
	},
	{
		// year-month-day
		re:    regexp.MustCompile(`(\d{4})[/\-.](\d{1,2})[/\-.](\d{1,2})`),
		build: func(m []string) (models.Date, bool) {
			return numericDate(m[1], m[2], m[3])
		},
	},
}

// ExtractDate finds the first valid calendar date written in text.
// Numeric dates are read day-first. A family whose first match is not a real
// date (32/13/2020, 30 February) is skipped and the next family is tried.
func ExtractDate(text string) (models.Date, bool) {
	lowered := strings.ToLower(text)
	for _, p := range datePatterns {
		src := text
		if p.lower {
			src = lowered
		}
		m := p.re.FindStringSubmatch(src)
		if m == nil {
			continue
		}
		if d, ok := p.build(m); ok {
			return d, true
		}
	}
	return models.Date{}, false
}

func numericDate(year, month, day string) (models.Date, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return models.Date{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return models.Date{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return models.Date{}, false
	}
	return models.NewDate(y, m, d)
}

func namedDate(year, monthName, day string) (models.Date, bool) {
	month, ok := monthNames[monthName]
	if !ok {
		return models.Date{}, false
	}
	return numericDate(year, strconv.Itoa(month), day)
}
