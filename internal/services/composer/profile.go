// Package composer turns a question, retrieved passages and a user profile
// into a generation prompt, and formats the citations of the answer.
package composer

import (
	"strconv"
	"strings"

	"github.com/bobmcallan/arthmitra/internal/models"
)

const (
	profileHeader = "**USER PROFILE** (Provide personalized recommendations based on this information):\n"
	notSpecified  = "Not specified"

	seniorCitizenAge  = 60
	nearRetirementAge = 55
	sukanyaMaxAge     = 10
)

// noteRule appends note when the field value matches. Within a field the
// first matching rule wins.
type noteRule struct {
	match func(value string) bool
	note  string
}

func contains(sub string) func(string) bool {
	return func(v string) bool { return strings.Contains(v, sub) }
}

func equals(want string) func(string) bool {
	return func(v string) bool { return v == want }
}

// profileField renders one "- **Label**: value" line plus an optional note line.
type profileField struct {
	label    string
	value    func(p *models.UserProfile) string
	required bool // rendered as "Not specified" when absent
	suffix   func(p *models.UserProfile) string
	notes    []noteRule
}

var profileFields = []profileField{
	{
		label:    "Age",
		value:    func(p *models.UserProfile) string { return ageText(p.Age) },
		required: true,
		suffix:   ageSuffix,
	},
	{
		label:    "Annual Income",
		value:    func(p *models.UserProfile) string { return p.Income },
		required: true,
	},
	{
		label:    "Employment Status",
		value:    func(p *models.UserProfile) string { return p.EmploymentStatus },
		required: true,
		notes: []noteRule{
			{contains("Government"), "Higher NPS employer contribution limit - 14% of salary"},
			{contains("Retired"), "Focus on senior citizen schemes like SCSS, PMVVY"},
		},
	},
	{
		label:    "Tax Regime",
		value:    func(p *models.UserProfile) string { return p.TaxRegime },
		required: true,
		notes: []noteRule{
			{equals("Old Regime"), "Eligible for 80C, 80D, and other deductions"},
			{equals("New Regime"), "Limited deductions - only NPS employer contribution, no 80C/80D"},
		},
	},
	{
		label:    "Housing Status",
		value:    func(p *models.UserProfile) string { return p.HomeownerStatus },
		required: true,
		notes: []noteRule{
			{contains("Loan"), "Eligible for home loan interest deduction - Section 24"},
			{contains("Rented"), "May be eligible for HRA exemption if salaried"},
		},
	},
	{
		label:  "Children",
		value:  func(p *models.UserProfile) string { return p.Children },
		suffix: childrenSuffix,
	},
	{
		label: "Parents Age",
		value: func(p *models.UserProfile) string { return p.ParentsAge },
		notes: []noteRule{
			{mentionsSeniorAge, "Additional 80D deduction for senior citizen parents - ₹50,000"},
		},
	},
	{
		label: "Investment Capacity",
		value: func(p *models.UserProfile) string { return p.InvestmentCapacity },
	},
	{
		label: "Risk Appetite",
		value: func(p *models.UserProfile) string { return p.RiskAppetite },
		notes: []noteRule{
			{equals("Conservative"), "Recommend fixed-return instruments like PPF, NSC, SCSS"},
			{equals("Aggressive"), "Can suggest ELSS, NPS equity allocation, market-linked returns"},
		},
	},
}

// FormatProfile renders the profile block inserted into the prompt.
// A nil or empty profile renders as "". Absent optional fields are left out;
// absent core fields show "Not specified".
func FormatProfile(p *models.UserProfile) string {
	if p.IsEmpty() {
		return ""
	}

	var b strings.Builder
	b.WriteString(profileHeader)

	for _, f := range profileFields {
		value := strings.TrimSpace(f.value(p))
		if value == "" {
			if !f.required {
				continue
			}
			value = notSpecified
		}

		b.WriteString("- **")
		b.WriteString(f.label)
		b.WriteString("**: ")
		b.WriteString(value)
		if f.suffix != nil {
			b.WriteString(f.suffix(p))
		}
		b.WriteString("\n")

		for _, rule := range f.notes {
			if rule.match(value) {
				b.WriteString("  (Note: ")
				b.WriteString(rule.note)
				b.WriteString(")\n")
				break
			}
		}
	}

	b.WriteString("\n")
	return b.String()
}

// mentionsSeniorAge matches free-text parent ages such as "62, 65" or "60+".
func mentionsSeniorAge(v string) bool {
	return strings.Contains(v, "60") || strings.Contains(v, "65")
}

func ageText(age *int) string {
	if age == nil {
		return ""
	}
	return strconv.Itoa(*age)
}

func ageSuffix(p *models.UserProfile) string {
	switch {
	case p.Age == nil:
		return ""
	case *p.Age >= seniorCitizenAge:
		return " (Senior Citizen - eligible for senior citizen schemes)"
	case *p.Age >= nearRetirementAge:
		return " (Near retirement age)"
	}
	return ""
}

func childrenSuffix(p *models.UserProfile) string {
	ages := strings.TrimSpace(p.ChildrenAges)
	if ages == "" {
		return ""
	}
	suffix := " (Ages: " + ages + ")"
	if parsed, ok := parseAges(ages); ok && anyBelow(parsed, sukanyaMaxAge) {
		suffix += " - Eligible for Sukanya Samriddhi Yojana if girl child"
	}
	return suffix
}

// parseAges reads a comma separated list. Any unreadable entry invalidates the list.
func parseAges(s string) ([]int, bool) {
	var ages []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, false
		}
		ages = append(ages, n)
	}
	return ages, true
}

func anyBelow(values []int, limit int) bool {
	for _, v := range values {
		if v < limit {
			return true
		}
	}
	return false
}
