package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// UserProfile carries the optional personal details used to tailor answers.
// Every field is optional; absence is an empty string or a nil Age.
type UserProfile struct {
	Age                *int   `json:"age,omitempty"`
	Gender             string `json:"gender,omitempty"`
	Income             string `json:"income,omitempty"`
	EmploymentStatus   string `json:"employmentStatus,omitempty"`
	TaxRegime          string `json:"taxRegime,omitempty"`
	HomeownerStatus    string `json:"homeownerStatus,omitempty"`
	Children           string `json:"children,omitempty"`
	ChildrenAges       string `json:"childrenAges,omitempty"`
	ParentsAge         string `json:"parentsAge,omitempty"`
	InvestmentCapacity string `json:"investmentCapacity,omitempty"`
	RiskAppetite       string `json:"riskAppetite,omitempty"`
}

// UnmarshalJSON accepts age as a number, a numeric string, or an empty string
// (the profile form sends "" when the field is cleared).
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type plain UserProfile
	var aux struct {
		plain
		Age json.RawMessage `json:"age,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = UserProfile(aux.plain)
	p.Age = parseAge(aux.Age)
	return nil
}

func parseAge(raw json.RawMessage) *int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}

// IsEmpty reports whether no field carries a value.
func (p *UserProfile) IsEmpty() bool {
	return p == nil || *p == (UserProfile{})
}

// IntPtr is a helper for building profiles in code.
func IntPtr(n int) *int {
	return &n
}
