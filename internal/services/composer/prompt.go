package composer

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// NoDocumentsContext fills the context slot when nothing is indexed.
const NoDocumentsContext = "No specific documents available."

// ErrEmptyQuestion is returned when a prompt is rendered without a question.
var ErrEmptyQuestion = errors.New("prompt question is empty")

// PromptInput holds the named slots of the advisor prompt.
type PromptInput struct {
	Profile  string // rendered profile block, may be empty
	Context  string // retrieved passage text; empty renders NoDocumentsContext
	Question string
}

// PromptTemplate renders the advisor prompt from typed slots. Slot values are
// inserted verbatim and never re-expanded, so a passage containing template
// syntax cannot leak into another slot.
type PromptTemplate struct {
	tmpl *template.Template
}

const advisorPrompt = `You are Arth-Mitra, an expert AI financial advisor specializing in Indian finance.
You help users understand:
- Income Tax laws and optimization strategies
- Government schemes (NPS, PPF, SSY, APY, etc.)
- Investment options and their tax implications
- Retirement planning and pension schemes

{{.Profile}}

Guidelines for your responses:
1. **Structure**: Use clear sections with headers (##) when explaining complex topics
2. **Formatting**: Use **bold** for important terms, numbers, and deadlines
3. **Tables**: Present comparative data in markdown tables when applicable
4. **Lists**: Use bullet points (- or *) or numbered lists (1., 2., etc.) for steps or options
5. **Actionable**: Provide specific numbers, amounts, and eligibility criteria
6. **Simple Language**: Explain complex financial terms in simple Hindi/English
7. **Cite Sources**: Reference specific sections, acts, or documents from the context
8. **Personalized**: Use the user's profile information to provide tailored recommendations
9. **Honesty**: If the answer is NOT in the provided context, clearly state "I don't have specific information about this in my knowledge base"

Response Format Example:
## [Topic Name]

[Brief introduction]

### Key Features
- **Feature 1**: Detail
- **Feature 2**: Detail

### Eligibility
| Criteria | Requirement |
|----------|-------------|
| Age | X-Y years |
| Income | ₹X Lakhs |

### Tax Benefits
[Explain with specific sections like 80C, 80D etc.]

### How to Apply
1. Step one
2. Step two

---
*Source: [Document name from context]*

Context from knowledge base:
{{.Context}}

User Question: {{.Question}}

Provide a helpful, detailed, well-formatted response based on the context above:`

var defaultTemplate = template.Must(template.New("advisor").Option("missingkey=error").Parse(advisorPrompt))

// DefaultPromptTemplate returns the Arth-Mitra advisor prompt.
func DefaultPromptTemplate() *PromptTemplate {
	return &PromptTemplate{tmpl: defaultTemplate}
}

// NewPromptTemplate parses a custom prompt. It must reference the Profile,
// Context and Question slots.
func NewPromptTemplate(text string) (*PromptTemplate, error) {
	for _, slot := range []string{"{{.Profile}}", "{{.Context}}", "{{.Question}}"} {
		if !strings.Contains(text, slot) {
			return nil, fmt.Errorf("prompt template missing slot %s", slot)
		}
	}
	tmpl, err := template.New("custom").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	return &PromptTemplate{tmpl: tmpl}, nil
}

// Render fills the template.
func (t *PromptTemplate) Render(in PromptInput) (string, error) {
	if strings.TrimSpace(in.Question) == "" {
		return "", ErrEmptyQuestion
	}
	if strings.TrimSpace(in.Context) == "" {
		in.Context = NoDocumentsContext
	}

	var b strings.Builder
	if err := t.tmpl.Execute(&b, in); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return b.String(), nil
}
