package composer

import (
	"github.com/bobmcallan/arthmitra/internal/models"
)

// Composer assembles generation prompts.
type Composer struct {
	template *PromptTemplate
}

// New creates a composer. A nil template uses DefaultPromptTemplate.
func New(tmpl *PromptTemplate) *Composer {
	if tmpl == nil {
		tmpl = DefaultPromptTemplate()
	}
	return &Composer{template: tmpl}
}

// BuildPrompt renders the prompt for a question answered from passages.
// With no passages the context slot carries NoDocumentsContext.
func (c *Composer) BuildPrompt(profile *models.UserProfile, passages []models.Passage, question string) (string, error) {
	return c.template.Render(PromptInput{
		Profile:  FormatProfile(profile),
		Context:  FormatContext(passages),
		Question: question,
	})
}
