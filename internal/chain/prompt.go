package chain

import (
	"errors"
	"fmt"
	"regexp"
)

var ErrInvalidTemplate = errors.New("invalid prompt template")

// medicalPromptText keeps the model to the retrieved context and a short answer.
const medicalPromptText = ` Answer the following medical question in 2-3 lines maximum using only the information provided in the context.

Context:
{context}

Question:
{question}

Answer:
`

var slotPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// PromptTemplate is an immutable prompt with named {slot} placeholders.
type PromptTemplate struct {
	text      string
	variables []string
}

// NewPromptTemplate declares a template over text. Every declared variable must
// appear as a slot and every slot must be declared.
func NewPromptTemplate(text string, variables ...string) (*PromptTemplate, error) {
	declared := make(map[string]bool, len(variables))
	for _, v := range variables {
		if declared[v] {
			return nil, fmt.Errorf("%w: variable %q declared twice", ErrInvalidTemplate, v)
		}
		declared[v] = true
	}

	found := make(map[string]bool)
	for _, m := range slotPattern.FindAllStringSubmatch(text, -1) {
		if !declared[m[1]] {
			return nil, fmt.Errorf("%w: slot {%s} is not a declared variable", ErrInvalidTemplate, m[1])
		}
		found[m[1]] = true
	}
	for _, v := range variables {
		if !found[v] {
			return nil, fmt.Errorf("%w: variable %q has no {%s} slot", ErrInvalidTemplate, v, v)
		}
	}

	return &PromptTemplate{
		text:      text,
		variables: append([]string(nil), variables...),
	}, nil
}

// MedicalPrompt returns the template used for medical answers, with the
// context and question slots.
func MedicalPrompt() *PromptTemplate {
	t, err := NewPromptTemplate(medicalPromptText, "context", "question")
	if err != nil {
		panic(err)
	}
	return t
}

// Text returns the raw template text
func (t *PromptTemplate) Text() string {
	return t.text
}

// Variables returns the declared slot names
func (t *PromptTemplate) Variables() []string {
	return append([]string(nil), t.variables...)
}

// Format fills every slot from values. A declared variable missing from values
// is an error; extra values are ignored. Substituted text is not rescanned.
func (t *PromptTemplate) Format(values map[string]string) (string, error) {
	for _, v := range t.variables {
		if _, ok := values[v]; !ok {
			return "", fmt.Errorf("%w: missing value for %q", ErrInvalidTemplate, v)
		}
	}

	return slotPattern.ReplaceAllStringFunc(t.text, func(slot string) string {
		return values[slot[1:len(slot)-1]]
	}), nil
}
