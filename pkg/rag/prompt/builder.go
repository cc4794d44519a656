package prompt

import (
	"fmt"
	"strings"
)

// DefaultLanguage is used when a request does not name one.
const DefaultLanguage = "English"

// Input carries the values substituted into a strategy template.
type Input struct {
	Context  string
	Question string
	Language string
	History  string
}

type templateData struct {
	Input
	Refusal string
}

type routerData struct {
	Destinations []Settings
	Input        string
}

// Build renders the prompt for strategy s.
func (c *Catalog) Build(s Strategy, in Input) (string, error) {
	tmpl, ok := c.templates[s]
	if !ok {
		return "", fmt.Errorf("unknown strategy %q", s)
	}
	if strings.TrimSpace(in.Language) == "" {
		in.Language = DefaultLanguage
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, templateData{Input: in, Refusal: c.refusal}); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", s, err)
	}
	return sb.String(), nil
}

// BuildQuestion folds history and language into the question text for
// strategies that take a single question string. Strategies without a
// question template return the question unchanged.
func (c *Catalog) BuildQuestion(s Strategy, in Input) (string, error) {
	tmpl, ok := c.questions[s]
	if !ok {
		return in.Question, nil
	}
	if strings.TrimSpace(in.Language) == "" {
		in.Language = DefaultLanguage
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, in); err != nil {
		return "", fmt.Errorf("render %s question: %w", s, err)
	}
	return sb.String(), nil
}

// BuildRouter renders the routing instruction for a raw query.
func (c *Catalog) BuildRouter(query string) (string, error) {
	var sb strings.Builder
	if err := c.router.Execute(&sb, routerData{Destinations: c.Routable(), Input: query}); err != nil {
		return "", fmt.Errorf("render router prompt: %w", err)
	}
	return sb.String(), nil
}
