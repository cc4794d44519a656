package prompt

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Strategy names an answering strategy.
type Strategy string

const (
	OffenseClassification Strategy = "offense_classification"
	SectionExplanation    Strategy = "section_explanation"
	DocumentQA            Strategy = "document_qa"
)

// DefaultStrategy is used whenever routing cannot pick a destination.
const DefaultStrategy = OffenseClassification

//go:embed templates.yaml
var defaultTemplates []byte

// Settings is the catalog entry for one strategy.
type Settings struct {
	Strategy    Strategy `yaml:"strategy"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Route       bool     `yaml:"route"`
	Temperature float64  `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
	Template    string   `yaml:"template"`
	Question    string   `yaml:"question"`
}

type catalogFile struct {
	Refusal    string     `yaml:"refusal"`
	Router     string     `yaml:"router"`
	Strategies []Settings `yaml:"strategies"`
}

// Catalog holds strategy names, descriptions and prompt templates.
type Catalog struct {
	refusal    string
	router     *template.Template
	order      []Strategy
	settings   map[Strategy]Settings
	templates  map[Strategy]*template.Template
	questions  map[Strategy]*template.Template
	nameLookup map[string]Strategy
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Load(defaultTemplates)
}

// MustDefault is Default for package-level wiring where the embedded file is
// known to be valid.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load parses a catalog from YAML.
func Load(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}

	router, err := template.New("router").Parse(f.Router)
	if err != nil {
		return nil, fmt.Errorf("parse router template: %w", err)
	}

	c := &Catalog{
		refusal:    strings.TrimSpace(f.Refusal),
		router:     router,
		settings:   make(map[Strategy]Settings),
		templates:  make(map[Strategy]*template.Template),
		questions:  make(map[Strategy]*template.Template),
		nameLookup: make(map[string]Strategy),
	}

	for _, s := range f.Strategies {
		if s.Strategy == "" || s.Template == "" {
			return nil, fmt.Errorf("prompt catalog: strategy %q is incomplete", s.Name)
		}
		tmpl, err := template.New(string(s.Strategy)).Option("missingkey=error").Parse(s.Template)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", s.Strategy, err)
		}
		c.templates[s.Strategy] = tmpl
		if s.Question != "" {
			q, err := template.New(string(s.Strategy) + "_question").Parse(s.Question)
			if err != nil {
				return nil, fmt.Errorf("parse %s question template: %w", s.Strategy, err)
			}
			c.questions[s.Strategy] = q
		}
		c.settings[s.Strategy] = s
		c.order = append(c.order, s.Strategy)
		c.nameLookup[normalize(s.Name)] = s.Strategy
		c.nameLookup[normalize(string(s.Strategy))] = s.Strategy
	}

	if _, ok := c.settings[DefaultStrategy]; !ok {
		return nil, fmt.Errorf("prompt catalog: default strategy %s missing", DefaultStrategy)
	}
	return c, nil
}

// Refusal is the fixed reply for questions outside Indian criminal law.
func (c *Catalog) Refusal() string {
	return c.refusal
}

// Settings returns the entry for s.
func (c *Catalog) Settings(s Strategy) (Settings, bool) {
	st, ok := c.settings[s]
	return st, ok
}

// Routable lists the strategies the intent router may choose, in file order.
func (c *Catalog) Routable() []Settings {
	var out []Settings
	for _, s := range c.order {
		if st := c.settings[s]; st.Route {
			out = append(out, st)
		}
	}
	return out
}

// Lookup maps a router label (short name or strategy id, any case) to a
// routable strategy.
func (c *Catalog) Lookup(label string) (Strategy, bool) {
	s, ok := c.nameLookup[normalize(label)]
	if !ok || !c.settings[s].Route {
		return "", false
	}
	return s, true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
