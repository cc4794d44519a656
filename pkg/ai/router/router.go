package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ai-legal-engine/internal/pkg/logger"
	"ai-legal-engine/pkg/llm"
	"ai-legal-engine/pkg/rag"
	"ai-legal-engine/pkg/rag/prompt"
)

const routerTemperature = 0.1

// Decision is the strategy chosen for a general-mode query.
type Decision struct {
	Destination prompt.Strategy
	// Fallback is set when the default was used because routing failed.
	Fallback bool
}

// Router asks the model which specialized strategy suits a query.
type Router struct {
	provider llm.LLMProvider
	catalog  *prompt.Catalog
	logger   logger.ILogger
}

func NewRouter(provider llm.LLMProvider, catalog *prompt.Catalog, log logger.ILogger) *Router {
	return &Router{
		provider: provider,
		catalog:  catalog,
		logger:   log,
	}
}

// Classify always returns a decision. Provider errors, timeouts, malformed
// output and unknown labels all resolve to the default strategy.
func (r *Router) Classify(ctx context.Context, query string) Decision {
	label, err := r.label(ctx, query)
	if err != nil {
		r.logger.Warn("ROUTER", "Routing failed, using default strategy", map[string]interface{}{
			"error":    err.Error(),
			"default":  string(prompt.DefaultStrategy),
			"question": truncateLog(query, 50),
		})
		return Decision{Destination: prompt.DefaultStrategy, Fallback: true}
	}

	s, ok := r.catalog.Lookup(label)
	if !ok {
		r.logger.Debug("ROUTER", "No matching destination, using default strategy", map[string]interface{}{
			"label": label,
		})
		return Decision{Destination: prompt.DefaultStrategy}
	}

	r.logger.Debug("ROUTER", "Routed query", map[string]interface{}{
		"label":    label,
		"strategy": string(s),
	})
	return Decision{Destination: s}
}

func (r *Router) label(ctx context.Context, query string) (string, error) {
	instruction, err := r.catalog.BuildRouter(query)
	if err != nil {
		return "", fmt.Errorf("%w: %v", rag.ErrRouting, err)
	}

	out, err := r.provider.Generate(ctx, instruction, llm.WithTemperature(routerTemperature))
	if err != nil {
		return "", fmt.Errorf("%w: %v", rag.ErrRouting, err)
	}
	return ParseDestination(out)
}

type routerOutput struct {
	Destination string `json:"destination"`
	NextInputs  string `json:"next_inputs"`
}

// ParseDestination extracts the destination label from a router reply. The
// reply is expected to hold one JSON object, optionally inside a markdown
// fence.
func ParseDestination(reply string) (string, error) {
	obj, err := extractJSON(reply)
	if err != nil {
		return "", err
	}

	var parsed routerOutput
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return "", fmt.Errorf("%w: decode router output: %v", rag.ErrRouting, err)
	}
	dest := strings.TrimSpace(parsed.Destination)
	if dest == "" {
		return "", fmt.Errorf("%w: router output has no destination", rag.ErrRouting)
	}
	return dest, nil
}

var errNoJSON = errors.New("no JSON object in router output")

func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", fmt.Errorf("%w: %w", rag.ErrRouting, errNoJSON)
	}
	return s[start : end+1], nil
}

// truncateLog truncates string for logging, keeping whole runes
func truncateLog(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
