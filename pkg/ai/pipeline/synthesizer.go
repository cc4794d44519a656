package pipeline

import (
	"context"
	"fmt"
	"strings"

	"ai-legal-engine/internal/pkg/logger"
	"ai-legal-engine/pkg/llm"
	"ai-legal-engine/pkg/rag"
	"ai-legal-engine/pkg/rag/prompt"
	"ai-legal-engine/pkg/rag/retrieval"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// NoResponse is returned in place of an empty generation.
const NoResponse = "No response generated from the model."

const sourcePreviewLen = 200

// Source is a document passage shown alongside a document-mode answer.
type Source struct {
	Page    *int   `json:"page,omitempty"`
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
}

// Answer is a document-mode reply with the passages it was grounded on.
type Answer struct {
	Text    string
	Sources []Source
}

// Synthesizer renders a strategy prompt and asks the model for the answer.
type Synthesizer struct {
	provider llm.LLMProvider
	catalog  *prompt.Catalog
	document retrieval.Retriever
	logger   logger.ILogger
}

func NewSynthesizer(provider llm.LLMProvider, catalog *prompt.Catalog, document retrieval.Retriever, log logger.ILogger) *Synthesizer {
	return &Synthesizer{
		provider: provider,
		catalog:  catalog,
		document: document,
		logger:   log,
	}
}

// Synthesize answers with one of the specialized general-mode strategies.
// in.Context carries the fixed-corpus passages.
func (s *Synthesizer) Synthesize(ctx context.Context, strategy prompt.Strategy, in prompt.Input) (string, error) {
	if strategy == prompt.DocumentQA {
		a, err := s.AnswerDocument(ctx, in)
		return a.Text, err
	}

	ctx, span := otel.Tracer("ai-legal-engine/pipeline").Start(ctx, "Synthesize")
	defer span.End()
	span.SetAttributes(attribute.String("strategy", string(strategy)))

	text, err := s.catalog.Build(strategy, in)
	if err != nil {
		return "", fmt.Errorf("%w: %v", rag.ErrSynthesis, err)
	}
	return s.generate(ctx, strategy, text)
}

// AnswerDocument retrieves from the active document with the raw question and
// generates an answer with the history folded into the question text.
func (s *Synthesizer) AnswerDocument(ctx context.Context, in prompt.Input) (Answer, error) {
	ctx, span := otel.Tracer("ai-legal-engine/pipeline").Start(ctx, "AnswerDocument")
	defer span.End()

	if s.document == nil {
		return Answer{}, fmt.Errorf("%w: no document retriever configured", rag.ErrRetrieval)
	}
	res, err := s.document.Retrieve(ctx, in.Question)
	if err != nil {
		return Answer{}, err
	}
	span.SetAttributes(attribute.Int("passages", len(res.Passages)))

	question, err := s.catalog.BuildQuestion(prompt.DocumentQA, in)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %v", rag.ErrSynthesis, err)
	}
	text, err := s.catalog.Build(prompt.DocumentQA, prompt.Input{
		Context:  res.Context(),
		Question: question,
		Language: in.Language,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %v", rag.ErrSynthesis, err)
	}

	reply, err := s.generate(ctx, prompt.DocumentQA, text)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: reply, Sources: sourcesOf(res)}, nil
}

func (s *Synthesizer) generate(ctx context.Context, strategy prompt.Strategy, text string) (string, error) {
	settings, ok := s.catalog.Settings(strategy)
	if !ok {
		return "", fmt.Errorf("%w: unknown strategy %q", rag.ErrSynthesis, strategy)
	}

	reply, err := s.provider.Generate(ctx, text,
		llm.WithTemperature(settings.Temperature),
		llm.WithMaxTokens(settings.MaxTokens),
	)
	if err != nil {
		s.logger.Error("SYNTHESIZER", "Generation failed", map[string]interface{}{
			"strategy": string(strategy),
			"error":    err.Error(),
		})
		return "", fmt.Errorf("%w: %v", rag.ErrSynthesis, err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		s.logger.Warn("SYNTHESIZER", "Model returned an empty reply", map[string]interface{}{
			"strategy": string(strategy),
		})
		return NoResponse, nil
	}
	return reply, nil
}

func sourcesOf(res retrieval.Result) []Source {
	out := make([]Source, len(res.Passages))
	for i, p := range res.Passages {
		out[i] = Source{
			Page:    p.Page,
			Content: preview(p.Content),
			Source:  p.Source,
		}
	}
	return out
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > sourcePreviewLen {
		r = r[:sourcePreviewLen]
	}
	return string(r) + "..."
}
