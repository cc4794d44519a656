package service

import (
	"context"
	"fmt"
	"strings"

	"ai-legal-engine/internal/dto"
	"ai-legal-engine/internal/pkg/logger"
	"ai-legal-engine/pkg/ai/pipeline"
	"ai-legal-engine/pkg/ai/router"
	"ai-legal-engine/pkg/events"
	"ai-legal-engine/pkg/rag"
	"ai-legal-engine/pkg/rag/conversation"
	"ai-legal-engine/pkg/rag/prompt"
	"ai-legal-engine/pkg/rag/retrieval"
	"ai-legal-engine/pkg/rag/session"
	"ai-legal-engine/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Fixed replies that bypass retrieval and generation.
const (
	ExitAcknowledgment   = "You've exited PDF mode. Feel free to ask me any legal questions related to Indian criminal Law."
	ReturnAcknowledgment = "You've returned PDF mode. Feel free to ask me any legal questions related to Indian criminal Law."
	NoRelevantDocuments  = "No relevant documents found."
)

// IntentRouter picks the specialized strategy for a general-mode query.
type IntentRouter interface {
	Classify(ctx context.Context, query string) router.Decision
}

// AnswerSynthesizer produces grounded answers.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, strategy prompt.Strategy, in prompt.Input) (string, error)
	AnswerDocument(ctx context.Context, in prompt.Input) (pipeline.Answer, error)
}

// EventPublisher emits domain events. Implementations must tolerate being
// called without a broker.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IChatService interface {
	SendChat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error)
	ResetSession(ctx context.Context, request *dto.ResetSessionRequest) error
	GetHistory(ctx context.Context, sessionId string) (*dto.ChatHistoryResponse, error)
}

type chatService struct {
	sessions    *session.Manager
	corpus      retrieval.Retriever
	router      IntentRouter
	synthesizer AnswerSynthesizer
	publisher   EventPublisher
	logger      logger.ILogger
}

func NewChatService(
	sessions *session.Manager,
	corpus retrieval.Retriever,
	router IntentRouter,
	synthesizer AnswerSynthesizer,
	publisher EventPublisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		sessions:    sessions,
		corpus:      corpus,
		router:      router,
		synthesizer: synthesizer,
		publisher:   publisher,
		logger:      log,
	}
}

// SendChat dispatches one message according to the session's mode. The user
// turn is always recorded; the bot turn only when a reply was produced.
func (s *chatService) SendChat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error) {
	message := strings.TrimSpace(request.Message)
	if message == "" {
		return nil, rag.ErrEmptyInput
	}

	ctx, span := otel.Tracer("ai-legal-engine/chat").Start(ctx, "SendChat")
	defer span.End()

	sess := s.sessions.LoadOrCreate(request.SessionId)
	span.SetAttributes(attribute.String("session.id", sess.ID))

	switch router.ParseCommand(message) {
	case router.CommandExit:
		return s.switchMode(ctx, sess, message, store.ModeGeneral, ExitAcknowledgment), nil
	case router.CommandReturnToDocument:
		return s.switchMode(ctx, sess, message, store.ModeDocument, ReturnAcknowledgment), nil
	}

	// Snapshot under the lock, then release it for the network calls.
	sess.Lock()
	mode := sess.Mode
	history := sess.Log.Window(conversation.DefaultWindow)
	sess.Log.AppendUser(message)
	sess.Unlock()

	span.SetAttributes(attribute.String("session.mode", string(mode)))

	input := prompt.Input{
		Question: message,
		Language: request.Language,
		History:  history,
	}

	var (
		reply   string
		sources []dto.SourceDTO
		err     error
	)
	if mode == store.ModeDocument {
		reply, sources, err = s.answerDocument(ctx, input)
	} else {
		reply, err = s.answerGeneral(ctx, input)
	}
	if err != nil {
		s.logger.Error("CHAT", "Failed to answer message", map[string]interface{}{
			"session_id": sess.ID,
			"mode":       string(mode),
			"error":      err.Error(),
		})
		return nil, err
	}

	sess.Lock()
	sess.Log.AppendBot(reply)
	sess.Unlock()

	return &dto.ChatResponse{
		SessionId: sess.ID,
		Response:  reply,
		Mode:      string(mode),
		Sources:   sources,
	}, nil
}

func (s *chatService) switchMode(ctx context.Context, sess *store.Session, message string, mode store.Mode, ack string) *dto.ChatResponse {
	sess.Lock()
	sess.Log.AppendUser(message)
	sess.Mode = mode
	sess.Log.AppendBot(ack)
	sess.Unlock()

	if err := s.publisher.Publish(ctx, events.ModeChanged(sess.ID, string(mode))); err != nil {
		s.logger.Warn("CHAT", "Failed to publish mode change", map[string]interface{}{"error": err.Error()})
	}
	s.logger.Info("CHAT", "Session mode changed", map[string]interface{}{
		"session_id": sess.ID,
		"mode":       string(mode),
	})

	return &dto.ChatResponse{
		SessionId: sess.ID,
		Response:  ack,
		Mode:      string(mode),
	}
}

func (s *chatService) answerDocument(ctx context.Context, in prompt.Input) (string, []dto.SourceDTO, error) {
	answer, err := s.synthesizer.AnswerDocument(ctx, in)
	if err != nil {
		return "", nil, err
	}
	sources := make([]dto.SourceDTO, len(answer.Sources))
	for i, src := range answer.Sources {
		sources[i] = dto.SourceDTO{Page: src.Page, Content: src.Content, Source: src.Source}
	}
	return answer.Text, sources, nil
}

func (s *chatService) answerGeneral(ctx context.Context, in prompt.Input) (string, error) {
	res, err := s.corpus.Retrieve(ctx, in.Question)
	if err != nil {
		return "", err
	}
	if res.Empty() {
		return NoRelevantDocuments, nil
	}

	decision := s.router.Classify(ctx, in.Question)
	s.logger.Debug("CHAT", "Query routed", map[string]interface{}{
		"strategy": string(decision.Destination),
		"fallback": decision.Fallback,
		"passages": len(res.Passages),
	})

	in.Context = res.Context()
	return s.synthesizer.Synthesize(ctx, decision.Destination, in)
}

func (s *chatService) ResetSession(ctx context.Context, request *dto.ResetSessionRequest) error {
	if !s.sessions.Reset(request.SessionId) {
		return fmt.Errorf("%w: %s", session.ErrNotFound, request.SessionId)
	}
	s.logger.Info("CHAT", "Session reset", map[string]interface{}{"session_id": request.SessionId})
	return nil
}

func (s *chatService) GetHistory(ctx context.Context, sessionId string) (*dto.ChatHistoryResponse, error) {
	sess, ok := s.sessions.Find(sessionId)
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, sessionId)
	}

	sess.Lock()
	turns := sess.Log.Turns()
	mode := sess.Mode
	sess.Unlock()

	out := make([]*dto.TurnResponse, len(turns))
	for i, t := range turns {
		out[i] = &dto.TurnResponse{Sender: string(t.Sender), Text: t.Text}
	}
	return &dto.ChatHistoryResponse{
		SessionId: sess.ID,
		Mode:      string(mode),
		Turns:     out,
	}, nil
}
