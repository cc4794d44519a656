package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ai-legal-engine/internal/dto"
	"ai-legal-engine/internal/pkg/logger"
	"ai-legal-engine/internal/repository/memory"
	"ai-legal-engine/pkg/ai/pipeline"
	"ai-legal-engine/pkg/ai/router"
	"ai-legal-engine/pkg/events"
	"ai-legal-engine/pkg/rag"
	"ai-legal-engine/pkg/rag/prompt"
	"ai-legal-engine/pkg/rag/retrieval"
	"ai-legal-engine/pkg/rag/session"
	"ai-legal-engine/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetriever struct {
	result retrieval.Result
	err    error
	calls  int
}

func (f *fakeRetriever) Retrieve(context.Context, string) (retrieval.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeRouter struct {
	decision router.Decision
	calls    int
}

func (f *fakeRouter) Classify(context.Context, string) router.Decision {
	f.calls++
	return f.decision
}

type synthCall struct {
	strategy prompt.Strategy
	input    prompt.Input
}

type fakeSynthesizer struct {
	reply  string
	answer pipeline.Answer
	err    error
	calls  []synthCall
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, s prompt.Strategy, in prompt.Input) (string, error) {
	f.calls = append(f.calls, synthCall{strategy: s, input: in})
	return f.reply, f.err
}

func (f *fakeSynthesizer) AnswerDocument(_ context.Context, in prompt.Input) (pipeline.Answer, error) {
	f.calls = append(f.calls, synthCall{strategy: prompt.DocumentQA, input: in})
	return f.answer, f.err
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

type chatFixture struct {
	svc       IChatService
	sessions  *session.Manager
	corpus    *fakeRetriever
	router    *fakeRouter
	synth     *fakeSynthesizer
	publisher *recordingPublisher
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		sessions: session.NewManager(memory.NewSessionRepository(time.Hour, time.Hour)),
		corpus: &fakeRetriever{result: retrieval.Result{Passages: []retrieval.Passage{
			{Content: "Section 378. Theft."},
			{Content: "Section 379. Punishment for theft."},
		}}},
		router:    &fakeRouter{decision: router.Decision{Destination: prompt.SectionExplanation}},
		synth:     &fakeSynthesizer{reply: "Theft is punishable.", answer: pipeline.Answer{Text: "From the FIR."}},
		publisher: &recordingPublisher{},
	}
	f.svc = NewChatService(f.sessions, f.corpus, f.router, f.synth, f.publisher, logger.NewNopLogger())
	return f
}

func (f *chatFixture) send(t *testing.T, sessionID, msg string) *dto.ChatResponse {
	t.Helper()
	res, err := f.svc.SendChat(context.Background(), &dto.ChatRequest{SessionId: sessionID, Message: msg, Language: "English"})
	require.NoError(t, err)
	return res
}

func TestSendChatGeneralMode(t *testing.T) {
	f := newChatFixture()

	res := f.send(t, "s1", "what is the punishment for theft")

	assert.Equal(t, "Theft is punishable.", res.Response)
	assert.Equal(t, "GENERAL", res.Mode)
	assert.Equal(t, "s1", res.SessionId)
	require.Len(t, f.synth.calls, 1)
	call := f.synth.calls[0]
	assert.Equal(t, prompt.SectionExplanation, call.strategy)
	assert.Equal(t, "Section 378. Theft.\nSection 379. Punishment for theft.", call.input.Context)
	assert.Equal(t, "", call.input.History)

	sess, ok := f.sessions.Find("s1")
	require.True(t, ok)
	assert.Equal(t, 2, sess.Log.Len())
}

func TestSendChatEmptyMessage(t *testing.T) {
	f := newChatFixture()

	for _, msg := range []string{"", "   \n\t"} {
		_, err := f.svc.SendChat(context.Background(), &dto.ChatRequest{SessionId: "s1", Message: msg})
		assert.ErrorIs(t, err, rag.ErrEmptyInput)
	}

	_, ok := f.sessions.Find("s1")
	assert.False(t, ok)
}

func TestSendChatNoRelevantDocuments(t *testing.T) {
	f := newChatFixture()
	f.corpus.result = retrieval.Result{}

	res := f.send(t, "s1", "banana recipe")

	assert.Equal(t, NoRelevantDocuments, res.Response)
	assert.Equal(t, 0, f.router.calls)
	assert.Empty(t, f.synth.calls)

	sess, _ := f.sessions.Find("s1")
	assert.Equal(t, 2, sess.Log.Len())
}

func TestSendChatModeCommands(t *testing.T) {
	f := newChatFixture()

	res := f.send(t, "s1", "Return to PDF please")
	assert.Equal(t, ReturnAcknowledgment, res.Response)
	assert.Equal(t, "DOCUMENT", res.Mode)

	res = f.send(t, "s1", "who is the complainant?")
	assert.Equal(t, "From the FIR.", res.Response)
	assert.Equal(t, "DOCUMENT", res.Mode)

	res = f.send(t, "s1", "please exit now")
	assert.Equal(t, ExitAcknowledgment, res.Response)
	assert.Equal(t, "GENERAL", res.Mode)

	assert.Equal(t, 0, f.corpus.calls)
	require.Len(t, f.synth.calls, 1)
	assert.Equal(t, prompt.DocumentQA, f.synth.calls[0].strategy)

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, "DOCUMENT", f.publisher.events[0].Payload()["mode"])
	assert.Equal(t, "GENERAL", f.publisher.events[1].Payload()["mode"])
}

func TestSendChatExitFromGeneralStaysGeneral(t *testing.T) {
	f := newChatFixture()

	res := f.send(t, "s1", "EXIT")

	assert.Equal(t, "GENERAL", res.Mode)
	assert.Equal(t, 0, f.corpus.calls)
}

func TestSendChatDocumentModeReturnsSources(t *testing.T) {
	f := newChatFixture()
	page := 4
	f.synth.answer = pipeline.Answer{Text: "Ramesh.", Sources: []pipeline.Source{{Page: &page, Content: "Accused: Ramesh...", Source: "fir.pdf"}}}
	sess := f.sessions.LoadOrCreate("s1")
	f.sessions.SetMode(sess, store.ModeDocument)

	res := f.send(t, "s1", "who is the accused?")

	require.Len(t, res.Sources, 1)
	assert.Equal(t, 4, *res.Sources[0].Page)
	assert.Equal(t, "fir.pdf", res.Sources[0].Source)
}

func TestSendChatWindowExcludesCurrentMessage(t *testing.T) {
	f := newChatFixture()

	for i := 0; i < 4; i++ {
		f.send(t, "s1", fmt.Sprintf("question %d", i))
	}

	last := f.synth.calls[len(f.synth.calls)-1].input.History
	assert.Equal(t,
		"user: question 0\nbot: Theft is punishable.\nuser: question 1\nbot: Theft is punishable.\nuser: question 2\nbot: Theft is punishable.",
		last)
	assert.NotContains(t, last, "question 3")
}

func TestSendChatFailureKeepsUserTurnOnly(t *testing.T) {
	f := newChatFixture()
	f.synth.err = fmt.Errorf("%w: timeout", rag.ErrSynthesis)

	_, err := f.svc.SendChat(context.Background(), &dto.ChatRequest{SessionId: "s1", Message: "section 420"})

	assert.ErrorIs(t, err, rag.ErrSynthesis)
	sess, _ := f.sessions.Find("s1")
	turns := sess.Log.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "section 420", turns[0].Text)
}

func TestSendChatRetrievalFailure(t *testing.T) {
	f := newChatFixture()
	f.corpus.err = fmt.Errorf("%w: connection refused", rag.ErrRetrieval)

	_, err := f.svc.SendChat(context.Background(), &dto.ChatRequest{SessionId: "s1", Message: "section 420"})

	assert.ErrorIs(t, err, rag.ErrRetrieval)
	assert.Equal(t, 0, f.router.calls)
}

func TestSendChatBlankSessionGetsID(t *testing.T) {
	f := newChatFixture()

	res := f.send(t, "", "section 302")

	assert.NotEmpty(t, res.SessionId)
	_, ok := f.sessions.Find(res.SessionId)
	assert.True(t, ok)
}

func TestResetAndHistory(t *testing.T) {
	f := newChatFixture()
	f.send(t, "s1", "return to pdf")

	h, err := f.svc.GetHistory(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "DOCUMENT", h.Mode)
	require.Len(t, h.Turns, 2)
	assert.Equal(t, "user", h.Turns[0].Sender)
	assert.Equal(t, "bot", h.Turns[1].Sender)

	require.NoError(t, f.svc.ResetSession(context.Background(), &dto.ResetSessionRequest{SessionId: "s1"}))

	h, err = f.svc.GetHistory(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "GENERAL", h.Mode)
	assert.Empty(t, h.Turns)

	err = f.svc.ResetSession(context.Background(), &dto.ResetSessionRequest{SessionId: "missing"})
	assert.True(t, errors.Is(err, session.ErrNotFound))
	_, err = f.svc.GetHistory(context.Background(), "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)
}
