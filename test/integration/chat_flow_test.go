package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ai-legal-engine/internal/bootstrap"
	"ai-legal-engine/internal/config"
	"ai-legal-engine/internal/dto"
	"ai-legal-engine/internal/pkg/logger"
	"ai-legal-engine/internal/server"
	"ai-legal-engine/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dimension = 4

// fakeOllama serves /api/embeddings and /api/chat. Router prompts get a
// "section" routing reply, everything else a canned answer.
type fakeOllama struct {
	routed   atomic.Int32
	answered atomic.Int32
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/api/embeddings":
		var req struct {
			Prompt string `json:"prompt"`
		}
		_ = json.Unmarshal(body, &req)
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": embedText(req.Prompt)})
	case "/api/chat":
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.Unmarshal(body, &req)
		prompt := req.Messages[len(req.Messages)-1].Content

		reply := "ANSWER: theft is covered by Section 378."
		if strings.Contains(prompt, "<< CANDIDATE PROMPTS >>") {
			f.routed.Add(1)
			reply = "```json\n{\"destination\": \"section\", \"next_inputs\": \"q\"}\n```"
		} else {
			f.answered.Add(1)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "fake",
			"message": map[string]string{"role": "assistant", "content": reply},
			"done":    true,
		})
	default:
		http.NotFound(w, r)
	}
}

// embedText maps text onto a few coarse features so related passages land
// near each other.
func embedText(text string) []float64 {
	t := strings.ToLower(text)
	return []float64{
		1,
		float64(strings.Count(t, "theft")),
		float64(strings.Count(t, "murder")),
		float64(strings.Count(t, "accused")),
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newApp(t *testing.T) (*fiber.App, *fakeOllama) {
	t.Helper()

	fake := &fakeOllama{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	corpus := filepath.Join(dir, "ipc.txt")
	require.NoError(t, os.WriteFile(corpus, []byte(
		"Section 378. Theft. Whoever intends to take dishonestly any movable property.\f"+
			"Section 300. Murder. Culpable homicide is murder if the act is done with intention."), 0o600))

	cfg := &config.Config{
		App: config.AppConfig{Port: "0", CorsAllowedOrigins: "*", UploadLimitMB: 5},
		Ai: config.AIConfig{
			LLMProvider:        "ollama",
			LLMModel:           "fake",
			LLMBaseURL:         srv.URL,
			EmbeddingProvider:  "ollama",
			EmbeddingModel:     "fake-embed",
			EmbeddingBaseURL:   srv.URL,
			EmbeddingDimension: dimension,
		},
		Index: config.IndexConfig{
			Backend:     config.BackendMemory,
			Corpus:      "legal-corpus",
			Document:    "active-document",
			Capacity:    10000,
			Dimension:   dimension,
			CorpusFiles: []string{corpus},
		},
		Session: config.SessionConfig{TTL: time.Hour, CleanupInterval: time.Minute},
	}

	container, err := bootstrap.NewContainer(context.Background(), nil, cfg, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	return server.New(cfg, container).GetApp(), fake
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (int, envelope) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return do(t, app, req)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func chat(t *testing.T, app *fiber.App, sessionID, message string) dto.ChatResponse {
	t.Helper()
	code, env := postJSON(t, app, "/api/chat/v1", dto.ChatRequest{SessionId: sessionID, Message: message})
	require.Equal(t, http.StatusOK, code, env.Message)

	var res dto.ChatResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res
}

func upload(t *testing.T, app *fiber.App, sessionID, name, content string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("session_id", sessionID))
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/document/v1/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return do(t, app, req)
}

func TestGeneralModeRoutesAndAnswers(t *testing.T) {
	app, fake := newApp(t)

	res := chat(t, app, "s1", "what is the punishment for theft?")

	assert.Equal(t, "s1", res.SessionId)
	assert.Equal(t, "GENERAL", res.Mode)
	assert.Contains(t, res.Response, "ANSWER")
	assert.Empty(t, res.Sources)
	assert.Equal(t, int32(1), fake.routed.Load())
	assert.Equal(t, int32(1), fake.answered.Load())
}

func TestDocumentModeLifecycle(t *testing.T) {
	app, _ := newApp(t)

	code, env := upload(t, app, "s2", "fir.txt", "FIR 12/2024. The accused entered the house.\fThe accused took a bicycle.")
	require.Equal(t, http.StatusOK, code, env.Message)
	var up dto.UploadDocumentResponse
	require.NoError(t, json.Unmarshal(env.Data, &up))
	assert.Equal(t, 2, up.TotalPages)
	assert.Equal(t, 2, up.TotalChunks)
	assert.Equal(t, "PDF processed successfully", up.Message)

	res := chat(t, app, "s2", "who is the accused?")
	assert.Equal(t, "DOCUMENT", res.Mode)
	require.NotEmpty(t, res.Sources)
	assert.NotNil(t, res.Sources[0].Page)

	res = chat(t, app, "s2", "please EXIT")
	assert.Equal(t, "GENERAL", res.Mode)
	assert.Equal(t, service.ExitAcknowledgment, res.Response)

	res = chat(t, app, "s2", "Return to PDF")
	assert.Equal(t, "DOCUMENT", res.Mode)
	assert.Equal(t, service.ReturnAcknowledgment, res.Response)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/v1/history?session_id=s2", nil)
	code, env = do(t, app, req)
	require.Equal(t, http.StatusOK, code)
	var hist dto.ChatHistoryResponse
	require.NoError(t, json.Unmarshal(env.Data, &hist))
	assert.Equal(t, "DOCUMENT", hist.Mode)
	require.Len(t, hist.Turns, 7)
	assert.Equal(t, "Uploaded PDF: fir.txt", hist.Turns[0].Text)

	req = httptest.NewRequest(http.MethodGet, "/api/document/v1/stats", nil)
	code, env = do(t, app, req)
	require.Equal(t, http.StatusOK, code)
	var stats dto.IndexStatsResponse
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 2, stats.VectorCount)
	assert.Equal(t, 10000, stats.Capacity)
}

func TestUnsupportedUploadKeepsGeneralMode(t *testing.T) {
	app, _ := newApp(t)

	code, env := upload(t, app, "s3", "brief.docx", "not really a docx")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)

	res := chat(t, app, "s3", "theft of a bicycle")
	assert.Equal(t, "GENERAL", res.Mode)
}

func TestResetUnknownSessionIsNotFound(t *testing.T) {
	app, _ := newApp(t)

	code, env := postJSON(t, app, "/api/chat/v1/reset", dto.ResetSessionRequest{SessionId: "missing"})

	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
}

func TestEmptyMessageRejected(t *testing.T) {
	app, _ := newApp(t)

	code, _ := postJSON(t, app, "/api/chat/v1", dto.ChatRequest{SessionId: "s4", Message: "   "})

	assert.Equal(t, http.StatusBadRequest, code)
}
