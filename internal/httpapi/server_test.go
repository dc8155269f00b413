package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"askpdf/internal/llm"
	"askpdf/internal/rag"
	"askpdf/internal/store"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Text(string) (string, error) { return f.text, f.err }

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		out = append(out, []float32{float32(len(t)), float32(strings.Count(t, "e")), 1})
	}
	return out, nil
}

func (fakeEmbedder) Model() string { return "fake-embedding" }

type fakeGenerator struct {
	reply string
	err   error
}

func (f *fakeGenerator) Generate(context.Context, string, string, float64, int) (*llm.Reply, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Reply{
		Text:  f.reply,
		Usage: llm.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}, nil
}

type testEnv struct {
	server    *Server
	store     *store.SQLiteStore
	extractor *fakeExtractor
	generator *fakeGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "askpdf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ex := &fakeExtractor{text: strings.Repeat("askpdf test corpus text. ", 100)}
	gen := &fakeGenerator{reply: "Answer from context."}
	pipeline := rag.New(s, ex, fakeEmbedder{}, gen, nil)

	srv, err := NewServer(s, pipeline, ex, gen, zap.NewNop(), &Config{
		Host:      "localhost",
		Port:      0,
		UploadDir: filepath.Join(dir, "uploads"),
		ChunkSize: 800,
		Overlap:   120,
	})
	require.NoError(t, err)

	return &testEnv{server: srv, store: s, extractor: ex, generator: gen}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.server.echo.ServeHTTP(rec, req)
	return rec
}

// addDocument registers a document record pointing at nothing; the
// fake extractor supplies the text.
func (e *testEnv) addDocument(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, e.store.SaveDocument(store.DocumentRecord{
		ID: id, Filename: "report.pdf", Path: "/unused.pdf", SizeBytes: 42,
	}))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUpload(t *testing.T) {
	makeUpload := func(t *testing.T, filename, contentType string) (*bytes.Buffer, string) {
		t.Helper()
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)}
		h["Content-Type"] = []string{contentType}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 fake content"))
		require.NoError(t, err)
		require.NoError(t, w.Close())
		return &buf, w.FormDataContentType()
	}

	t.Run("accepts a pdf and records it", func(t *testing.T) {
		env := newTestEnv(t)
		body, contentType := makeUpload(t, "report.pdf", "application/pdf")
		req := httptest.NewRequest(http.MethodPost, "/document/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		env.server.echo.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp uploadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.DocumentID)
		assert.Equal(t, "report.pdf", resp.Filename)

		doc, err := env.store.GetDocument(resp.DocumentID)
		require.NoError(t, err)
		require.NotNil(t, doc)
		_, err = os.Stat(doc.Path)
		assert.NoError(t, err)
	})

	t.Run("rejects non-pdf uploads", func(t *testing.T) {
		env := newTestEnv(t)
		body, contentType := makeUpload(t, "notes.txt", "text/plain")
		req := httptest.NewRequest(http.MethodPost, "/document/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		env.server.echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("rejects missing file field", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/document/upload", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExtractText(t *testing.T) {
	t.Run("returns a bounded preview", func(t *testing.T) {
		env := newTestEnv(t)
		env.addDocument(t, "doc-1")
		rec := env.do(t, http.MethodGet, "/document/doc-1/extract_text?max_chars=50", nil)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp extractResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 50, resp.ReturnedCharacters)
		assert.Len(t, resp.TextPreview, 50)
		assert.Greater(t, resp.NumCharacters, 50)
	})

	t.Run("404s for unknown document", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodGet, "/document/nope/extract_text", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestChunksPreview(t *testing.T) {
	t.Run("chunks with requested parameters", func(t *testing.T) {
		env := newTestEnv(t)
		env.addDocument(t, "doc-1")
		env.extractor.text = strings.Repeat("z", 1000)

		rec := env.do(t, http.MethodPost, "/document/doc-1/chunks", map[string]int{
			"chunk_size": 300, "overlap": 50,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp chunksResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 4, resp.NumChunks)
		assert.Equal(t, "doc-1_0", resp.Chunks[0].ChunkID)
		assert.Equal(t, 250, resp.Chunks[1].StartChar)
	})

	t.Run("400s on invalid parameters", func(t *testing.T) {
		env := newTestEnv(t)
		env.addDocument(t, "doc-1")
		rec := env.do(t, http.MethodPost, "/document/doc-1/chunks", map[string]int{
			"chunk_size": 100, "overlap": 100,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestIndexAndQuery(t *testing.T) {
	t.Run("indexes then answers", func(t *testing.T) {
		env := newTestEnv(t)
		env.addDocument(t, "doc-1")

		rec := env.do(t, http.MethodPost, "/rag/doc-1/index", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var stats rag.IndexStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Greater(t, stats.NumChunks, 0)
		assert.Equal(t, "fake-embedding", stats.EmbeddingModel)

		rec = env.do(t, http.MethodPost, "/rag/doc-1/query", map[string]any{
			"query": "what is this about?", "top_k": 3,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp queryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Answer from context.", resp.Answer)
		assert.NotEmpty(t, resp.Sources)
		assert.Equal(t, int64(120), resp.Usage.Total)
	})

	t.Run("404s when no index exists", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/rag/nope/query", map[string]any{"query": "anything"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("422s on blank query", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/rag/doc-1/query", map[string]any{"query": "   "})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("404s when indexing an unknown document", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/rag/nope/index", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestChat(t *testing.T) {
	t.Run("returns reply with usage", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/chat", map[string]any{
			"system_prompt": "You are concise.",
			"user_message":  "Say hello.",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp chatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Answer from context.", resp.Reply)
		assert.Equal(t, int64(120), resp.Usage.Total)
	})

	t.Run("400s on empty message", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/chat", map[string]any{"user_message": "  "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("502s on upstream failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.generator.err = fmt.Errorf("%w: boom", llm.ErrGeneration)
		rec := env.do(t, http.MethodPost, "/chat", map[string]any{"user_message": "hello"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}
