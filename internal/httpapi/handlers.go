package httpapi

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"askpdf/internal/chunker"
	"askpdf/internal/llm"
	"askpdf/internal/store"
)

// guardrailPrompt is prepended to the system prompt when a chat
// request asks for guardrails.
const guardrailPrompt = "If the answer to the question is not known based on " +
	"the provided context, respond with 'I don't know based on the provided context.' "

const (
	chatMinTokens = 16
	chatMaxTokens = 800

	defaultExtractPreview = 2000
)

type usagePayload struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	Total            int64 `json:"total"`
}

func usageFrom(u llm.Usage) usagePayload {
	return usagePayload{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		Total:            u.TotalTokens,
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// --- /chat ---

type chatRequest struct {
	SystemPrompt string  `json:"system_prompt"`
	UserMessage  string  `json:"user_message"`
	Temperature  float64 `json:"temperature"`
	GuardRails   *bool   `json:"guard_rails"`
	MaxTokens    int     `json:"max_tokens"`
}

type chatResponse struct {
	Reply     string       `json:"reply"`
	LatencyMS int64        `json:"latency_ms"`
	Usage     usagePayload `json:"usage"`
}

func (s *Server) handleChat(c echo.Context) error {
	req := chatRequest{Temperature: 0.7, MaxTokens: 256}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_message is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens < chatMinTokens {
		maxTokens = chatMinTokens
	}
	if maxTokens > chatMaxTokens {
		maxTokens = chatMaxTokens
	}

	system := req.SystemPrompt
	if req.GuardRails == nil || *req.GuardRails {
		system = guardrailPrompt + system
	}

	start := time.Now()
	reply, err := s.generator.Generate(c.Request().Context(), system, req.UserMessage, req.Temperature, maxTokens)
	if err != nil {
		s.logger.Error("chat generation failed", zap.Error(err), zap.Duration("latency", time.Since(start)))
		return httpError(err)
	}

	return c.JSON(http.StatusOK, chatResponse{
		Reply:     reply.Text,
		LatencyMS: time.Since(start).Milliseconds(),
		Usage:     usageFrom(reply.Usage),
	})
}

// --- /document/upload ---

type uploadResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Message    string `json:"message"`
}

func (s *Server) handleUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file field")
	}
	contentType := fileHeader.Header.Get(echo.HeaderContentType)
	if contentType != "application/pdf" && !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "only PDF files are supported")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read upload")
	}
	defer src.Close()

	if err := os.MkdirAll(s.config.UploadDir, 0o755); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save the document")
	}
	documentID := uuid.NewString()
	filename := filepath.Base(fileHeader.Filename)
	path := filepath.Join(s.config.UploadDir, documentID+"_"+filename)

	dst, err := os.Create(path)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save the document")
	}
	size, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save the document")
	}

	if err := s.store.SaveDocument(store.DocumentRecord{
		ID:        documentID,
		Filename:  filename,
		Path:      path,
		SizeBytes: size,
	}); err != nil {
		os.Remove(path)
		s.logger.Error("save document record failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save the document")
	}

	s.logger.Info("document uploaded",
		zap.String("document_id", documentID),
		zap.String("filename", filename),
		zap.Int64("size_bytes", size),
	)
	return c.JSON(http.StatusOK, uploadResponse{
		DocumentID: documentID,
		Filename:   filename,
		Message:    "file uploaded successfully",
	})
}

// --- /document/:id/extract_text ---

type extractResponse struct {
	DocumentID         string `json:"document_id"`
	Filename           string `json:"filename"`
	NumCharacters      int    `json:"num_characters"`
	ReturnedCharacters int    `json:"returned_characters"`
	TextPreview        string `json:"text_preview"`
}

func (s *Server) handleExtractText(c echo.Context) error {
	doc, err := s.store.GetDocument(c.Param("id"))
	if err != nil {
		s.logger.Error("get document failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if doc == nil {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}

	maxChars := defaultExtractPreview
	if raw := c.QueryParam("max_chars"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			maxChars = n
		}
	}

	text, err := s.extractor.Text(doc.Path)
	if err != nil {
		return httpError(err)
	}

	runes := []rune(text)
	preview := runes
	if len(preview) > maxChars {
		preview = preview[:maxChars]
	}
	return c.JSON(http.StatusOK, extractResponse{
		DocumentID:         doc.ID,
		Filename:           doc.Filename,
		NumCharacters:      len(runes),
		ReturnedCharacters: len(preview),
		TextPreview:        string(preview),
	})
}

// --- /document/:id/chunks ---

type chunksRequest struct {
	ChunkSize int `json:"chunk_size"`
	Overlap   int `json:"overlap"`
}

type chunkPayload struct {
	ChunkID    string `json:"chunk_id"`
	Index      int    `json:"index"`
	StartChar  int    `json:"start_char"`
	EndChar    int    `json:"end_char"`
	TextLength int    `json:"text_length"`
	Preview    string `json:"preview"`
}

type chunksResponse struct {
	DocumentID string         `json:"document_id"`
	ChunkSize  int            `json:"chunk_size"`
	Overlap    int            `json:"overlap"`
	NumChunks  int            `json:"num_chunks"`
	Chunks     []chunkPayload `json:"chunks"`
}

// handleChunks previews chunking without persisting anything.
func (s *Server) handleChunks(c echo.Context) error {
	req := chunksRequest{ChunkSize: s.config.ChunkSize, Overlap: s.config.Overlap}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	doc, err := s.store.GetDocument(c.Param("id"))
	if err != nil {
		s.logger.Error("get document failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if doc == nil {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}

	text, err := s.extractor.Text(doc.Path)
	if err != nil {
		return httpError(err)
	}
	chunks, err := chunker.Split(doc.ID, text, req.ChunkSize, req.Overlap)
	if err != nil {
		return httpError(err)
	}

	payload := make([]chunkPayload, len(chunks))
	for i, ch := range chunks {
		preview := []rune(ch.Text)
		if len(preview) > 200 {
			preview = preview[:200]
		}
		payload[i] = chunkPayload{
			ChunkID:    ch.ChunkID,
			Index:      ch.Index,
			StartChar:  ch.StartChar,
			EndChar:    ch.EndChar,
			TextLength: len([]rune(ch.Text)),
			Preview:    string(preview),
		}
	}
	return c.JSON(http.StatusOK, chunksResponse{
		DocumentID: doc.ID,
		ChunkSize:  req.ChunkSize,
		Overlap:    req.Overlap,
		NumChunks:  len(chunks),
		Chunks:     payload,
	})
}

// --- /rag/:id/index ---

type indexRequest struct {
	ChunkSize int `json:"chunk_size"`
	Overlap   int `json:"overlap"`
}

func (s *Server) handleIndex(c echo.Context) error {
	req := indexRequest{ChunkSize: s.config.ChunkSize, Overlap: s.config.Overlap}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	stats, err := s.pipeline.Index(c.Request().Context(), c.Param("id"), req.ChunkSize, req.Overlap)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// --- /rag/:id/query ---

type queryRequest struct {
	Query       string  `json:"query"`
	TopK        int     `json:"top_k"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type queryResponse struct {
	Answer  string       `json:"answer"`
	Sources []ragSource  `json:"sources"`
	Usage   usagePayload `json:"usage"`
}

type ragSource struct {
	ChunkID string `json:"chunk_id"`
	Preview string `json:"preview"`
}

func (s *Server) handleQuery(c echo.Context) error {
	req := queryRequest{TopK: 5, Temperature: 0.7, MaxTokens: 200}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "query is empty or invalid")
	}

	ans, err := s.pipeline.Ask(c.Request().Context(), c.Param("id"), req.Query, req.TopK, req.Temperature, req.MaxTokens)
	if err != nil {
		return httpError(err)
	}

	sources := make([]ragSource, len(ans.Sources))
	for i, src := range ans.Sources {
		sources[i] = ragSource{ChunkID: src.ChunkID, Preview: src.Preview}
	}
	return c.JSON(http.StatusOK, queryResponse{
		Answer:  ans.Answer,
		Sources: sources,
		Usage:   usageFrom(ans.Usage),
	})
}
