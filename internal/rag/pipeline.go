// Package rag orchestrates the retrieval pipeline: indexing a
// document's chunks into a vector index, and answering questions
// grounded in the chunks retrieved for a query.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"askpdf/internal/chunker"
	"askpdf/internal/embedder"
	"askpdf/internal/llm"
	"askpdf/internal/store"
	"askpdf/internal/vecindex"
)

var (
	// ErrNotFound is returned when the document or its index is missing.
	ErrNotFound = errors.New("document not found")
	// ErrEmptyQuery is returned when the query embeds to nothing.
	ErrEmptyQuery = errors.New("query is empty or invalid")
	// ErrNoContext is returned when the stored metadata has no chunks.
	// The document needs reindexing.
	ErrNoContext = errors.New("no chunks found in the document")
	// ErrEmptyContext is returned when every retrieved chunk has blank
	// text. The document needs reindexing.
	ErrEmptyContext = errors.New("retrieved chunks have no text content")
)

const (
	minTopK      = 1
	maxTopK      = 10
	minMaxTokens = 32
	maxMaxTokens = 600
	maxSearchK   = 30

	previewChars   = 200
	embedBatchSize = 32

	// emptyAnswer is the defined reply when search returns rows but
	// none resolve to stored chunks.
	emptyAnswer = "I don't know"
)

// Extractor turns a stored document file into plain text.
type Extractor interface {
	Text(path string) (string, error)
}

// Pipeline wires the retrieval components together. All collaborators
// are injected; the pipeline holds no global state and reloads the
// persisted index on every query.
type Pipeline struct {
	store     store.Store
	extractor Extractor
	embedder  embedder.Embedder
	generator llm.Generator
	logger    *zap.Logger
}

// New creates a pipeline from its collaborators. A nil logger disables
// logging.
func New(st store.Store, ex Extractor, emb embedder.Embedder, gen llm.Generator, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{store: st, extractor: ex, embedder: emb, generator: gen, logger: logger}
}

// IndexStats reports the result of indexing one document.
type IndexStats struct {
	DocumentID     string `json:"document_id"`
	Filename       string `json:"filename"`
	NumChunks      int    `json:"num_chunks"`
	Dimension      int    `json:"dimension"`
	EmbeddingModel string `json:"embedding_model"`
}

// Index extracts the document's text, chunks it, embeds the chunks,
// and persists the (index, metadata) pair, replacing any previous pair
// for the document.
func (p *Pipeline) Index(ctx context.Context, documentID string, chunkSize, overlap int) (*IndexStats, error) {
	doc, err := p.store.GetDocument(documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, documentID)
	}

	text, err := p.extractor.Text(doc.Path)
	if err != nil {
		return nil, err
	}

	chunks, err := chunker.Split(documentID, text, chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s produced no chunks", ErrNoContext, documentID)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	// Embed in sub-batches; chunk texts are never blank, so counts
	// line up with the input.
	embeddings := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := p.embedder.Embed(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedded %d of %d chunks", len(embeddings), len(chunks))
	}

	idx, err := vecindex.Build(embeddings)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	meta := store.IndexMetadata{
		DocumentID:     documentID,
		Filename:       doc.Filename,
		ChunkSize:      chunkSize,
		Overlap:        overlap,
		EmbeddingModel: p.embedder.Model(),
		NumChunks:      len(chunks),
		Chunks:         make([]store.ChunkMeta, len(chunks)),
	}
	for i, c := range chunks {
		meta.Chunks[i] = store.ChunkMeta{
			ChunkID:    c.ChunkID,
			Index:      c.Index,
			StartChar:  c.StartChar,
			EndChar:    c.EndChar,
			TextLength: len([]rune(c.Text)),
			FullText:   c.Text,
			Preview:    truncate(c.Text, previewChars),
		}
	}

	if err := p.store.SaveIndex(documentID, idx, meta); err != nil {
		return nil, err
	}

	p.logger.Info("indexed document",
		zap.String("document_id", documentID),
		zap.String("filename", doc.Filename),
		zap.Int("chunks", len(chunks)),
		zap.Int("dimension", idx.Dim()),
	)

	return &IndexStats{
		DocumentID:     documentID,
		Filename:       doc.Filename,
		NumChunks:      len(chunks),
		Dimension:      idx.Dim(),
		EmbeddingModel: p.embedder.Model(),
	}, nil
}

// Source identifies one chunk an answer was grounded in.
type Source struct {
	ChunkID string `json:"chunk_id"`
	Preview string `json:"preview"`
}

// Answer is the grounded reply with its sources and token usage.
type Answer struct {
	Answer  string    `json:"answer"`
	Sources []Source  `json:"sources"`
	Usage   llm.Usage `json:"-"`
}

// Ask loads the document's index, retrieves the chunks nearest to the
// query, and asks the generator to answer strictly from them.
func (p *Pipeline) Ask(ctx context.Context, documentID, query string, topK int, temperature float64, maxTokens int) (*Answer, error) {
	start := time.Now()
	topK = clamp(topK, minTopK, maxTopK)
	maxTokens = clamp(maxTokens, minMaxTokens, maxMaxTokens)

	idx, meta, err := p.store.LoadIndex(documentID)
	if err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, fmt.Errorf("%w: no index for %s", ErrNotFound, documentID)
	}

	qvecs, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(qvecs) == 0 {
		return nil, ErrEmptyQuery
	}

	// Over-fetch: raw rows may be out of range or duplicates, so pull
	// more than topK before narrowing.
	searchK := topK * 3
	if searchK > maxSearchK {
		searchK = maxSearchK
	}
	results, err := idx.Search(qvecs[0], searchK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	if len(meta.Chunks) == 0 {
		return nil, fmt.Errorf("%w: %s needs reindexing", ErrNoContext, documentID)
	}

	// Resolve row positions to chunk metadata, dropping sentinel slots
	// and anything past the metadata (index/metadata desync guard).
	var resolved []store.ChunkMeta
	for _, r := range results {
		if r.Pos < 0 || r.Pos >= len(meta.Chunks) {
			continue
		}
		resolved = append(resolved, meta.Chunks[r.Pos])
	}
	if len(resolved) == 0 {
		return &Answer{Answer: emptyAnswer, Sources: []Source{}}, nil
	}

	// Deduplicate by chunk ID, preserving first-seen order.
	seen := make(map[string]bool, len(resolved))
	var distinct []store.ChunkMeta
	for _, c := range resolved {
		if !seen[c.ChunkID] {
			seen[c.ChunkID] = true
			distinct = append(distinct, c)
		}
	}

	var contexts []string
	for _, c := range distinct {
		if strings.TrimSpace(c.FullText) != "" {
			contexts = append(contexts, c.FullText)
		}
	}
	if len(contexts) == 0 {
		return nil, fmt.Errorf("%w: %s needs reindexing", ErrEmptyContext, documentID)
	}

	prompt := BuildPrompt(query, contexts)
	reply, err := p.generator.Generate(ctx, AnswerSystemPrompt, prompt, temperature, maxTokens)
	if err != nil {
		return nil, err
	}

	sources := make([]Source, 0, len(distinct))
	for _, c := range distinct {
		sources = append(sources, Source{
			ChunkID: c.ChunkID,
			Preview: truncate(c.Preview, previewChars),
		})
	}

	p.logger.Info("answered query",
		zap.String("document_id", documentID),
		zap.Int("top_k", topK),
		zap.Int("search_k", searchK),
		zap.Int("sources", len(sources)),
		zap.Int64("total_tokens", reply.Usage.TotalTokens),
		zap.Duration("latency", time.Since(start)),
	)

	return &Answer{
		Answer:  strings.TrimSpace(reply.Text),
		Sources: sources,
		Usage:   reply.Usage,
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
