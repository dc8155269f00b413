package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askpdf/internal/vecindex"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "askpdf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testMeta(documentID string, n int) IndexMetadata {
	meta := IndexMetadata{
		DocumentID:     documentID,
		Filename:       "report.pdf",
		ChunkSize:      800,
		Overlap:        120,
		EmbeddingModel: "text-embedding-3-small",
		NumChunks:      n,
	}
	for i := 0; i < n; i++ {
		meta.Chunks = append(meta.Chunks, ChunkMeta{
			ChunkID:    documentID + "_" + string(rune('0'+i)),
			Index:      i,
			StartChar:  i * 680,
			EndChar:    i*680 + 800,
			TextLength: 800,
			FullText:   "chunk text",
			Preview:    "chunk text",
		})
	}
	return meta
}

func TestDocuments(t *testing.T) {
	s := openTestStore(t)

	t.Run("get returns nil for unknown id", func(t *testing.T) {
		doc, err := s.GetDocument("missing")
		require.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("save then get round trips", func(t *testing.T) {
		err := s.SaveDocument(DocumentRecord{
			ID: "doc-1", Filename: "report.pdf", Path: "/tmp/doc-1_report.pdf", SizeBytes: 1234,
		})
		require.NoError(t, err)

		doc, err := s.GetDocument("doc-1")
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "report.pdf", doc.Filename)
		assert.Equal(t, int64(1234), doc.SizeBytes)
		assert.False(t, doc.UploadedAt.IsZero())
	})

	t.Run("list returns saved documents", func(t *testing.T) {
		require.NoError(t, s.SaveDocument(DocumentRecord{ID: "doc-2", Filename: "other.pdf", Path: "/tmp/doc-2_other.pdf"}))
		docs, err := s.ListDocuments()
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})
}

func TestIndexes(t *testing.T) {
	t.Run("load returns nil pair when absent", func(t *testing.T) {
		s := openTestStore(t)
		idx, meta, err := s.LoadIndex("doc-1")
		require.NoError(t, err)
		assert.Nil(t, idx)
		assert.Nil(t, meta)
	})

	t.Run("save then load round trips", func(t *testing.T) {
		s := openTestStore(t)
		idx, err := vecindex.Build([][]float32{{1, 0}, {0, 1}})
		require.NoError(t, err)
		require.NoError(t, s.SaveIndex("doc-1", idx, testMeta("doc-1", 2)))

		loaded, meta, err := s.LoadIndex("doc-1")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		require.NotNil(t, meta)
		assert.Equal(t, 2, loaded.Len())
		assert.Equal(t, 2, loaded.Dim())
		assert.Equal(t, testMeta("doc-1", 2), *meta)
	})

	t.Run("saving again replaces the pair", func(t *testing.T) {
		s := openTestStore(t)
		first, err := vecindex.Build([][]float32{{1, 0}, {0, 1}})
		require.NoError(t, err)
		require.NoError(t, s.SaveIndex("doc-1", first, testMeta("doc-1", 2)))

		second, err := vecindex.Build([][]float32{{1, 2, 3}})
		require.NoError(t, err)
		require.NoError(t, s.SaveIndex("doc-1", second, testMeta("doc-1", 1)))

		loaded, meta, err := s.LoadIndex("doc-1")
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.Len())
		assert.Equal(t, 3, loaded.Dim())
		assert.Len(t, meta.Chunks, 1)
	})

	t.Run("reports index presence", func(t *testing.T) {
		s := openTestStore(t)
		ok, err := s.HasIndex("doc-1")
		require.NoError(t, err)
		assert.False(t, ok)

		idx, err := vecindex.Build([][]float32{{1, 0}})
		require.NoError(t, err)
		require.NoError(t, s.SaveIndex("doc-1", idx, testMeta("doc-1", 1)))

		ok, err = s.HasIndex("doc-1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("detects row count desync at load", func(t *testing.T) {
		s := openTestStore(t)
		idx, err := vecindex.Build([][]float32{{1, 0}, {0, 1}, {1, 1}})
		require.NoError(t, err)
		require.NoError(t, s.SaveIndex("doc-1", idx, testMeta("doc-1", 2)))

		_, _, err = s.LoadIndex("doc-1")
		assert.ErrorIs(t, err, ErrDesync)
	})
}
