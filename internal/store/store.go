package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"askpdf/internal/vecindex"
)

// ErrDesync is returned when a loaded index and its metadata disagree
// on the number of rows. The document needs reindexing.
var ErrDesync = errors.New("index and metadata row counts disagree")

// Store provides persistence for uploaded documents and their
// per-document (vector index, metadata) pairs.
type Store interface {
	// SaveDocument records an uploaded document.
	SaveDocument(doc DocumentRecord) error
	// GetDocument returns a document record, or nil if unknown.
	GetDocument(id string) (*DocumentRecord, error)
	// ListDocuments returns all documents, most recent first.
	ListDocuments() ([]DocumentRecord, error)
	// SaveIndex persists the index and metadata for a document as one
	// pair, replacing any prior pair for that document.
	SaveIndex(documentID string, idx *vecindex.Flat, meta IndexMetadata) error
	// LoadIndex returns the persisted pair for a document. Both return
	// values are nil when no index has been built; that is not an error.
	LoadIndex(documentID string) (*vecindex.Flat, *IndexMetadata, error)
	// HasIndex reports whether an index pair exists for a document
	// without decoding it.
	HasIndex(documentID string) (bool, error)
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and initializes the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveDocument(doc DocumentRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO documents (id, filename, path, size_bytes) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET filename = excluded.filename, path = excluded.path, size_bytes = excluded.size_bytes`,
		doc.ID, doc.Filename, doc.Path, doc.SizeBytes,
	)
	return err
}

func (s *SQLiteStore) GetDocument(id string) (*DocumentRecord, error) {
	var doc DocumentRecord
	err := s.db.QueryRow(
		"SELECT id, filename, path, size_bytes, uploaded_at FROM documents WHERE id = ?", id,
	).Scan(&doc.ID, &doc.Filename, &doc.Path, &doc.SizeBytes, &doc.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *SQLiteStore) ListDocuments() ([]DocumentRecord, error) {
	rows, err := s.db.Query(
		"SELECT id, filename, path, size_bytes, uploaded_at FROM documents ORDER BY uploaded_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []DocumentRecord
	for rows.Next() {
		var doc DocumentRecord
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.Path, &doc.SizeBytes, &doc.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// SaveIndex writes both artifacts in a single statement so a reindex
// racing a concurrent query yields either the old pair or the new pair,
// never a torn mix.
func (s *SQLiteStore) SaveIndex(documentID string, idx *vecindex.Flat, meta IndexMetadata) error {
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO indexes (document_id, embedding_model, index_blob, metadata, built_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(document_id) DO UPDATE SET
		   embedding_model = excluded.embedding_model,
		   index_blob = excluded.index_blob,
		   metadata = excluded.metadata,
		   built_at = excluded.built_at`,
		documentID, meta.EmbeddingModel, idx.Encode(), string(metaJSON),
	)
	if err != nil {
		return fmt.Errorf("save index for %s: %w", documentID, err)
	}
	return nil
}

func (s *SQLiteStore) LoadIndex(documentID string) (*vecindex.Flat, *IndexMetadata, error) {
	var blob []byte
	var metaJSON string
	err := s.db.QueryRow(
		"SELECT index_blob, metadata FROM indexes WHERE document_id = ?", documentID,
	).Scan(&blob, &metaJSON)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	idx, err := vecindex.Decode(blob)
	if err != nil {
		return nil, nil, fmt.Errorf("decode index for %s: %w", documentID, err)
	}
	var meta IndexMetadata
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, nil, fmt.Errorf("unmarshal metadata for %s: %w", documentID, err)
	}
	if idx.Len() != len(meta.Chunks) {
		return nil, nil, fmt.Errorf("%w: %d index rows, %d metadata chunks", ErrDesync, idx.Len(), len(meta.Chunks))
	}
	return idx, &meta, nil
}

func (s *SQLiteStore) HasIndex(documentID string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		"SELECT 1 FROM indexes WHERE document_id = ?", documentID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
