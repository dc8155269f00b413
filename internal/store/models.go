package store

import "time"

// DocumentRecord is the upload bookkeeping row for one PDF.
type DocumentRecord struct {
	ID         string
	Filename   string
	Path       string
	SizeBytes  int64
	UploadedAt time.Time
}

// ChunkMeta describes one chunk inside the persisted metadata record.
// Position in IndexMetadata.Chunks must match the chunk's row in the
// vector index blob saved alongside it.
type ChunkMeta struct {
	ChunkID    string `json:"chunk_id"`
	Index      int    `json:"index"`
	StartChar  int    `json:"start_char"`
	EndChar    int    `json:"end_char"`
	TextLength int    `json:"text_length"`
	FullText   string `json:"full_text"`
	Preview    string `json:"preview"`
}

// IndexMetadata is the durable record linking vector rows back to their
// source chunks. Row i of the index corresponds to Chunks[i].
type IndexMetadata struct {
	DocumentID     string      `json:"document_id"`
	Filename       string      `json:"filename"`
	ChunkSize      int         `json:"chunk_size"`
	Overlap        int         `json:"overlap"`
	EmbeddingModel string      `json:"embedding_model"`
	NumChunks      int         `json:"num_chunks"`
	Chunks         []ChunkMeta `json:"chunks"`
}
