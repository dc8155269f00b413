package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadConfig is returned when the chunking parameters are invalid.
var ErrBadConfig = errors.New("invalid chunking configuration")

// Chunk is a contiguous, trimmed slice of a document's extracted text.
// StartChar and EndChar are rune offsets into the full trimmed text,
// taken before the slice itself is trimmed.
type Chunk struct {
	ChunkID   string
	Index     int
	StartChar int
	EndChar   int
	Text      string
}

// Split cuts text into overlapping windows of chunkSize characters,
// advancing by chunkSize-overlap per window. The chunk index advances
// for every window attempt, even ones that trim to empty, so chunk IDs
// stay stable across re-chunking of byte-identical text regardless of
// where whitespace falls.
func Split(documentID, text string, chunkSize, overlap int) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrBadConfig, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", ErrBadConfig, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrBadConfig, overlap, chunkSize)
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil, nil
	}

	step := chunkSize - overlap
	var chunks []Chunk
	idx := 0
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		slice := strings.TrimSpace(string(runes[start:end]))
		if slice != "" {
			chunks = append(chunks, Chunk{
				ChunkID:   fmt.Sprintf("%s_%d", documentID, idx),
				Index:     idx,
				StartChar: start,
				EndChar:   end,
				Text:      slice,
			})
		}
		idx++
	}
	return chunks, nil
}
