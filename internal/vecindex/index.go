// Package vecindex provides a flat, exhaustive nearest-neighbor index
// over fixed-dimension float32 embeddings, with squared-L2 distance.
// Corpora here are per-document chunk sets, small enough that a brute
// force scan beats any approximate structure.
package vecindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrEmptyInput is returned when building from zero embeddings.
	ErrEmptyInput = errors.New("no embeddings provided")
	// ErrDimensionMismatch is returned when a vector's length differs
	// from the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// SentinelPos marks a padded search result slot with no backing row.
// Callers must filter it out before any metadata lookup.
const SentinelPos = -1

// Flat holds N vectors of dimension D in a single contiguous slice.
// Row i occupies data[i*dim : (i+1)*dim].
type Flat struct {
	dim  int
	data []float32
}

// Result is one search hit: the row position and its squared-L2
// distance from the query. Padded slots carry Pos == SentinelPos.
type Result struct {
	Pos      int
	Distance float32
}

// Build creates an index from the given embeddings. The dimension is
// fixed by the first vector; any later vector of a different length
// fails the build.
func Build(embeddings [][]float32) (*Flat, error) {
	if len(embeddings) == 0 {
		return nil, ErrEmptyInput
	}
	dim := len(embeddings[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: first embedding is empty", ErrDimensionMismatch)
	}

	data := make([]float32, 0, len(embeddings)*dim)
	for i, v := range embeddings {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, index has %d", ErrDimensionMismatch, i, len(v), dim)
		}
		data = append(data, v...)
	}
	return &Flat{dim: dim, data: data}, nil
}

// Len returns the number of stored vectors.
func (f *Flat) Len() int { return len(f.data) / f.dim }

// Dim returns the vector dimension.
func (f *Flat) Dim() int { return f.dim }

// Search scans every row and returns the k nearest by ascending
// squared-L2 distance. When the index holds fewer than k rows, the
// remaining slots are padded with SentinelPos entries.
func (f *Flat) Search(query []float32, k int) ([]Result, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", ErrDimensionMismatch, len(query), f.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	n := f.Len()
	results := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		row := f.data[i*f.dim : (i+1)*f.dim]
		var dist float32
		for j, q := range query {
			d := row[j] - q
			dist += d * d
		}
		results = append(results, Result{Pos: i, Distance: dist})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if n >= k {
		return results[:k], nil
	}
	for len(results) < k {
		results = append(results, Result{Pos: SentinelPos, Distance: math.MaxFloat32})
	}
	return results, nil
}

// Binary layout: magic, uint32 dim, uint32 count, then count*dim
// float32 values, all little-endian.
var magic = [4]byte{'F', 'L', 'A', 'T'}

// Encode serializes the index to a compact binary blob.
func (f *Flat) Encode() []byte {
	buf := make([]byte, 12+4*len(f.data))
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], uint32(f.dim))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(f.Len()))
	for i, v := range f.data {
		binary.LittleEndian.PutUint32(buf[12+4*i:], math.Float32bits(v))
	}
	return buf
}

// Decode reconstructs an index from a blob produced by Encode.
func Decode(blob []byte) (*Flat, error) {
	if len(blob) < 12 || [4]byte(blob[0:4]) != magic {
		return nil, errors.New("not a flat index blob")
	}
	dim := int(binary.LittleEndian.Uint32(blob[4:8]))
	count := int(binary.LittleEndian.Uint32(blob[8:12]))
	if dim <= 0 || count < 0 {
		return nil, fmt.Errorf("corrupt index header: dim=%d count=%d", dim, count)
	}
	// Bound count by what the payload can hold before multiplying, so a
	// corrupt header cannot overflow the size check.
	vals := (len(blob) - 12) / 4
	if (len(blob)-12)%4 != 0 || count > vals/dim || dim*count != vals {
		return nil, fmt.Errorf("index blob is %d bytes, want %dx%d float32 rows", len(blob), count, dim)
	}

	data := make([]float32, dim*count)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[12+4*i:]))
	}
	return &Flat{dim: dim, data: data}, nil
}
