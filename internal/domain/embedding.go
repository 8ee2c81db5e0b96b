package domain

import (
	"encoding/json"
	"fmt"
)

// EmbeddingRecord is one precomputed vector row from the embeddings table.
// Exactly one of DocumentID/FlightID is expected, but the ranker tolerates
// both empty. RawVector holds the serialized vector as stored; it is parsed
// lazily so a malformed row is skipped rather than failing the batch.
type EmbeddingRecord struct {
	ID          int64
	DocumentID  *int64
	FlightID    *int64
	ContentText string
	RawVector   []byte
}

// Vector parses the stored vector and checks it against the expected
// dimensionality. A parse failure or length mismatch returns an error; the
// caller skips the record.
func (r *EmbeddingRecord) Vector(dim int) ([]float32, error) {
	var vec []float32
	if err := json.Unmarshal(r.RawVector, &vec); err != nil {
		return nil, fmt.Errorf("parse embedding %d: %w", r.ID, err)
	}
	if len(vec) != dim {
		return nil, fmt.Errorf("embedding %d: dimension %d, want %d", r.ID, len(vec), dim)
	}
	return vec, nil
}

// DotProduct computes the similarity between a query vector and a stored
// vector of the same length.
func DotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// EmbeddingResult is a provider response for a single input.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
