package domain

import (
	"math"
	"testing"
)

func TestEmbeddingRecord_Vector(t *testing.T) {
	rec := EmbeddingRecord{ID: 1, RawVector: []byte(`[0.5, -0.25, 1]`)}

	vec, err := rec.Vector(3)
	if err != nil {
		t.Fatalf("Vector: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.5 || vec[1] != -0.25 || vec[2] != 1 {
		t.Errorf("vector = %v", vec)
	}

	if _, err := rec.Vector(4); err == nil {
		t.Error("expected dimension mismatch error")
	}

	bad := EmbeddingRecord{ID: 2, RawVector: []byte(`not json`)}
	if _, err := bad.Vector(3); err == nil {
		t.Error("expected parse error")
	}

	empty := EmbeddingRecord{ID: 3}
	if _, err := empty.Vector(3); err == nil {
		t.Error("expected error for empty vector payload")
	}
}

func TestDotProduct(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, -5, 6}
	got := DotProduct(a, b)
	if math.Abs(got-12) > 1e-9 {
		t.Errorf("DotProduct = %v, want 12", got)
	}
}
