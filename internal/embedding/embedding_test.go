package embedding

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	a := Vector{1, 0, 0}
	b := Vector{1, 0, 0}
	if sim := CosineSimilarity(a, b); math.Abs(sim-1.0) > 1e-9 {
		t.Errorf("identical vectors: expected 1.0, got %f", sim)
	}

	c := Vector{0, 1, 0}
	if sim := CosineSimilarity(a, c); math.Abs(sim) > 1e-9 {
		t.Errorf("orthogonal vectors: expected 0.0, got %f", sim)
	}

	d := Vector{-1, 0, 0}
	if sim := CosineSimilarity(a, d); math.Abs(sim+1.0) > 1e-9 {
		t.Errorf("opposite vectors: expected -1.0, got %f", sim)
	}
}

func TestCosineSimilarityDegenerate(t *testing.T) {
	if sim := CosineSimilarity(Vector{1, 2}, Vector{1, 2, 3}); sim != 0 {
		t.Errorf("mismatched dims: expected 0, got %f", sim)
	}
	if sim := CosineSimilarity(Vector{}, Vector{}); sim != 0 {
		t.Errorf("empty vectors: expected 0, got %f", sim)
	}
	if sim := CosineSimilarity(Vector{0, 0}, Vector{1, 1}); sim != 0 {
		t.Errorf("zero vector: expected 0, got %f", sim)
	}
}

func TestCosineDistanceRange(t *testing.T) {
	a := Vector{1, 0}
	cases := []Vector{{1, 0}, {0, 1}, {-1, 0}, {1, 1}}
	for _, b := range cases {
		d := CosineDistance(a, b)
		if d < 0 || d > 2 {
			t.Errorf("distance %f out of [0, 2] for %v", d, b)
		}
	}
	if d := CosineDistance(a, Vector{1, 0}); math.Abs(d) > 1e-9 {
		t.Errorf("identical vectors: expected distance 0, got %f", d)
	}
	if d := CosineDistance(a, Vector{-1, 0}); math.Abs(d-2.0) > 1e-9 {
		t.Errorf("opposite vectors: expected distance 2, got %f", d)
	}
}
