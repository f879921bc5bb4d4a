package similarity

import (
	"fmt"
	"math"
)

// Cosine calculates the cosine similarity between two vectors.
// Vectors must come from the same embedding model; differing lengths
// are an input error, not a score.
func Cosine(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d != %d", len(a), len(b))
	}

	var dot, normA, normB float32
	for i := 0; i < len(a); i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	// A zero vector has no direction. Returning 0 instead of NaN.
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB)))), nil
}
