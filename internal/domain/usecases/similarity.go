// Package usecases contains the application business rules: the
// retrieval-augmented answering pipeline and its stages.
package usecases

import "math"

// CosineSimilarity computes the cosine of the angle between two vectors:
// dot product over the product of magnitudes. A zero-magnitude vector
// (or mismatched/empty input) yields 0 rather than a division fault.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
