package search

import "math"

// CosineSimilarity computes the cosine similarity between two vectors.
//
// The result is clamped to [0, 1]: vectors pointing away from each other
// score 0 rather than negative, so every score threshold in this package
// works in a single well-defined range. If either vector has zero norm the
// similarity is exactly 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
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

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if similarity < 0 {
		return 0
	}
	if similarity > 1 {
		return 1
	}
	return float32(similarity)
}
