package textindex

// CosineSimilarity calculates cosine similarity between two sparse vectors.
// Returns 0 when either vector has no weight. TF-IDF weights are never
// negative, so the result lies in [0, 1].
func CosineSimilarity(a, b Vector) float64 {
	// Iterate the smaller vector
	if len(b) < len(a) {
		a, b = b, a
	}

	var dotProduct float64
	for _, term := range a.terms() {
		if wb, ok := b[term]; ok {
			dotProduct += a[term] * wb
		}
	}

	normA, normB := a.Norm(), b.Norm()
	if normA == 0 || normB == 0 {
		return 0
	}

	score := dotProduct / (normA * normB)
	switch {
	case score > 1:
		return 1
	case score < 0:
		return 0
	}
	return score
}
