package textindex

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptyVocabulary is returned when a corpus yields no features at all
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stop words or no words")

// Vector is a sparse term-weight vector keyed by feature
type Vector map[string]float64

// Norm returns the Euclidean length of v
func (v Vector) Norm() float64 {
	var sum float64
	for _, term := range v.terms() {
		sum += v[term] * v[term]
	}
	return math.Sqrt(sum)
}

// terms returns the features of v in sorted order. Sums run in this order
// so a score is bit-for-bit reproducible across calls.
func (v Vector) terms() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// model holds the vocabulary and IDF weights fitted over one corpus
type model struct {
	idf map[string]float64
}

// fit selects the maxFeatures most frequent features across the corpus and
// computes smoothed IDF weights for them
func fit(corpus []TermCounts, maxFeatures int) (*model, error) {
	totals := make(map[string]int)
	df := make(map[string]int)
	for _, counts := range corpus {
		for term, c := range counts {
			totals[term] += c
			df[term]++
		}
	}

	if len(totals) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(totals))
	for term := range totals {
		terms = append(terms, term)
	}

	if maxFeatures > 0 && len(terms) > maxFeatures {
		// Highest corpus frequency wins; ties resolved alphabetically so the cut is deterministic
		sort.Slice(terms, func(i, j int) bool {
			if totals[terms[i]] != totals[terms[j]] {
				return totals[terms[i]] > totals[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:maxFeatures]
	}

	n := float64(len(corpus))
	idf := make(map[string]float64, len(terms))
	for _, term := range terms {
		idf[term] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	return &model{idf: idf}, nil
}

// transform weights counts by IDF and L2-normalizes the result. Features
// outside the vocabulary are dropped; a vector with no features stays empty.
func (m *model) transform(counts TermCounts) Vector {
	v := make(Vector, len(counts))
	for term, c := range counts {
		idf, ok := m.idf[term]
		if !ok {
			continue
		}
		v[term] = float64(c) * idf
	}

	norm := v.Norm()
	if norm == 0 {
		return v
	}
	for term := range v {
		v[term] /= norm
	}

	return v
}

// vocabularySize returns the number of features kept by fit
func (m *model) vocabularySize() int {
	return len(m.idf)
}
