// Package textindex ranks documents against free-text queries with a
// TF-IDF vector space model and cosine similarity.
//
// An Index is an immutable snapshot of a corpus. Documents are analyzed once
// when the Index is built; vocabulary and IDF weights are fitted again for
// every query over the corpus plus the query itself, so a query is always
// measured on the same statistics as the documents it is compared with.
package textindex

import (
	"sort"
)

const (
	// DefaultMaxFeatures bounds the vocabulary size
	DefaultMaxFeatures = 1000

	// DefaultNgramMax makes adjacent word pairs features alongside single words
	DefaultNgramMax = 2

	// DefaultMinSimilarity is the exclusive lower bound on returned scores
	DefaultMinSimilarity = 0.1

	// DefaultTopK is used when a search asks for zero or fewer results
	DefaultTopK = 5
)

// Options configures vectorization and ranking. Zero fields take the
// defaults. A negative MinSimilarity disables the cutoff, so every document
// sharing at least one feature with the query is returned.
type Options struct {
	MaxFeatures   int
	NgramMax      int
	MinSimilarity float64
}

// DefaultOptions returns the standard vectorization settings
func DefaultOptions() Options {
	return Options{
		MaxFeatures:   DefaultMaxFeatures,
		NgramMax:      DefaultNgramMax,
		MinSimilarity: DefaultMinSimilarity,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxFeatures <= 0 {
		o.MaxFeatures = DefaultMaxFeatures
	}
	if o.NgramMax <= 0 {
		o.NgramMax = DefaultNgramMax
	}
	if o.MinSimilarity == 0 {
		o.MinSimilarity = DefaultMinSimilarity
	}
	return o
}

// Entry is one document of the corpus
type Entry struct {
	ID   int64
	Text string
}

// Hit is a ranked search result
type Hit struct {
	ID       int64
	Position int     // position of the entry in the slice given to Build
	Score    float64 // cosine similarity, higher is better
}

// Index is a searchable snapshot of a corpus
type Index struct {
	opts   Options
	ids    []int64
	counts []TermCounts
}

// Build analyzes entries and returns an Index over them. Entry order is
// the tie-break order for equal scores.
func Build(entries []Entry, opts Options) *Index {
	opts = opts.withDefaults()

	idx := &Index{
		opts:   opts,
		ids:    make([]int64, len(entries)),
		counts: make([]TermCounts, len(entries)),
	}
	for i, e := range entries {
		idx.ids[i] = e.ID
		idx.counts[i] = Analyze(e.Text, opts.NgramMax)
	}

	return idx
}

// Len returns the number of indexed documents
func (idx *Index) Len() int {
	return len(idx.ids)
}

// Options returns the settings the Index was built with
func (idx *Index) Options() Options {
	return idx.opts
}

// Search returns up to topK documents whose similarity to query is strictly
// greater than the minimum, best first. An empty Index yields no hits.
// ErrEmptyVocabulary is returned when neither the corpus nor the query has
// a single feature.
func (idx *Index) Search(query string, topK int) ([]Hit, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(idx.ids) == 0 {
		return []Hit{}, nil
	}

	queryCounts := Analyze(query, idx.opts.NgramMax)

	corpus := make([]TermCounts, 0, len(idx.counts)+1)
	corpus = append(corpus, idx.counts...)
	corpus = append(corpus, queryCounts)

	m, err := fit(corpus, idx.opts.MaxFeatures)
	if err != nil {
		return nil, err
	}

	queryVec := m.transform(queryCounts)
	if len(queryVec) == 0 {
		return []Hit{}, nil
	}

	minScore := max(idx.opts.MinSimilarity, 0)

	hits := make([]Hit, 0, len(idx.ids))
	for i, counts := range idx.counts {
		score := CosineSimilarity(queryVec, m.transform(counts))
		if score > minScore {
			hits = append(hits, Hit{ID: idx.ids[i], Position: i, Score: score})
		}
	}

	// Stable so equal scores keep corpus order
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}

	return hits, nil
}
