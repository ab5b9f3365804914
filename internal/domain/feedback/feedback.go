package feedback

import (
	"fmt"
	"sort"
	"sync"
)

// Dimension is one measured quality axis.
type Dimension string

const (
	// Groundedness measures whether the answer is supported by the retrieved context.
	Groundedness Dimension = "groundedness"
	// ContextRelevance measures how relevant each retrieved chunk is to the query.
	ContextRelevance Dimension = "context_relevance"
	// AnswerRelevance measures how relevant the answer is to the original question.
	AnswerRelevance Dimension = "answer_relevance"
)

// Variant identifies a pipeline configuration under evaluation.
type Variant struct {
	Name    string
	Version string
}

// String returns the "name/version" form used in leaderboard output.
func (v Variant) String() string { return v.Name + "/" + v.Version }

// Record is one immutable quality measurement.
type Record struct {
	dimension Dimension
	score     float64
	variant   Variant
}

// NewRecord creates a record. Scores outside [0, 1] are rejected.
func NewRecord(dim Dimension, score float64, variant Variant) (Record, error) {
	if score < 0 || score > 1 {
		return Record{}, fmt.Errorf("score %v outside [0, 1]", score)
	}
	return Record{dimension: dim, score: score, variant: variant}, nil
}

// Dimension returns the measured axis.
func (r Record) Dimension() Dimension { return r.dimension }

// Score returns the measurement in [0, 1].
func (r Record) Score() float64 { return r.score }

// Variant returns the pipeline configuration the measurement belongs to.
func (r Record) Variant() Variant { return r.variant }

// Board accumulates records across variants for the lifetime of a comparison
// run and produces mean-score aggregates.
type Board struct {
	mu      sync.Mutex
	records []Record
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{}
}

// Add appends a record.
func (b *Board) Add(r Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, r)
}

// Mean returns the mean score for a (variant, dimension) pair and the number
// of records it aggregates. Zero count means no measurements.
func (b *Board) Mean(v Variant, dim Dimension) (float64, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var sum float64
	var n int
	for _, r := range b.records {
		if r.variant == v && r.dimension == dim {
			sum += r.score
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// Row is one leaderboard line: the mean score of a variant on a dimension.
type Row struct {
	Variant   Variant
	Dimension Dimension
	Mean      float64
	Count     int
}

// Leaderboard returns rows grouped by dimension, ranked by mean descending
// within each dimension. Ties break on variant string for stable output.
func (b *Board) Leaderboard() []Row {
	b.mu.Lock()
	defer b.mu.Unlock()

	type key struct {
		v Variant
		d Dimension
	}
	sums := make(map[key]float64)
	counts := make(map[key]int)
	for _, r := range b.records {
		k := key{r.variant, r.dimension}
		sums[k] += r.score
		counts[k]++
	}

	rows := make([]Row, 0, len(sums))
	for k, sum := range sums {
		rows = append(rows, Row{
			Variant:   k.v,
			Dimension: k.d,
			Mean:      sum / float64(counts[k]),
			Count:     counts[k],
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Dimension != rows[j].Dimension {
			return rows[i].Dimension < rows[j].Dimension
		}
		if rows[i].Mean != rows[j].Mean {
			return rows[i].Mean > rows[j].Mean
		}
		return rows[i].Variant.String() < rows[j].Variant.String()
	})
	return rows
}
