package eval

import (
	"math"
	"sort"

	"github.com/poiesic/searcheval/core"
)

// DefaultKValues are the ranking cutoffs metrics are reported at.
var DefaultKValues = []int{1, 3, 5, 10}

// EvaluationMetrics holds the per-query retrieval quality measures.
type EvaluationMetrics struct {
	Query          string
	PrecisionAtK   map[int]float64
	RecallAtK      map[int]float64
	ReciprocalRank float64
	NDCGAtK        map[int]float64
	NumResults     int
	NumRelevant    int
}

// AggregateMetrics holds arithmetic means across a query set.
type AggregateMetrics struct {
	MeanPrecisionAtK map[int]float64
	MeanRecallAtK    map[int]float64
	MRR              float64
	MeanNDCGAtK      map[int]float64
	NumQueries       int
}

// Calculator computes ranking metrics at a fixed list of cutoffs.
type Calculator struct {
	kValues []int
}

// CalculatorOption configures a Calculator.
type CalculatorOption func(*Calculator)

// WithKValues overrides the reporting cutoffs.
func WithKValues(ks ...int) CalculatorOption {
	return func(c *Calculator) {
		if len(ks) > 0 {
			c.kValues = ks
		}
	}
}

// NewCalculator creates a metrics calculator with DefaultKValues.
func NewCalculator(opts ...CalculatorOption) *Calculator {
	c := &Calculator{kValues: DefaultKValues}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// KValues returns the reporting cutoffs.
func (c *Calculator) KValues() []int {
	return c.kValues
}

// Compute calculates precision, recall, reciprocal rank and NDCG for one
// ranked result list. relevantIDs is the binary relevance standard. When
// relevanceScores is non-nil, NDCG uses graded gains instead of binary ones.
func (c *Calculator) Compute(query string, results []core.SearchResult, relevantIDs map[string]bool, relevanceScores map[string]int) EvaluationMetrics {
	m := EvaluationMetrics{
		Query:        query,
		PrecisionAtK: make(map[int]float64, len(c.kValues)),
		RecallAtK:    make(map[int]float64, len(c.kValues)),
		NDCGAtK:      make(map[int]float64, len(c.kValues)),
		NumResults:   len(results),
		NumRelevant:  len(relevantIDs),
	}

	for _, k := range c.kValues {
		m.PrecisionAtK[k] = precisionAt(results, relevantIDs, k)
		m.RecallAtK[k] = recallAt(results, relevantIDs, k)
		m.NDCGAtK[k] = ndcgAt(results, relevantIDs, relevanceScores, k)
	}
	m.ReciprocalRank = reciprocalRank(results, relevantIDs)

	return m
}

// Aggregate computes the arithmetic mean of every metric. An empty input
// yields a zero-valued aggregate with NumQueries 0.
func (c *Calculator) Aggregate(perQuery []EvaluationMetrics) AggregateMetrics {
	agg := AggregateMetrics{
		MeanPrecisionAtK: make(map[int]float64, len(c.kValues)),
		MeanRecallAtK:    make(map[int]float64, len(c.kValues)),
		MeanNDCGAtK:      make(map[int]float64, len(c.kValues)),
		NumQueries:       len(perQuery),
	}
	if len(perQuery) == 0 {
		return agg
	}

	n := float64(len(perQuery))
	for _, m := range perQuery {
		for _, k := range c.kValues {
			agg.MeanPrecisionAtK[k] += m.PrecisionAtK[k] / n
			agg.MeanRecallAtK[k] += m.RecallAtK[k] / n
			agg.MeanNDCGAtK[k] += m.NDCGAtK[k] / n
		}
		agg.MRR += m.ReciprocalRank / n
	}

	return agg
}

// precisionAt divides relevant hits in the top k by k, or by the actual
// result count when fewer than k results came back.
func precisionAt(results []core.SearchResult, relevantIDs map[string]bool, k int) float64 {
	denominator := k
	if len(results) < k {
		denominator = len(results)
	}
	if denominator == 0 {
		return 0
	}
	return float64(relevantInTop(results, relevantIDs, k)) / float64(denominator)
}

func recallAt(results []core.SearchResult, relevantIDs map[string]bool, k int) float64 {
	if len(relevantIDs) == 0 {
		return 0
	}
	return float64(relevantInTop(results, relevantIDs, k)) / float64(len(relevantIDs))
}

func reciprocalRank(results []core.SearchResult, relevantIDs map[string]bool) float64 {
	for i, result := range results {
		if relevantIDs[result.Document.ID] {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// ndcgAt computes normalized discounted cumulative gain over the top k.
// DCG discounts each position's gain by log2(rank+1); the ideal DCG assumes
// the best possible ordering of the available gains.
func ndcgAt(results []core.SearchResult, relevantIDs map[string]bool, relevanceScores map[string]int, k int) float64 {
	top := results
	if len(top) > k {
		top = top[:k]
	}

	var dcg float64
	for i, result := range top {
		gain := gainOf(result.Document.ID, relevantIDs, relevanceScores)
		dcg += gain / math.Log2(float64(i)+2)
	}

	idcg := idealDCG(relevantIDs, relevanceScores, k)
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

func gainOf(docID string, relevantIDs map[string]bool, relevanceScores map[string]int) float64 {
	if relevanceScores != nil {
		return float64(relevanceScores[docID])
	}
	if relevantIDs[docID] {
		return 1
	}
	return 0
}

func idealDCG(relevantIDs map[string]bool, relevanceScores map[string]int, k int) float64 {
	var gains []float64
	if relevanceScores != nil {
		gains = make([]float64, 0, len(relevanceScores))
		for _, score := range relevanceScores {
			if score > 0 {
				gains = append(gains, float64(score))
			}
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(gains)))
	} else {
		n := len(relevantIDs)
		if n > k {
			n = k
		}
		gains = make([]float64, n)
		for i := range gains {
			gains[i] = 1
		}
	}

	if len(gains) > k {
		gains = gains[:k]
	}

	var idcg float64
	for i, gain := range gains {
		idcg += gain / math.Log2(float64(i)+2)
	}
	return idcg
}

func relevantInTop(results []core.SearchResult, relevantIDs map[string]bool, k int) int {
	if len(results) > k {
		results = results[:k]
	}
	count := 0
	for _, result := range results {
		if relevantIDs[result.Document.ID] {
			count++
		}
	}
	return count
}
