package eval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/searcheval/core"
	"github.com/poiesic/searcheval/judge"
	"github.com/poiesic/searcheval/retrieval"
)

// DefaultRetrievalDepth is how many results are fetched per query.
const DefaultRetrievalDepth = 10

// GroundTruth is the relevance standard an evaluation is scored against.
// Relevant holds each query's relevant document IDs. Scores optionally holds
// graded judgments for the same pairs, feeding graded NDCG.
type GroundTruth struct {
	Relevant map[string]map[string]bool
	Scores   map[string]map[string]int
}

// EvaluationResult is the outcome of evaluating one retriever on a query set.
type EvaluationResult struct {
	RetrieverName string
	PerQuery      []EvaluationMetrics
	Aggregate     AggregateMetrics
	GroundTruth   GroundTruth

	// GroundTruthCoverage is the fraction of queries with at least one
	// relevant document.
	GroundTruthCoverage float64

	// Judgments holds the raw judge output per query when judgment storage
	// is enabled and ground truth was generated during this run.
	Judgments map[string][]judge.Judgment
}

// Evaluator retrieves, optionally judges, and scores retrievers.
type Evaluator struct {
	calculator          *Calculator
	judge               *judge.RelevanceJudge
	retrievalDepth      int
	generateGroundTruth bool
	storeJudgments      bool
	logger              *slog.Logger
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithJudge supplies the LLM judge used to generate ground truth.
func WithJudge(j *judge.RelevanceJudge) EvaluatorOption {
	return func(e *Evaluator) {
		e.judge = j
	}
}

// WithCalculator overrides the metrics calculator.
func WithCalculator(c *Calculator) EvaluatorOption {
	return func(e *Evaluator) {
		if c != nil {
			e.calculator = c
		}
	}
}

// WithRetrievalDepth sets how many results are fetched per query.
func WithRetrievalDepth(k int) EvaluatorOption {
	return func(e *Evaluator) {
		if k > 0 {
			e.retrievalDepth = k
		}
	}
}

// WithGroundTruthGeneration toggles judge-based ground truth inference when
// none is supplied. Enabled by default.
func WithGroundTruthGeneration(enabled bool) EvaluatorOption {
	return func(e *Evaluator) {
		e.generateGroundTruth = enabled
	}
}

// WithStoreJudgments keeps the raw judgments on the result.
func WithStoreJudgments(enabled bool) EvaluatorOption {
	return func(e *Evaluator) {
		e.storeJudgments = enabled
	}
}

// WithEvalLogger sets a custom logger.
// Default is slog.Default().
func WithEvalLogger(logger *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// NewEvaluator creates an evaluator. A judge is only required when ground
// truth will be generated rather than supplied.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		calculator:          NewCalculator(),
		retrievalDepth:      DefaultRetrievalDepth,
		generateGroundTruth: true,
		logger:              slog.Default().With("component", "evaluator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate retrieves the top results for every query once and scores them
// against ground truth. When supplied is nil and generation is enabled, the
// judge scores every retrieved pair and ground truth is derived from those
// judgments at the default relevance threshold, with the graded scores
// feeding NDCG.
func (e *Evaluator) Evaluate(ctx context.Context, r retrieval.Retriever, queries []string, supplied *GroundTruth) (*EvaluationResult, error) {
	if r == nil {
		return nil, ErrRetrieverRequired
	}

	resultsPerQuery := make(map[string][]core.SearchResult, len(queries))
	for _, query := range queries {
		results, err := r.Search(ctx, query, e.retrievalDepth)
		if err != nil {
			return nil, fmt.Errorf("searching %q: %w", query, err)
		}
		resultsPerQuery[query] = results
	}

	result := &EvaluationResult{RetrieverName: r.Name()}

	if supplied != nil {
		result.GroundTruth = *supplied
	} else {
		if !e.generateGroundTruth || e.judge == nil {
			return nil, ErrNoGroundTruth
		}
		gt, judgments := e.inferGroundTruth(ctx, queries, resultsPerQuery)
		result.GroundTruth = gt
		if e.storeJudgments {
			result.Judgments = judgments
		}
	}

	result.PerQuery = make([]EvaluationMetrics, 0, len(queries))
	covered := 0
	for _, query := range queries {
		relevant := result.GroundTruth.Relevant[query]
		var scores map[string]int
		if result.GroundTruth.Scores != nil {
			scores = result.GroundTruth.Scores[query]
		}

		m := e.calculator.Compute(query, resultsPerQuery[query], relevant, scores)
		result.PerQuery = append(result.PerQuery, m)
		if len(relevant) > 0 {
			covered++
		}
	}

	result.Aggregate = e.calculator.Aggregate(result.PerQuery)
	if len(queries) > 0 {
		result.GroundTruthCoverage = float64(covered) / float64(len(queries))
	}

	e.logger.Info("evaluation complete",
		"retriever", result.RetrieverName,
		"queries", len(queries),
		"mrr", result.Aggregate.MRR,
		"coverage", result.GroundTruthCoverage)
	return result, nil
}

// Compare evaluates baseline first, then scores candidate against the exact
// ground truth the baseline run produced. The candidate run never re-judges,
// so both retrievers face an identical relevance standard.
func (e *Evaluator) Compare(ctx context.Context, baseline, candidate retrieval.Retriever, queries []string, supplied *GroundTruth) (*EvaluationResult, *EvaluationResult, string, error) {
	if baseline == nil || candidate == nil {
		return nil, nil, "", ErrRetrieverRequired
	}

	baseResult, err := e.Evaluate(ctx, baseline, queries, supplied)
	if err != nil {
		return nil, nil, "", fmt.Errorf("evaluating baseline: %w", err)
	}

	candResult, err := e.Evaluate(ctx, candidate, queries, &baseResult.GroundTruth)
	if err != nil {
		return nil, nil, "", fmt.Errorf("evaluating candidate: %w", err)
	}

	return baseResult, candResult, e.formatComparison(baseResult, candResult), nil
}

// inferGroundTruth judges every retrieved pair and derives the relevant sets
// and graded scores.
func (e *Evaluator) inferGroundTruth(ctx context.Context, queries []string, resultsPerQuery map[string][]core.SearchResult) (GroundTruth, map[string][]judge.Judgment) {
	gt := GroundTruth{
		Relevant: make(map[string]map[string]bool, len(queries)),
		Scores:   make(map[string]map[string]int, len(queries)),
	}
	allJudgments := make(map[string][]judge.Judgment, len(queries))

	for i, query := range queries {
		judgments := e.judge.JudgeBatch(ctx, query, resultsPerQuery[query], nil)
		gt.Relevant[query] = judge.RelevantIDs(judgments, judge.DefaultRelevanceThreshold)
		gt.Scores[query] = judge.GradedScores(judgments)
		allJudgments[query] = judgments

		e.logger.Debug("judged query",
			"query", query,
			"progress", fmt.Sprintf("%d/%d", i+1, len(queries)),
			"relevant", len(gt.Relevant[query]))
	}

	return gt, allJudgments
}

// formatComparison renders a fixed-width delta table for the shared cutoffs.
func (e *Evaluator) formatComparison(baseline, candidate *EvaluationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Comparison: %s (baseline) vs %s (candidate)\n\n", baseline.RetrieverName, candidate.RetrieverName)
	fmt.Fprintf(&b, "%-14s %10s %10s %10s\n", "Metric", "Baseline", "Candidate", "Delta")

	row := func(label string, base, cand float64) {
		fmt.Fprintf(&b, "%-14s %10.4f %10.4f %+10.4f\n", label, base, cand, cand-base)
	}

	for _, k := range e.calculator.KValues() {
		row(fmt.Sprintf("Precision@%d", k), baseline.Aggregate.MeanPrecisionAtK[k], candidate.Aggregate.MeanPrecisionAtK[k])
	}
	for _, k := range e.calculator.KValues() {
		row(fmt.Sprintf("Recall@%d", k), baseline.Aggregate.MeanRecallAtK[k], candidate.Aggregate.MeanRecallAtK[k])
	}
	row("MRR", baseline.Aggregate.MRR, candidate.Aggregate.MRR)
	for _, k := range e.calculator.KValues() {
		row(fmt.Sprintf("NDCG@%d", k), baseline.Aggregate.MeanNDCGAtK[k], candidate.Aggregate.MeanNDCGAtK[k])
	}

	return b.String()
}
