package judge

import (
	"context"
	"log/slog"

	"github.com/poiesic/searcheval/core"
)

// DefaultRelevanceThreshold is the minimum graded score counted as relevant.
const DefaultRelevanceThreshold = 1

// GroundTruthBuilder turns judged retrieval results into per-query relevant
// document sets.
type GroundTruthBuilder struct {
	judge     *RelevanceJudge
	threshold int
	logger    *slog.Logger
}

// BuilderOption configures a GroundTruthBuilder.
type BuilderOption func(*GroundTruthBuilder)

// WithRelevanceThreshold overrides the relevance threshold.
func WithRelevanceThreshold(threshold int) BuilderOption {
	return func(b *GroundTruthBuilder) {
		b.threshold = threshold
	}
}

// WithBuilderLogger sets a custom logger.
// Default is slog.Default().
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *GroundTruthBuilder) {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
	}
}

// NewGroundTruthBuilder creates a builder backed by the given judge.
func NewGroundTruthBuilder(j *RelevanceJudge, opts ...BuilderOption) (*GroundTruthBuilder, error) {
	if j == nil {
		return nil, ErrJudgeRequired
	}

	b := &GroundTruthBuilder{
		judge:     j,
		threshold: DefaultRelevanceThreshold,
		logger:    slog.Default().With("component", "groundtruth-builder"),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// BuildFromResults judges every query's results and returns each query's
// relevant document set. Queries with no results map to an empty set.
func (b *GroundTruthBuilder) BuildFromResults(ctx context.Context, queries []string, resultsPerQuery map[string][]core.SearchResult) map[string]map[string]bool {
	groundTruth := make(map[string]map[string]bool, len(queries))

	for _, query := range queries {
		relevant := make(map[string]bool)
		results := resultsPerQuery[query]

		judgments := b.judge.JudgeBatch(ctx, query, results, nil)
		for _, judgment := range judgments {
			if judgment.Relevant(b.threshold) {
				relevant[judgment.DocID] = true
			}
		}

		groundTruth[query] = relevant
		b.logger.Debug("built ground truth",
			"query", query, "judged", len(results), "relevant", len(relevant))
	}

	return groundTruth
}

// RelevantIDs filters judgments down to the document IDs meeting the threshold.
func RelevantIDs(judgments []Judgment, threshold int) map[string]bool {
	relevant := make(map[string]bool)
	for _, j := range judgments {
		if j.Relevant(threshold) {
			relevant[j.DocID] = true
		}
	}
	return relevant
}

// GradedScores maps document IDs to their graded scores.
func GradedScores(judgments []Judgment) map[string]int {
	scores := make(map[string]int, len(judgments))
	for _, j := range judgments {
		scores[j.DocID] = j.Score
	}
	return scores
}
