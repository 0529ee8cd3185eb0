package suite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/searcheval/eval"
	"github.com/poiesic/searcheval/retrieval"
)

// Config is one named retriever configuration under test.
type Config struct {
	Name      string
	Retriever retrieval.Retriever
}

// ConfigResult holds one configuration's evaluation plus its per-category
// MRR breakdown.
type ConfigResult struct {
	Name        string
	Evaluation  *eval.EvaluationResult
	CategoryMRR map[Category]float64
}

// SuiteResult is the outcome of running a suite over every configuration.
type SuiteResult struct {
	Configs []ConfigResult

	// GroundTruth is the shared relevance standard every configuration was
	// scored against, generated during the first configuration's run.
	GroundTruth eval.GroundTruth
}

// Runner evaluates several retriever configurations on one query suite.
// Ground truth inferred for the first configuration is reused for all
// subsequent ones, so every configuration faces the same standard.
type Runner struct {
	evaluator *eval.Evaluator
	logger    *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets a custom logger.
// Default is slog.Default().
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewRunner creates a suite runner around an evaluator.
func NewRunner(evaluator *eval.Evaluator, opts ...RunnerOption) (*Runner, error) {
	if evaluator == nil {
		return nil, ErrEvaluatorRequired
	}

	r := &Runner{
		evaluator: evaluator,
		logger:    slog.Default().With("component", "suite-runner"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Run evaluates every configuration on the suite's full query set.
func (r *Runner) Run(ctx context.Context, queries QuerySuite, configs []Config) (*SuiteResult, error) {
	if len(configs) == 0 {
		return nil, ErrNoConfigs
	}

	texts := queries.Texts()
	byCategory := queries.ByCategory()

	result := &SuiteResult{Configs: make([]ConfigResult, 0, len(configs))}

	var shared *eval.GroundTruth
	for _, config := range configs {
		evaluation, err := r.evaluator.Evaluate(ctx, config.Retriever, texts, shared)
		if err != nil {
			return nil, fmt.Errorf("evaluating configuration %q: %w", config.Name, err)
		}
		if shared == nil {
			shared = &evaluation.GroundTruth
			result.GroundTruth = evaluation.GroundTruth
		}

		result.Configs = append(result.Configs, ConfigResult{
			Name:        config.Name,
			Evaluation:  evaluation,
			CategoryMRR: categoryMRR(evaluation, byCategory),
		})

		r.logger.Info("configuration evaluated",
			"config", config.Name,
			"mrr", evaluation.Aggregate.MRR)
	}

	return result, nil
}

// categoryMRR averages reciprocal rank over each category's query texts.
// Categories with no evaluated queries are omitted.
func categoryMRR(evaluation *eval.EvaluationResult, byCategory map[Category][]string) map[Category]float64 {
	rankByQuery := make(map[string]float64, len(evaluation.PerQuery))
	for _, m := range evaluation.PerQuery {
		rankByQuery[m.Query] = m.ReciprocalRank
	}

	breakdown := make(map[Category]float64, len(byCategory))
	for category, texts := range byCategory {
		var sum float64
		count := 0
		for _, text := range texts {
			rank, ok := rankByQuery[text]
			if !ok {
				continue
			}
			sum += rank
			count++
		}
		if count > 0 {
			breakdown[category] = sum / float64(count)
		}
	}
	return breakdown
}
