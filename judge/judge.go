package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/searcheval/ai"
	"github.com/poiesic/searcheval/core"
)

const (
	// MaxDocChars is the default document truncation limit in the judging prompt.
	MaxDocChars = 2000

	// DefaultScore is assigned whenever a judgment cannot be obtained or parsed.
	// A middle score keeps one bad response from skewing a whole batch in
	// either direction.
	DefaultScore = 1

	// MinScore and MaxScore bound the graded relevance scale.
	MinScore = 0
	MaxScore = 2

	judgeMaxTokens = 150
)

const judgePrompt = `You are judging whether a retrieved document is relevant to a search query.

Query: %s

Document:
%s

Rate the document's relevance to the query:
0 = not relevant
1 = partially relevant
2 = highly relevant

Respond with only a JSON object: {"score": <0|1|2>, "explanation": "<one sentence>"}`

// jsonBlock matches the outermost brace-delimited region of a response, so
// prose around the JSON object is tolerated.
var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

// Judgment is one graded relevance decision for a (query, document) pair.
type Judgment struct {
	Query       string
	DocID       string
	Score       int
	Explanation string
}

// Relevant reports whether the judgment meets the threshold.
func (j Judgment) Relevant(threshold int) bool {
	return j.Score >= threshold
}

// RelevanceJudge scores query/document pairs with a Generator. Judging is
// best-effort: any backend or parse failure yields DefaultScore with an
// explanation recording the failure, never an aborted batch.
type RelevanceJudge struct {
	generator   ai.Generator
	maxDocChars int
	logger      *slog.Logger
}

// JudgeOption configures a RelevanceJudge.
type JudgeOption func(*RelevanceJudge)

// WithMaxDocChars overrides the document truncation limit.
func WithMaxDocChars(n int) JudgeOption {
	return func(j *RelevanceJudge) {
		if n > 0 {
			j.maxDocChars = n
		}
	}
}

// WithJudgeLogger sets a custom logger.
// Default is slog.Default().
func WithJudgeLogger(logger *slog.Logger) JudgeOption {
	return func(j *RelevanceJudge) {
		if logger == nil {
			logger = slog.Default()
		}
		j.logger = logger
	}
}

// NewRelevanceJudge creates a judge backed by the given generator.
func NewRelevanceJudge(generator ai.Generator, opts ...JudgeOption) (*RelevanceJudge, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	j := &RelevanceJudge{
		generator:   generator,
		maxDocChars: MaxDocChars,
		logger:      slog.Default().With("component", "relevance-judge"),
	}

	for _, opt := range opts {
		opt(j)
	}

	return j, nil
}

// Judge scores a single result against the query.
func (j *RelevanceJudge) Judge(ctx context.Context, query string, result core.SearchResult) Judgment {
	content := result.Document.Content
	if len(content) > j.maxDocChars {
		content = content[:j.maxDocChars]
	}

	prompt := fmt.Sprintf(judgePrompt, query, content)

	response, err := j.generator.Generate(ctx, prompt, judgeMaxTokens)
	if err != nil {
		j.logger.Warn("judge generation failed, using default score",
			"query", query, "doc_id", result.Document.ID, "err", err)
		return Judgment{
			Query:       query,
			DocID:       result.Document.ID,
			Score:       DefaultScore,
			Explanation: fmt.Sprintf("generation failed: %v", err),
		}
	}

	score, explanation, err := parseJudgment(response)
	if err != nil {
		j.logger.Warn("judge response unparseable, using default score",
			"query", query, "doc_id", result.Document.ID, "err", err)
		return Judgment{
			Query:       query,
			DocID:       result.Document.ID,
			Score:       DefaultScore,
			Explanation: fmt.Sprintf("unparseable response: %v", err),
		}
	}

	return Judgment{
		Query:       query,
		DocID:       result.Document.ID,
		Score:       score,
		Explanation: explanation,
	}
}

// JudgeBatch judges a ranked result list sequentially. progress, when
// non-nil, is called after each judgment with (done, total).
func (j *RelevanceJudge) JudgeBatch(ctx context.Context, query string, results []core.SearchResult, progress func(done, total int)) []Judgment {
	judgments := make([]Judgment, len(results))
	for i, result := range results {
		judgments[i] = j.Judge(ctx, query, result)
		if progress != nil {
			progress(i+1, len(results))
		}
	}
	return judgments
}

// parseJudgment extracts the first JSON object from a model response and
// returns its clamped score.
func parseJudgment(response string) (int, string, error) {
	text := strings.TrimSpace(response)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	block := jsonBlock.FindString(text)
	if block == "" {
		return 0, "", fmt.Errorf("no JSON object in response %q", truncateForLog(text))
	}

	var parsed struct {
		Score       int    `json:"score"`
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		repaired := repairJSON(block)
		if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
			return 0, "", fmt.Errorf("parsing judgment: %w", err)
		}
	}

	score := parsed.Score
	if score < MinScore {
		score = MinScore
	}
	if score > MaxScore {
		score = MaxScore
	}
	return score, parsed.Explanation, nil
}

func truncateForLog(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
