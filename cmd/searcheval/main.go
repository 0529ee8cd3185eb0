// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/searcheval"
	"github.com/poiesic/searcheval/ai"
	"github.com/poiesic/searcheval/chunk"
	"github.com/poiesic/searcheval/core"
	"github.com/poiesic/searcheval/eval"
	"github.com/poiesic/searcheval/rerank"
	"github.com/poiesic/searcheval/retrieval"
	"github.com/poiesic/searcheval/suite"
)

func main() {
	app := &cli.App{
		Name:  "searcheval",
		Usage: "Index documents and evaluate retrieval pipelines",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Chunk and embed documents into a named index",
				Action: indexCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Directory of documents to ingest",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Target chunk size in characters",
						Value: chunk.DefaultChunkSize,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Chunk overlap in characters",
						Value: chunk.DefaultChunkOverlap,
					},
					&cli.BoolFlag{
						Name:  "contextual",
						Usage: "Prepend LLM-generated situating context to each chunk",
					},
				),
			},
			{
				Name:   "search",
				Usage:  "Search a stored index",
				Action: searchCommand,
				Flags: concatFlags(commonFlags(), []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Query text",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of results",
						Value: 5,
					},
				}, retrieverFlags()),
			},
			{
				Name:   "evaluate",
				Usage:  "Evaluate one retriever configuration on a query file",
				Action: evaluateCommand,
				Flags: concatFlags(commonFlags(), []cli.Flag{
					&cli.StringFlag{
						Name:     "queries",
						Usage:    "File with one query per line",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Retrieval depth per query",
						Value: eval.DefaultRetrievalDepth,
					},
				}, retrieverFlags()),
			},
			{
				Name:   "compare",
				Usage:  "Compare two retriever configurations on the same queries and ground truth",
				Action: compareCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "queries",
						Usage:    "File with one query per line",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "baseline",
						Usage: "Baseline retriever mode (vector, hybrid)",
						Value: "vector",
					},
					&cli.StringFlag{
						Name:  "candidate",
						Usage: "Candidate retriever mode (vector, hybrid)",
						Value: "hybrid",
					},
					&cli.Float64Flag{
						Name:  "alpha",
						Usage: "Hybrid lexical weight in [0,1]",
						Value: retrieval.DefaultAlpha,
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Retrieval depth per query",
						Value: eval.DefaultRetrievalDepth,
					},
				),
			},
			{
				Name:   "suite",
				Usage:  "Generate an ecosystem query suite and run it over several configurations",
				Action: suiteCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "repo",
						Usage:    "Repository root scanned for agents, processes and plugins",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "alpha",
						Usage: "Hybrid lexical weight in [0,1]",
						Value: retrieval.DefaultAlpha,
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Retrieval depth per query",
						Value: eval.DefaultRetrievalDepth,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func concatFlags(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, group := range groups {
		flags = append(flags, group...)
	}
	return flags
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "index",
			Usage: "Index name",
			Value: "main",
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "generator-model",
			Usage: "Generation model name",
		},
	}
}

func retrieverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "mode",
			Usage: "Retriever mode (vector, hybrid)",
			Value: "vector",
		},
		&cli.Float64Flag{
			Name:  "alpha",
			Usage: "Hybrid lexical weight in [0,1]",
			Value: retrieval.DefaultAlpha,
		},
		&cli.StringFlag{
			Name:  "rerank-url",
			Usage: "Cross-encoder service base URL; enables a rerank stage",
		},
	}
}

func openHarness(c *cli.Context) (*searcheval.Harness, error) {
	var opts []ai.ConfigOption
	if host := c.String("host"); host != "" {
		opts = append(opts, ai.WithHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("generator-model"); model != "" {
		opts = append(opts, ai.WithGeneratorModel(model))
	}

	config := ai.NewConfig(opts...)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return searcheval.NewHarness(c.String("db"), searcheval.WithAIConfig(config))
}

func indexCommand(c *cli.Context) error {
	ctx := context.Background()

	harness, err := openHarness(c)
	if err != nil {
		return err
	}
	defer harness.Close()

	docs, err := readDocuments(c.String("input"))
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents found under %s", c.String("input"))
	}

	var chunker chunk.Chunker = chunk.NewRecursiveSplitter(
		chunk.WithChunkSize(c.Int("chunk-size")),
		chunk.WithChunkOverlap(c.Int("chunk-overlap")),
	)
	if c.Bool("contextual") {
		chunker, err = chunk.NewContextualChunker(chunker, harness.Provider().Generator())
		if err != nil {
			return err
		}
	}

	pipeline, err := harness.NewIngestionPipeline(chunker)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	report, err := pipeline.Ingest(ctx, c.String("index"), docs)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d documents as %d chunks (%d embedded, %d dropped)\n",
		report.Documents, report.Chunks, report.Embedded, report.Dropped)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	harness, err := openHarness(c)
	if err != nil {
		return err
	}
	defer harness.Close()

	retriever, err := buildRetriever(ctx, harness, c)
	if err != nil {
		return err
	}

	results, err := retriever.Search(ctx, c.String("query"), c.Int("k"))
	if err != nil {
		return err
	}

	for i, result := range results {
		fmt.Printf("%2d. [%.4f] %s\n    %s\n", i+1, result.Score, result.Document.ID, firstLine(result.Document.Content))
	}
	return nil
}

func evaluateCommand(c *cli.Context) error {
	ctx := context.Background()

	harness, err := openHarness(c)
	if err != nil {
		return err
	}
	defer harness.Close()

	queries, err := readQueries(c.String("queries"))
	if err != nil {
		return err
	}

	retriever, err := buildRetriever(ctx, harness, c)
	if err != nil {
		return err
	}

	evaluator, err := harness.NewEvaluator(eval.WithRetrievalDepth(c.Int("k")))
	if err != nil {
		return err
	}

	result, err := evaluator.Evaluate(ctx, retriever, queries, nil)
	if err != nil {
		return err
	}

	fmt.Printf("Retriever: %s\n", result.RetrieverName)
	fmt.Printf("Queries: %d, ground truth coverage: %.2f\n", result.Aggregate.NumQueries, result.GroundTruthCoverage)
	fmt.Printf("MRR: %.4f\n", result.Aggregate.MRR)
	for _, k := range []int{1, 3, 5, 10} {
		fmt.Printf("P@%-2d %.4f  R@%-2d %.4f  NDCG@%-2d %.4f\n",
			k, result.Aggregate.MeanPrecisionAtK[k],
			k, result.Aggregate.MeanRecallAtK[k],
			k, result.Aggregate.MeanNDCGAtK[k])
	}
	return nil
}

func compareCommand(c *cli.Context) error {
	ctx := context.Background()

	harness, err := openHarness(c)
	if err != nil {
		return err
	}
	defer harness.Close()

	queries, err := readQueries(c.String("queries"))
	if err != nil {
		return err
	}

	baseline, err := openRetrieverMode(ctx, harness, c, c.String("baseline"))
	if err != nil {
		return err
	}
	candidate, err := openRetrieverMode(ctx, harness, c, c.String("candidate"))
	if err != nil {
		return err
	}

	evaluator, err := harness.NewEvaluator(eval.WithRetrievalDepth(c.Int("k")))
	if err != nil {
		return err
	}

	_, _, comparison, err := evaluator.Compare(ctx, baseline, candidate, queries, nil)
	if err != nil {
		return err
	}

	fmt.Print(comparison)
	return nil
}

func suiteCommand(c *cli.Context) error {
	ctx := context.Background()

	harness, err := openHarness(c)
	if err != nil {
		return err
	}
	defer harness.Close()

	generator, err := suite.NewQueryGenerator(c.String("repo"))
	if err != nil {
		return err
	}
	queries := generator.Generate()
	if len(queries) == 0 {
		return fmt.Errorf("no queries generated from %s", c.String("repo"))
	}

	vector, err := harness.OpenVectorRetriever(ctx, c.String("index"))
	if err != nil {
		return err
	}
	hybrid, err := harness.OpenHybridRetriever(ctx, c.String("index"), retrieval.WithAlpha(c.Float64("alpha")))
	if err != nil {
		return err
	}

	runner, err := harness.NewSuiteRunner(eval.WithRetrievalDepth(c.Int("k")))
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx, queries, []suite.Config{
		{Name: "vector", Retriever: vector},
		{Name: "hybrid", Retriever: hybrid},
	})
	if err != nil {
		return err
	}

	for _, config := range result.Configs {
		fmt.Printf("%s: MRR %.4f\n", config.Name, config.Evaluation.Aggregate.MRR)
		for _, category := range suite.Categories {
			if mrr, ok := config.CategoryMRR[category]; ok {
				fmt.Printf("  %-13s %.4f\n", category, mrr)
			}
		}
	}
	return nil
}

// buildRetriever opens the configured retriever mode and optionally wraps it
// in a rerank stage.
func buildRetriever(ctx context.Context, harness *searcheval.Harness, c *cli.Context) (retrieval.Retriever, error) {
	retriever, err := openRetrieverMode(ctx, harness, c, c.String("mode"))
	if err != nil {
		return nil, err
	}

	rerankURL := c.String("rerank-url")
	if rerankURL == "" {
		return retriever, nil
	}

	scorer, err := rerank.NewHTTPScorer(rerankURL)
	if err != nil {
		return nil, err
	}
	if err := scorer.Ready(ctx); err != nil {
		return nil, fmt.Errorf("cross-encoder not ready: %w", err)
	}
	reranker, err := rerank.NewCrossEncoderReranker(scorer)
	if err != nil {
		return nil, err
	}
	return retrieval.NewRerankingRetriever(retriever, reranker)
}

func openRetrieverMode(ctx context.Context, harness *searcheval.Harness, c *cli.Context, mode string) (retrieval.Retriever, error) {
	switch mode {
	case "vector":
		return harness.OpenVectorRetriever(ctx, c.String("index"))
	case "hybrid":
		return harness.OpenHybridRetriever(ctx, c.String("index"), retrieval.WithAlpha(c.Float64("alpha")))
	default:
		return nil, fmt.Errorf("unknown retriever mode %q: must be vector or hybrid", mode)
	}
}

// readDocuments loads every regular file under root as one document.
func readDocuments(root string) ([]core.Document, error) {
	var docs []core.Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("skipping unreadable file", "path", path, "err", err)
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		docs = append(docs, core.Document{
			ID:       core.IDFromContent(rel),
			Content:  string(data),
			Metadata: map[string]string{"path": rel},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// readQueries loads one query per line, skipping blanks and # comments.
func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return queries, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
