package suite

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Directory names scanned under the repository root.
const (
	agentsDir    = "agents"
	processesDir = "processes"
	pluginsDir   = "plugins"
)

// QueryGenerator synthesizes a labeled query suite from a repository layout:
// agent registries, process documents and plugin directories each contribute
// queries in the categories they naturally exercise. Missing directories and
// unreadable entries are skipped, never fatal.
type QueryGenerator struct {
	root   string
	logger *slog.Logger
}

// GeneratorOption configures a QueryGenerator.
type GeneratorOption func(*QueryGenerator)

// WithGeneratorLogger sets a custom logger.
// Default is slog.Default().
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *QueryGenerator) {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
	}
}

// NewQueryGenerator creates a generator rooted at a repository checkout.
func NewQueryGenerator(root string, opts ...GeneratorOption) (*QueryGenerator, error) {
	if root == "" {
		return nil, ErrRootRequired
	}

	g := &QueryGenerator{
		root:   root,
		logger: slog.Default().With("component", "query-generator"),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Generate scans the repository and returns the synthesized suite. A layout
// with none of the known directories yields an empty suite.
func (g *QueryGenerator) Generate() QuerySuite {
	var queries QuerySuite
	queries = append(queries, g.agentQueries()...)
	queries = append(queries, g.processQueries()...)
	queries = append(queries, g.pluginQueries()...)

	g.logger.Info("generated query suite", "queries", len(queries))
	return queries
}

func (g *QueryGenerator) agentQueries() QuerySuite {
	var queries QuerySuite
	for _, entry := range g.scanDir(agentsDir) {
		name := entryName(entry.name)
		source := filepath.Join(agentsDir, entry.name)

		queries = append(queries,
			TestQuery{
				Text:           fmt.Sprintf("Which agent handles %s tasks?", name),
				Category:       CategoryDiscovery,
				EntityType:     "agent",
				ExpectedSource: source,
				Difficulty:     "easy",
			},
			TestQuery{
				Text:           fmt.Sprintf("Is there an agent called %s?", name),
				Category:       CategoryConfirmation,
				EntityType:     "agent",
				ExpectedSource: source,
				Difficulty:     "easy",
			},
			TestQuery{
				Text:           fmt.Sprintf("What does the %s agent do?", name),
				Category:       CategoryEntity,
				EntityType:     "agent",
				ExpectedSource: source,
				Difficulty:     "medium",
			},
		)
	}
	return queries
}

func (g *QueryGenerator) processQueries() QuerySuite {
	var queries QuerySuite
	for _, entry := range g.scanDir(processesDir) {
		name := entryName(entry.name)
		source := filepath.Join(processesDir, entry.name)

		queries = append(queries,
			TestQuery{
				Text:           fmt.Sprintf("How does the %s process work?", name),
				Category:       CategoryProcess,
				EntityType:     "process",
				ExpectedSource: source,
				Difficulty:     "medium",
			},
			TestQuery{
				Text:           fmt.Sprintf("What changed recently in the %s process?", name),
				Category:       CategoryHistorical,
				EntityType:     "process",
				ExpectedSource: source,
				Difficulty:     "hard",
			},
		)
	}
	return queries
}

func (g *QueryGenerator) pluginQueries() QuerySuite {
	var queries QuerySuite
	for _, entry := range g.scanDir(pluginsDir) {
		name := entryName(entry.name)
		source := filepath.Join(pluginsDir, entry.name)

		queries = append(queries,
			TestQuery{
				Text:           fmt.Sprintf("Is a %s plugin available?", name),
				Category:       CategoryDiscovery,
				EntityType:     "plugin",
				ExpectedSource: source,
				Difficulty:     "easy",
			},
			TestQuery{
				Text:           fmt.Sprintf("What does the %s plugin provide?", name),
				Category:       CategoryEntity,
				EntityType:     "plugin",
				ExpectedSource: source,
				Difficulty:     "medium",
			},
		)
	}
	return queries
}

type dirEntry struct {
	name string
}

// scanDir lists usable entries of a directory under the root. A missing
// directory, an unreadable entry, hidden files and names that are not valid
// UTF-8 are all skipped with a log line.
func (g *QueryGenerator) scanDir(dir string) []dirEntry {
	path := filepath.Join(g.root, dir)
	entries, err := os.ReadDir(path)
	if err != nil {
		g.logger.Debug("skipping directory", "path", path, "err", err)
		return nil
	}

	usable := make([]dirEntry, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !utf8.ValidString(name) {
			g.logger.Warn("skipping entry with invalid encoding", "dir", dir)
			continue
		}
		if _, err := entry.Info(); err != nil {
			g.logger.Warn("skipping unreadable entry", "dir", dir, "name", name, "err", err)
			continue
		}
		usable = append(usable, dirEntry{name: name})
	}
	return usable
}

// entryName turns a file or directory name into a human-readable label.
func entryName(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}
