package suite

// Category labels what retrieval behavior a test query exercises.
type Category string

const (
	// CategoryDiscovery queries ask what exists ("which agent handles X").
	CategoryDiscovery Category = "discovery"

	// CategoryConfirmation queries check a specific fact ("is there an X").
	CategoryConfirmation Category = "confirmation"

	// CategoryHistorical queries ask about past changes.
	CategoryHistorical Category = "historical"

	// CategoryProcess queries ask how something works.
	CategoryProcess Category = "process"

	// CategoryEntity queries ask about a named thing directly.
	CategoryEntity Category = "entity"
)

// Categories lists every category in reporting order.
var Categories = []Category{
	CategoryDiscovery,
	CategoryConfirmation,
	CategoryHistorical,
	CategoryProcess,
	CategoryEntity,
}

// TestQuery is one labeled query in an evaluation suite.
type TestQuery struct {
	Text           string
	Category       Category
	EntityType     string
	ExpectedSource string
	Difficulty     string
}

// QuerySuite is an ordered set of labeled queries.
type QuerySuite []TestQuery

// Texts returns the unique query texts in suite order.
func (s QuerySuite) Texts() []string {
	seen := make(map[string]bool, len(s))
	texts := make([]string, 0, len(s))
	for _, q := range s {
		if seen[q.Text] {
			continue
		}
		seen[q.Text] = true
		texts = append(texts, q.Text)
	}
	return texts
}

// ByCategory groups query texts per category.
func (s QuerySuite) ByCategory() map[Category][]string {
	grouped := make(map[Category][]string)
	for _, q := range s {
		grouped[q.Category] = append(grouped[q.Category], q.Text)
	}
	return grouped
}
