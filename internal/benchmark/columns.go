package benchmark

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Header aliases per logical column, in resolution order.
var (
	PromptAliases   = []string{"prompt", "question", "query"}
	ResponseAliases = []string{"output", "response", "answer"}
	SourcesAliases  = []string{"sources", "source", "urls", "references"}
	QualityAliases  = []string{"quality", "rating", "mark", "status", "evaluation", "grade"}
	RatingAliases   = []string{"good", "bad", "neutral", "score"}
)

// Positional fallbacks (0-based): columns B, C and D.
const (
	DefaultPromptCol   = 1
	DefaultResponseCol = 2
	DefaultSourcesCol  = 3
)

// NoColumn marks an optional column that is absent.
const NoColumn = -1

// Columns holds 0-based column positions resolved from a header row.
type Columns struct {
	Prompt   int
	Response int
	Sources  int
	Quality  int
	Rating   int
}

// Casers are stateful, so each call gets its own.
func normalizeHeader(h string) string {
	return strings.TrimSpace(cases.Lower(language.Und).String(h))
}

// DiscoverColumns resolves column positions by header name. Prompt, response
// and sources fall back to columns B, C and D when no alias matches; quality
// and rating are NoColumn when absent. When a header text repeats, its last
// occurrence wins.
func DiscoverColumns(header []string) Columns {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		index[key] = i
	}

	return Columns{
		Prompt:   resolve(index, PromptAliases, DefaultPromptCol),
		Response: resolve(index, ResponseAliases, DefaultResponseCol),
		Sources:  resolve(index, SourcesAliases, DefaultSourcesCol),
		Quality:  resolve(index, QualityAliases, NoColumn),
		Rating:   resolve(index, RatingAliases, NoColumn),
	}
}

func resolve(index map[string]int, aliases []string, fallback int) int {
	for _, a := range aliases {
		if i, ok := index[a]; ok {
			return i
		}
	}
	return fallback
}
