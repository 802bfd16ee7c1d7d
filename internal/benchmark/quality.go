package benchmark

import (
	"strings"

	"github.com/sells-group/mentor-regress/internal/model"
)

// Label word lists. A label matches when it contains any word, ignoring case.
var (
	GoodMarks    = []string{"good", "excellent", "pass", "acceptable", "✓", "✔"}
	BadMarks     = []string{"bad", "poor", "fail", "unacceptable", "✗", "✘"}
	NeutralMarks = []string{"neutral", "average", "ok", "acceptable", "~"}
)

// NormalizeQuality classifies a free-text label, checking the good, bad and
// neutral lists in that order. "unacceptable" is removed before the good
// check so it does not count as "acceptable".
func NormalizeQuality(label string) (model.Quality, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return model.QualityUnknown, false
	}
	switch {
	case containsAny(strings.ReplaceAll(l, "unacceptable", ""), GoodMarks):
		return model.QualityGood, true
	case containsAny(l, BadMarks):
		return model.QualityBad, true
	case containsAny(l, NeutralMarks):
		return model.QualityNeutral, true
	}
	return model.QualityUnknown, false
}

// resolveQuality combines the quality and rating labels. The rating column
// is evaluated second and overrides the quality column when it classifies.
func resolveQuality(qualityLabel, ratingLabel string) model.Quality {
	q := model.QualityUnknown
	if got, ok := NormalizeQuality(qualityLabel); ok {
		q = got
	}
	if got, ok := NormalizeQuality(ratingLabel); ok {
		q = got
	}
	return q
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
