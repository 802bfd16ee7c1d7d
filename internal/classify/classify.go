// Package classify decides whether a new QA answer is objectively worse than
// its benchmark using a fixed, ordered rule cascade.
package classify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/mentor-regress/internal/model"
)

// Policy thresholds. Changing any of these changes which rows get flagged.
const (
	collapseRatio       = 0.5
	collapseMinOldChars = 100
	genericMinOldChars  = 50
	keywordLimit        = 5
	keywordMinChars     = 4
	keywordDropRatio    = 0.5
	keywordMinOldHits   = 2
	repetitionMinChars  = 100
	repetitionMaxUnique = 0.3
	divergenceMaxShared = 0.3
	divergenceMinChars  = 100
)

// ErrorIndicators mark a response as an error payload.
var ErrorIndicators = []string{
	"error",
	"timeout",
	"http ",
	"failed",
	"exception",
	"empty response",
}

// GenericPhrases mark a response as a non-answer.
var GenericPhrases = []string{
	"i don't have information",
	"i cannot help",
	"i don't know",
	"no information available",
	"unable to provide",
	"sorry, i can't",
	"i'm not sure",
}

// Input is one comparison to classify.
type Input struct {
	Old        string
	New        string
	Prompt     string
	OldQuality model.Quality
}

// comparison holds the trimmed and lower-cased forms each rule reads.
type comparison struct {
	Input
	oldLower string
	newLower string
	oldLen   int
	newLen   int
}

// rule is one step of the cascade. check returns the reason when the rule fires.
type rule struct {
	name     string
	check    func(c *comparison) (string, bool)
	severity func(q model.Quality) model.Severity
}

func medium(model.Quality) model.Severity { return model.SeverityMedium }

// rules is the cascade in evaluation order. The first rule that fires decides
// the verdict.
var rules = []rule{
	{name: "error_regression", check: errorRegression, severity: model.SeverityFor},
	{name: "length_collapse", check: lengthCollapse, severity: model.SeverityFor},
	{name: "generic_regression", check: genericRegression, severity: model.SeverityFor},
	{name: "keyword_drop", check: keywordDrop, severity: medium},
	{name: "repetition", check: repetition, severity: medium},
	{name: "good_divergence", check: goodDivergence, severity: medium},
}

// Classify runs the cascade over one comparison.
func Classify(in Input) model.Verdict {
	c, ok := prepare(in)
	if !ok {
		return model.NotDegraded
	}
	for _, r := range rules {
		if reason, fired := r.check(c); fired {
			return model.Verdict{
				Degraded: true,
				Reason:   reason,
				Severity: r.severity(in.OldQuality),
			}
		}
	}
	return model.NotDegraded
}

// prepare applies the short-circuits and trims the input: an empty side
// gives no basis to judge, and a known-bad benchmark can only be improved on.
// Emptiness is checked before trimming, so a whitespace-only answer is
// still judged.
func prepare(in Input) (*comparison, bool) {
	if in.Old == "" || in.New == "" {
		return nil, false
	}
	in.Old = strings.TrimSpace(in.Old)
	in.New = strings.TrimSpace(in.New)
	if in.OldQuality == model.QualityBad {
		return nil, false
	}
	return &comparison{
		Input:    in,
		oldLower: strings.ToLower(in.Old),
		newLower: strings.ToLower(in.New),
		oldLen:   utf8.RuneCountInString(in.Old),
		newLen:   utf8.RuneCountInString(in.New),
	}, true
}

// LooksLikeError reports whether text contains any error indicator.
func LooksLikeError(text string) bool {
	return containsAny(strings.ToLower(text), ErrorIndicators)
}

func errorRegression(c *comparison) (string, bool) {
	if containsAny(c.newLower, ErrorIndicators) && !containsAny(c.oldLower, ErrorIndicators) {
		return "New response contains error, old response was valid", true
	}
	return "", false
}

func lengthCollapse(c *comparison) (string, bool) {
	if float64(c.newLen) < float64(c.oldLen)*collapseRatio && c.oldLen > collapseMinOldChars {
		return fmt.Sprintf("Response significantly shorter (Old: %d chars, New: %d chars)", c.oldLen, c.newLen), true
	}
	return "", false
}

func genericRegression(c *comparison) (string, bool) {
	if containsAny(c.newLower, GenericPhrases) && !containsAny(c.oldLower, GenericPhrases) && c.oldLen > genericMinOldChars {
		return "New response is generic/unhelpful, old response was specific", true
	}
	return "", false
}

func keywordDrop(c *comparison) (string, bool) {
	keywords := PromptKeywords(c.Prompt)
	oldHits := countHits(c.oldLower, keywords)
	newHits := countHits(c.newLower, keywords)
	if float64(newHits) < float64(oldHits)*keywordDropRatio && oldHits >= keywordMinOldHits {
		return fmt.Sprintf("New response less relevant (Old: %d keywords, New: %d keywords)", oldHits, newHits), true
	}
	return "", false
}

func repetition(c *comparison) (string, bool) {
	if c.newLen <= repetitionMinChars {
		return "", false
	}
	words := strings.Fields(c.New)
	if len(words) == 0 {
		return "", false
	}
	if float64(len(uniq(words)))/float64(len(words)) < repetitionMaxUnique {
		return "New response is highly repetitive", true
	}
	return "", false
}

func goodDivergence(c *comparison) (string, bool) {
	if c.OldQuality != model.QualityGood {
		return "", false
	}
	oldWords := uniq(strings.Fields(c.oldLower))
	if len(oldWords) == 0 {
		return "", false
	}
	newWords := uniq(strings.Fields(c.newLower))
	shared := 0
	for w := range oldWords {
		if _, ok := newWords[w]; ok {
			shared++
		}
	}
	overlap := float64(shared) / float64(len(oldWords))
	if overlap < divergenceMaxShared && c.oldLen > divergenceMinChars {
		return "New response differs significantly from GOOD benchmark (low word overlap)", true
	}
	return "", false
}

// PromptKeywords returns the first five lower-cased prompt words longer than
// four characters, in prompt order. Repeated words are kept.
func PromptKeywords(prompt string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(prompt)) {
		if utf8.RuneCountInString(w) > keywordMinChars {
			out = append(out, w)
			if len(out) == keywordLimit {
				break
			}
		}
	}
	return out
}

func countHits(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func uniq(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
