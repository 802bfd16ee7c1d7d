package classify

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mentor-regress/internal/model"
)

func numberedWords(prefix string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(words, " ")
}

func TestClassify_EmptySideNeverDegraded(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
	}{
		{"empty old", "", "Error: timeout occurred"},
		{"empty new", strings.Repeat("A", 200), ""},
		{"both empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(Input{Old: tt.old, New: tt.new, Prompt: "anything", OldQuality: model.QualityGood})
			assert.False(t, v.Degraded)
			assert.Equal(t, model.SeverityNone, v.Severity)
			assert.Empty(t, v.Reason)
		})
	}
}

func TestClassify_WhitespaceOldIsJudged(t *testing.T) {
	v := Classify(Input{
		Old:        "   \n\t",
		New:        "Error: timeout occurred",
		Prompt:     "anything",
		OldQuality: model.QualityNeutral,
	})
	assert.True(t, v.Degraded)
	assert.Equal(t, model.SeverityMedium, v.Severity)
	assert.Equal(t, "New response contains error, old response was valid", v.Reason)
}

func TestClassify_BadBenchmarkNeverDegraded(t *testing.T) {
	inputs := []Input{
		{Old: "A valid old answer", New: "Error: timeout occurred"},
		{Old: strings.Repeat("A", 200), New: "tiny"},
		{Old: "x", New: strings.Repeat("same ", 200)},
	}
	for _, in := range inputs {
		in.Prompt = "How do I run a gemba walk?"
		in.OldQuality = model.QualityBad
		assert.False(t, Classify(in).Degraded)
	}
}

func TestClassify_ErrorRegression(t *testing.T) {
	in := Input{
		Old:        "The process improvement plan includes three steps.",
		New:        "Error: timeout occurred",
		Prompt:     "What is the plan?",
		OldQuality: model.QualityNeutral,
	}

	v := Classify(in)
	require.True(t, v.Degraded)
	assert.Equal(t, model.SeverityMedium, v.Severity)
	assert.Equal(t, "New response contains error, old response was valid", v.Reason)

	in.OldQuality = model.QualityGood
	assert.Equal(t, model.SeverityHigh, Classify(in).Severity)
}

func TestClassify_ErrorInBothIsNotRegression(t *testing.T) {
	v := Classify(Input{
		Old:        "Request failed upstream",
		New:        "Error: timeout occurred",
		Prompt:     "What?",
		OldQuality: model.QualityNeutral,
	})
	assert.False(t, v.Degraded)
}

func TestClassify_LengthCollapse(t *testing.T) {
	v := Classify(Input{
		Old:        strings.Repeat("A", 200),
		New:        strings.Repeat("B", 90),
		Prompt:     "Describe it",
		OldQuality: model.QualityGood,
	})
	require.True(t, v.Degraded)
	assert.Equal(t, model.SeverityHigh, v.Severity)
	assert.Contains(t, v.Reason, "200")
	assert.Contains(t, v.Reason, "90")
	assert.Equal(t, "Response significantly shorter (Old: 200 chars, New: 90 chars)", v.Reason)
}

func TestClassify_LengthCollapseNeedsLongOld(t *testing.T) {
	v := Classify(Input{
		Old:        strings.Repeat("A", 100),
		New:        "B",
		Prompt:     "x",
		OldQuality: model.QualityNeutral,
	})
	assert.False(t, v.Degraded)
}

func TestClassify_LengthCountsCharactersNotBytes(t *testing.T) {
	// 90 characters but 180 bytes: below the 100-character floor.
	v := Classify(Input{
		Old:        strings.Repeat("é", 90),
		New:        strings.Repeat("é", 40),
		Prompt:     "x",
		OldQuality: model.QualityNeutral,
	})
	assert.False(t, v.Degraded)
}

func TestClassify_GenericRegression(t *testing.T) {
	in := Input{
		Old:        "Value stream mapping documents every step of the flow from supplier to customer.",
		New:        "Sorry, I don't know the answer to that question right now, please rephrase it.",
		Prompt:     "What is VSM?",
		OldQuality: model.QualityNeutral,
	}

	v := Classify(in)
	require.True(t, v.Degraded)
	assert.Equal(t, model.SeverityMedium, v.Severity)
	assert.Equal(t, "New response is generic/unhelpful, old response was specific", v.Reason)

	in.OldQuality = model.QualityGood
	assert.Equal(t, model.SeverityHigh, Classify(in).Severity)
}

func TestClassify_GenericNeedsSubstantialOld(t *testing.T) {
	v := Classify(Input{
		Old:        "VSM maps flow.",
		New:        "I don't know.",
		Prompt:     "What is VSM?",
		OldQuality: model.QualityNeutral,
	})
	assert.False(t, v.Degraded)
}

func TestClassify_KeywordDrop(t *testing.T) {
	in := Input{
		Old:        "Kanban boards help teams visualize workflow and set limits.",
		New:        "Teams should visualize their process and keep work small.",
		Prompt:     "Explain kanban boards and workflow limits",
		OldQuality: model.QualityGood,
	}

	v := Classify(in)
	require.True(t, v.Degraded)
	assert.Equal(t, model.SeverityMedium, v.Severity, "keyword drop is always MEDIUM")
	assert.Equal(t, "New response less relevant (Old: 4 keywords, New: 0 keywords)", v.Reason)
}

func TestClassify_KeywordDropNeedsTwoOldHits(t *testing.T) {
	v := Classify(Input{
		Old:        "Kanban is a method.",
		New:        "It is a method.",
		Prompt:     "Explain kanban boards",
		OldQuality: model.QualityNeutral,
	})
	assert.False(t, v.Degraded)
}

func TestClassify_Repetition(t *testing.T) {
	for _, q := range []model.Quality{model.QualityGood, model.QualityNeutral, model.QualityUnknown} {
		v := Classify(Input{
			Old:        "short benchmark answer",
			New:        strings.Repeat("same ", 200),
			Prompt:     "How do I run a gemba walk?",
			OldQuality: q,
		})
		require.True(t, v.Degraded, "quality %s", q)
		assert.Equal(t, model.SeverityMedium, v.Severity)
		assert.Equal(t, "New response is highly repetitive", v.Reason)
	}
}

func TestClassify_RepetitionIsCaseSensitive(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Word word WORD wOrd ")
	}
	v := Classify(Input{
		Old:        "short benchmark answer",
		New:        b.String(),
		Prompt:     "x",
		OldQuality: model.QualityNeutral,
	})
	// 4 distinct tokens out of 160 is still repetitive.
	assert.True(t, v.Degraded)
}

func TestClassify_GoodDivergence(t *testing.T) {
	in := Input{
		Old:        numberedWords("old", 150),
		New:        numberedWords("new", 150),
		Prompt:     "Summarize the benchmark",
		OldQuality: model.QualityGood,
	}

	v := Classify(in)
	require.True(t, v.Degraded)
	assert.Equal(t, model.SeverityMedium, v.Severity)
	assert.Contains(t, v.Reason, "GOOD benchmark")
}

func TestClassify_DivergenceOnlyForGoodBenchmarks(t *testing.T) {
	for _, q := range []model.Quality{model.QualityNeutral, model.QualityUnknown} {
		v := Classify(Input{
			Old:        numberedWords("old", 150),
			New:        numberedWords("new", 150),
			Prompt:     "Summarize the benchmark",
			OldQuality: q,
		})
		assert.False(t, v.Degraded, "quality %s", q)
	}
}

func TestClassify_SimilarAnswerPasses(t *testing.T) {
	old := numberedWords("w", 150)
	v := Classify(Input{
		Old:        old,
		New:        old + " plus a closing sentence",
		Prompt:     "Summarize the benchmark",
		OldQuality: model.QualityGood,
	})
	assert.False(t, v.Degraded)
	assert.Equal(t, model.NotDegraded, v)
}

func TestClassify_FirstRuleWins(t *testing.T) {
	// Short error text also collapses in length; the error reason is reported.
	v := Classify(Input{
		Old:        strings.Repeat("A", 300),
		New:        "HTTP 500",
		Prompt:     "x",
		OldQuality: model.QualityGood,
	})
	require.True(t, v.Degraded)
	assert.Equal(t, "New response contains error, old response was valid", v.Reason)
}

func TestClassify_Idempotent(t *testing.T) {
	in := Input{
		Old:        strings.Repeat("A", 200),
		New:        strings.Repeat("B", 90),
		Prompt:     "Describe it",
		OldQuality: model.QualityGood,
	}
	assert.Equal(t, Classify(in), Classify(in))
}

func TestRuleOrder(t *testing.T) {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	assert.Equal(t, []string{
		"error_regression",
		"length_collapse",
		"generic_regression",
		"keyword_drop",
		"repetition",
		"good_divergence",
	}, names)
}

func TestPromptKeywords(t *testing.T) {
	tests := []struct {
		prompt string
		want   []string
	}{
		{"How do I run a gemba walk?", []string{"gemba", "walk?"}},
		{"Explain kanban boards and workflow limits today please", []string{"explain", "kanban", "boards", "workflow", "limits"}},
		{"Kanban kanban KANBAN", []string{"kanban", "kanban", "kanban"}},
		{"a an the", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PromptKeywords(tt.prompt), tt.prompt)
	}
}

func TestLooksLikeError(t *testing.T) {
	assert.True(t, LooksLikeError("Request TIMEOUT (60s)"))
	assert.True(t, LooksLikeError("HTTP 502"))
	assert.False(t, LooksLikeError("Everything went fine"))
}
