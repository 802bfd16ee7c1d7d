package model

import "strings"

// AnswerStatus reports whether the QA API produced an answer.
type AnswerStatus string

const (
	AnswerSuccess AnswerStatus = "success"
	AnswerError   AnswerStatus = "error"
)

// MaxAnswerSources caps the number of unique source URLs kept per answer.
const MaxAnswerSources = 10

// AnswerResult is the normalized outcome of one QA API call. On error, Text
// carries a short diagnostic instead of an answer.
type AnswerResult struct {
	Status  AnswerStatus `json:"status"`
	Text    string       `json:"text"`
	Sources []string     `json:"sources,omitempty"`
}

// OK reports whether the call succeeded.
func (a AnswerResult) OK() bool {
	return a.Status == AnswerSuccess
}

// JoinedSources returns the sources newline-joined, as written to sheets.
func (a AnswerResult) JoinedSources() string {
	return strings.Join(a.Sources, "\n")
}

// Mentor is one QA endpoint under test, backed by one benchmark sheet.
type Mentor struct {
	Sheet   int    `json:"sheet" yaml:"sheet" mapstructure:"sheet"`
	Name    string `json:"name" yaml:"name" mapstructure:"name"`
	APIPath string `json:"api_path" yaml:"api_path" mapstructure:"api_path"`
	AgentID string `json:"agent_id" yaml:"agent_id" mapstructure:"agent_id"`
}
