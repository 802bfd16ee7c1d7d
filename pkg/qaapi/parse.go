package qaapi

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sells-group/mentor-regress/internal/model"
)

const (
	emptyBodyText    = "Empty response from API"
	noSSEContentText = "SSE response: No content extracted"
	maxScrapedURLs   = 5
	maxUnexpectedLen = 200
)

// ProgressMarkers flag streamed events that only report progress.
var ProgressMarkers = []string{"🔄", "🔧", "📋", "🔍", "📂", "🤔", "📚", "✨"}

// sourceURLFields are tried in order on each source object.
var sourceURLFields = []string{"page_url", "url", "link", "source_url"}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)

// ParseBody normalizes a 200 response body into an AnswerResult, choosing
// the event-stream or JSON parser by shape.
func ParseBody(body string) model.AnswerResult {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return model.AnswerResult{Status: model.AnswerSuccess, Text: emptyBodyText}
	}
	if strings.HasPrefix(trimmed, "data:") || strings.Contains(trimmed, "\ndata:") {
		return ParseSSE(trimmed)
	}
	return ParseJSON(trimmed)
}

// ParseSSE concatenates the answer text carried by "data: " events and
// collects their source URLs.
func ParseSSE(raw string) model.AnswerResult {
	var (
		text strings.Builder
		urls []string
	)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimSpace(line[len("data: "):])
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var event map[string]any
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			continue
		}

		if out := stringField(event, "assistant_output"); out != "" {
			if !containsMarker(out) {
				text.WriteString(out)
			}
		} else if nested, ok := event["data"].(map[string]any); ok {
			if out := stringField(nested, "assistant_output"); out != "" {
				text.WriteString(out)
			} else if content := stringField(nested, "content"); content != "" {
				text.WriteString(content)
			}
			urls = append(urls, sourceURLs(nested["sources"])...)
		} else if content := stringField(event, "content"); content != "" {
			text.WriteString(content)
		}

		urls = append(urls, sourceURLs(event["sources"])...)
	}

	content := text.String()
	if content == "" {
		content = noSSEContentText
	}

	if len(urls) == 0 {
		found := urlPattern.FindAllString(content+raw, -1)
		if len(found) > maxScrapedURLs {
			found = found[:maxScrapedURLs]
		}
		urls = found
	}

	return model.AnswerResult{
		Status:  model.AnswerSuccess,
		Text:    content,
		Sources: dedupe(urls, model.MaxAnswerSources),
	}
}

// ParseJSON reads a single JSON object with a content field.
func ParseJSON(raw string) model.AnswerResult {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return model.AnswerResult{
			Status: model.AnswerError,
			Text:   "JSON parse error: " + err.Error(),
		}
	}

	if obj, ok := v.(map[string]any); ok {
		if content, ok := obj["content"]; ok {
			return model.AnswerResult{Status: model.AnswerSuccess, Text: stringify(content)}
		}
	}

	return model.AnswerResult{
		Status: model.AnswerSuccess,
		Text:   "Unexpected JSON format: " + truncateRunes(raw, maxUnexpectedLen),
	}
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	return stringify(v)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

func containsMarker(s string) bool {
	for _, m := range ProgressMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func sourceURLs(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var urls []string
	for _, item := range list {
		src, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, field := range sourceURLFields {
			if u := stringField(src, field); u != "" {
				urls = append(urls, u)
				break
			}
		}
	}
	return urls
}

func dedupe(urls []string, limit int) []string {
	if len(urls) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
		if len(out) == limit {
			break
		}
	}
	return out
}
