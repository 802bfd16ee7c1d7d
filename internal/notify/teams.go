package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// MessageCard is the Office 365 connector card posted to Teams.
type MessageCard struct {
	Type       string        `json:"@type"`
	Context    string        `json:"@context"`
	Summary    string        `json:"summary"`
	ThemeColor string        `json:"themeColor"`
	Title      string        `json:"title"`
	Sections   []CardSection `json:"sections"`
}

// CardSection is one block of a MessageCard.
type CardSection struct {
	ActivityTitle    string     `json:"activityTitle,omitempty"`
	ActivitySubtitle string     `json:"activitySubtitle,omitempty"`
	Facts            []CardFact `json:"facts,omitempty"`
	Text             string     `json:"text,omitempty"`
	Markdown         bool       `json:"markdown,omitempty"`
}

// CardFact is a name/value line.
type CardFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TeamsNotifier posts MessageCards to a Teams incoming webhook.
type TeamsNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewTeamsNotifier creates a TeamsNotifier.
func NewTeamsNotifier(webhookURL string, timeout time.Duration) *TeamsNotifier {
	return &TeamsNotifier{webhookURL: webhookURL, client: newHTTPClient(timeout)}
}

// Name implements Notifier.
func (t *TeamsNotifier) Name() string { return "teams" }

// Notify implements Notifier. The webhook must answer 200 or 202.
func (t *TeamsNotifier) Notify(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(BuildMessageCard(alert))
	if err != nil {
		return eris.Wrap(err, "notify: marshal card")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// BuildMessageCard renders an alert as a MessageCard: a facts section, one
// section per detailed issue and a trailing note for the rest.
func BuildMessageCard(a Alert) MessageCard {
	facts := []CardFact{
		{Name: "Total Degraded Responses", Value: strconv.Itoa(a.Total)},
		{Name: "High Severity Issues", Value: "🔴 " + strconv.Itoa(a.High)},
		{Name: "Medium Severity Issues", Value: "🟠 " + strconv.Itoa(a.Medium)},
	}
	if a.ReportFile != "" {
		facts = append(facts, CardFact{Name: "Report File", Value: a.ReportFile})
	}
	if a.ArchiveURL != "" {
		facts = append(facts, CardFact{Name: "📁 Archived Report", Value: "[Open Report](" + a.ArchiveURL + ")"})
	}

	sections := []CardSection{{
		ActivityTitle:    "🚨 API Quality Alert",
		ActivitySubtitle: a.Timestamp.Format(time.DateTime),
		Facts:            facts,
		Markdown:         true,
	}}
	for _, is := range a.Issues {
		sections = append(sections, CardSection{
			ActivityTitle: is.Emoji() + " " + is.Title(),
			Facts: []CardFact{
				{Name: "Prompt", Value: is.Prompt},
				{Name: "Reason", Value: is.Reason},
				{Name: "Severity", Value: string(is.Severity)},
			},
		})
	}
	if note := a.RemainingNote(); note != "" {
		sections = append(sections, CardSection{Text: note})
	}

	return MessageCard{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		Summary:    a.Summary(),
		ThemeColor: a.ThemeColor(),
		Title:      a.Title(),
		Sections:   sections,
	}
}
