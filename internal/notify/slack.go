package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/slack-go/slack"

	"github.com/sells-group/mentor-regress/internal/model"
)

// SlackNotifier posts alerts to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a SlackNotifier.
func NewSlackNotifier(webhookURL string, timeout time.Duration) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL, client: newHTTPClient(timeout)}
}

// Name implements Notifier.
func (s *SlackNotifier) Name() string { return "slack" }

// Notify implements Notifier.
func (s *SlackNotifier) Notify(ctx context.Context, alert Alert) error {
	msg := BuildSlackMessage(alert)
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, &msg); err != nil {
		return eris.Wrap(err, "notify: slack webhook")
	}
	return nil
}

// BuildSlackMessage renders an alert as a Block Kit message with one
// coloured attachment per detailed issue.
func BuildSlackMessage(a Alert) slack.WebhookMessage {
	var facts strings.Builder
	fmt.Fprintf(&facts, "*Total Degraded Responses:* %d\n", a.Total)
	fmt.Fprintf(&facts, "*High Severity Issues:* 🔴 %d\n", a.High)
	fmt.Fprintf(&facts, "*Medium Severity Issues:* 🟠 %d", a.Medium)
	if a.ReportFile != "" {
		fmt.Fprintf(&facts, "\n*Report File:* %s", a.ReportFile)
	}
	if a.ArchiveURL != "" {
		fmt.Fprintf(&facts, "\n*Archived Report:* <%s|Open Report>", a.ArchiveURL)
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, a.Title(), true, false)),
		slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, a.Timestamp.Format(time.DateTime), false, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, facts.String(), false, false), nil, nil),
	}
	if note := a.RemainingNote(); note != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, strings.ReplaceAll(note, "**", "*"), false, false), nil, nil,
		))
	}

	attachments := make([]slack.Attachment, 0, len(a.Issues))
	for _, is := range a.Issues {
		color := "#" + ColorMedium
		if is.Severity == model.SeverityHigh {
			color = "#" + ColorHigh
		}
		attachments = append(attachments, slack.Attachment{
			Color: color,
			Title: is.Emoji() + " " + is.Title(),
			Fields: []slack.AttachmentField{
				{Title: "Prompt", Value: is.Prompt},
				{Title: "Reason", Value: is.Reason},
				{Title: "Severity", Value: string(is.Severity), Short: true},
			},
		})
	}

	return slack.WebhookMessage{
		Text:        a.Summary(),
		Blocks:      &slack.Blocks{BlockSet: blocks},
		Attachments: attachments,
	}
}
