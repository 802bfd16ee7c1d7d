package archive

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNoFileURL is returned when the flow accepted the file but did not say
// where it was stored.
var ErrNoFileURL = eris.New("archive: upload succeeded but no file URL returned")

// UploadPayload is the body the Power Automate flow expects.
type UploadPayload struct {
	Filename    string `json:"filename"`
	FileContent string `json:"fileContent"`
	Timestamp   string `json:"timestamp"`
}

type uploadResponse struct {
	FileURL string `json:"fileUrl"`
}

// PowerAutomateUploader posts files to a Power Automate HTTP trigger that
// saves them to SharePoint.
type PowerAutomateUploader struct {
	flowURL string
	siteURL string
	client  *http.Client
}

// NewPowerAutomateUploader creates an uploader. siteURL prefixes the
// site-relative path the flow returns.
func NewPowerAutomateUploader(flowURL, siteURL string, timeout time.Duration) *PowerAutomateUploader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PowerAutomateUploader{
		flowURL: flowURL,
		siteURL: strings.TrimRight(siteURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements Uploader.
func (p *PowerAutomateUploader) Name() string { return "powerautomate" }

// Upload implements Uploader.
func (p *PowerAutomateUploader) Upload(ctx context.Context, path string, now time.Time) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrap(err, "archive: read file")
	}

	payload, err := json.Marshal(UploadPayload{
		Filename:    RemoteName(path, now),
		FileContent: base64.StdEncoding.EncodeToString(data),
		Timestamp:   now.Format(TimestampLayout),
	})
	if err != nil {
		return "", eris.Wrap(err, "archive: marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.flowURL, bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "archive: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "archive: upload request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "archive: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("archive: upload returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", eris.Wrap(err, "archive: decode response")
	}
	if out.FileURL == "" {
		return "", ErrNoFileURL
	}
	return p.siteURL + (&url.URL{Path: out.FileURL}).EscapedPath(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
