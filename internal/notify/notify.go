package notify

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Notifier delivers an alert.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, alert Alert) error
}

// Send delivers alert through n, logging the outcome. Delivery failures are
// never returned to the caller.
func Send(ctx context.Context, n Notifier, alert Alert) bool {
	if n == nil {
		return false
	}
	log := zap.L().With(zap.String("notifier", n.Name()), zap.Int("total", alert.Total))

	if alert.Total == 0 {
		log.Info("notify: no degraded responses, no alert needed")
		return false
	}

	if err := n.Notify(ctx, alert); err != nil {
		log.Warn("notify: failed to send alert", zap.Error(err))
		return false
	}
	log.Info("notify: alert sent",
		zap.Int("high", alert.High),
		zap.Int("medium", alert.Medium),
	)
	return true
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
