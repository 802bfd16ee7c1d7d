package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mentor-regress/internal/archive"
	"github.com/sells-group/mentor-regress/internal/config"
	"github.com/sells-group/mentor-regress/internal/notify"
	"github.com/sells-group/mentor-regress/internal/pipeline"
	"github.com/sells-group/mentor-regress/internal/store"
	"github.com/sells-group/mentor-regress/pkg/qaapi"
)

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func initStore(ctx context.Context, c config.StoreConfig) (store.Store, error) {
	switch c.Driver {
	case "sqlite", "":
		dsn := c.DatabaseURL
		if dsn == "" {
			dsn = "regress.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, c.DatabaseURL, nil)
	case "none":
		return nil, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Driver)
	}
}

func initFetcher(c config.APIConfig) qaapi.Client {
	return qaapi.NewClient(c.BaseURL,
		qaapi.WithIdentity(c.EmailID, c.SessionID),
		qaapi.WithAPIKey(c.APIKey),
		qaapi.WithUserAgent(c.UserAgent),
		qaapi.WithTimeout(c.Timeout()),
		qaapi.WithRateLimit(c.RequestsPerSecond),
		qaapi.WithInsecureSkipVerify(c.InsecureSkipVerify),
	)
}

// initNotifier returns nil when notifications are off or no webhook is set.
func initNotifier(c config.NotifyConfig) (notify.Notifier, error) {
	if !c.Enabled || c.WebhookURL == "" {
		return nil, nil
	}
	switch c.Driver {
	case "teams", "":
		return notify.NewTeamsNotifier(c.WebhookURL, secs(c.TimeoutSecs)), nil
	case "slack":
		return notify.NewSlackNotifier(c.WebhookURL, secs(c.TimeoutSecs)), nil
	default:
		return nil, eris.Errorf("unsupported notify driver: %s", c.Driver)
	}
}

// initUploader returns nil when archiving is off or no target is set.
func initUploader(c config.ArchiveConfig) (archive.Uploader, error) {
	if !c.Enabled || c.URL == "" {
		return nil, nil
	}
	switch c.Driver {
	case "powerautomate", "":
		return archive.NewPowerAutomateUploader(c.URL, c.SiteURL, secs(c.TimeoutSecs)), nil
	case "ftp":
		return archive.NewFTPUploader(c.URL, secs(c.TimeoutSecs)), nil
	default:
		return nil, eris.Errorf("unsupported archive driver: %s", c.Driver)
	}
}

// sweepOptions switches off the side effects of a single sweep.
type sweepOptions struct {
	NoNotify  bool
	NoArchive bool
}

// sweepEnv holds a ready pipeline and the resources it owns.
type sweepEnv struct {
	Pipeline *pipeline.Pipeline
	Store    store.Store
}

// Close releases the store.
func (e *sweepEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initPipeline(ctx context.Context, c *config.Config, opts sweepOptions) (*sweepEnv, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx, c.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	env := &sweepEnv{Store: st}

	pipeOpts := []pipeline.Option{}
	if st != nil {
		if err := st.Migrate(ctx); err != nil {
			env.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		pipeOpts = append(pipeOpts, pipeline.WithStore(st))
	}

	if !opts.NoNotify {
		n, err := initNotifier(c.Notify)
		if err != nil {
			env.Close()
			return nil, err
		}
		if n != nil {
			pipeOpts = append(pipeOpts, pipeline.WithNotifier(n))
		}
	}
	if !opts.NoArchive {
		u, err := initUploader(c.Archive)
		if err != nil {
			env.Close()
			return nil, err
		}
		if u != nil {
			pipeOpts = append(pipeOpts, pipeline.WithUploader(u))
		}
	}

	env.Pipeline = pipeline.New(c, initFetcher(c.API), pipeOpts...)
	return env, nil
}
