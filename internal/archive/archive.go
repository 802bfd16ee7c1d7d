// Package archive uploads the degraded-responses report to a remote
// document store and returns where it landed.
package archive

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// TimestampLayout is the timestamp prefix of archived file names.
const TimestampLayout = "2006-01-02_15-04-05"

// Uploader stores a local file remotely and returns a link to it.
type Uploader interface {
	Name() string
	Upload(ctx context.Context, path string, now time.Time) (string, error)
}

// RemoteName returns the remote file name of path, prefixed with the upload
// timestamp.
func RemoteName(path string, now time.Time) string {
	return now.Format(TimestampLayout) + "_" + filepath.Base(path)
}

// Archive uploads path through u and returns the reference, or "" when the
// upload failed. Failures are logged, never returned.
func Archive(ctx context.Context, u Uploader, path string, now time.Time) string {
	if u == nil {
		return ""
	}
	log := zap.L().With(zap.String("archiver", u.Name()), zap.String("file", filepath.Base(path)))

	ref, err := u.Upload(ctx, path, now)
	if err != nil {
		log.Warn("archive: upload failed", zap.Error(err))
		return ""
	}
	log.Info("archive: uploaded", zap.String("url", ref))
	return ref
}
