package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/mentor-regress/internal/model"
	"github.com/sells-group/mentor-regress/internal/notify"
	"github.com/sells-group/mentor-regress/internal/store"
)

// --- Fetcher Fake ---

type fakeFetcher struct {
	answers map[string]model.AnswerResult
	calls   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, prompt string, mentor model.Mentor) model.AnswerResult {
	f.calls = append(f.calls, mentor.Name+": "+prompt)
	if a, ok := f.answers[prompt]; ok {
		return a
	}
	return model.AnswerResult{Status: model.AnswerError, Text: "HTTP 404"}
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveRun(ctx context.Context, s *model.RunSummary) (string, error) {
	args := m.Called(ctx, s)
	return args.String(0), args.Error(1)
}

func (m *mockStore) GetRun(ctx context.Context, id string) (*model.RunSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RunSummary), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.RunRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RunRecord), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// --- Notifier Mock ---

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Name() string { return "mock" }

func (m *mockNotifier) Notify(ctx context.Context, alert notify.Alert) error {
	return m.Called(ctx, alert).Error(0)
}

// --- Uploader Mock ---

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Name() string { return "mock" }

func (m *mockUploader) Upload(ctx context.Context, path string, now time.Time) (string, error) {
	args := m.Called(ctx, path, now)
	return args.String(0), args.Error(1)
}
