package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockInsight/internal/model"
	"StockInsight/internal/pipeline"
	"StockInsight/internal/recorder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	res    *pipeline.Result
	err    error
	calls  int
	digest string
}

func (s *stubRunner) Run(_ context.Context, _ time.Time) (*pipeline.Result, error) {
	s.calls++
	return s.res, s.err
}

func (s *stubRunner) LastDigest() string { return s.digest }

type stubNotifier struct{ sent []string }

func (s *stubNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	s.sent = append(s.sent, text)
	return nil
}

type stubRecorder struct{}

func (stubRecorder) RecordRun(*recorder.RunRecord) error { return nil }
func (stubRecorder) Close() error                        { return nil }

func (stubRecorder) RecentRuns(int) ([]recorder.RunSummary, error) {
	return []recorder.RunSummary{{RunDate: "2025-06-30", Status: model.RunOK, Symbols: 3}}, nil
}

func newTestScheduler(r *stubRunner, n *stubNotifier) *Scheduler {
	var pn pipeline.Notifier
	if n != nil {
		pn = n
	}
	return NewScheduler(context.Background(), time.UTC, r, pn, stubRecorder{})
}

func TestHandleCommand(t *testing.T) {
	r := &stubRunner{res: &pipeline.Result{Status: model.RunOK, Digest: "digest"}}
	n := &stubNotifier{}
	s := newTestScheduler(r, n)

	assert.Equal(t, "", s.HandleCommand(context.Background(), "/run"))
	assert.Equal(t, 1, r.calls)

	assert.Equal(t, "No run has completed yet.", s.HandleCommand(context.Background(), "/latest"))
	r.digest = "last digest"
	assert.Equal(t, "last digest", s.HandleCommand(context.Background(), "/LATEST@insight_bot"))

	assert.Contains(t, s.HandleCommand(context.Background(), "/history"), "2025-06-30 ok: 3 symbols")
	assert.Contains(t, s.HandleCommand(context.Background(), "hello"), "/run")
}

func TestHandleCommand_RunWithoutNotifierRepliesDigest(t *testing.T) {
	r := &stubRunner{res: &pipeline.Result{Status: model.RunOK, Digest: "digest"}}
	s := newTestScheduler(r, nil)
	assert.Equal(t, "digest", s.HandleCommand(context.Background(), "/run"))

	r.res = &pipeline.Result{Status: model.RunSkipped, Date: "2025-06-28"}
	assert.Contains(t, s.HandleCommand(context.Background(), "/run"), "2025-06-28 is a weekend")

	r.err = errors.New("model <down>")
	assert.Equal(t, "❌ run failed: model &lt;down&gt;", s.HandleCommand(context.Background(), "/run"))
}

func TestRunNow_NotifiesFailure(t *testing.T) {
	n := &stubNotifier{}
	s := newTestScheduler(&stubRunner{err: errors.New("boom")}, n)
	s.RunNow()
	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "daily run failed: boom")
}

func TestRegister(t *testing.T) {
	s := newTestScheduler(&stubRunner{}, nil)
	require.NoError(t, s.Register("0 30 7 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
	assert.Error(t, s.Register("every morning"))
}
