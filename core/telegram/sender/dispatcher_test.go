package sender

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func newTestDispatcher(t *testing.T, retries int) *Dispatcher {
	t.Helper()
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4, MaxRetries: retries, RetryBackoff: time.Millisecond})
	d.sleep = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(d.Close)
	return d
}

func TestDoRetriesTransientErrors(t *testing.T) {
	d := newTestDispatcher(t, 2)
	calls := 0
	err := d.Do(context.Background(), "send.text", "sendMessage", func() error {
		calls++
		if calls < 3 {
			return timeoutErr{}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Zero(t, d.ErrorCount())
}

func TestDoStopsOnPermanentError(t *testing.T) {
	d := newTestDispatcher(t, 5)
	calls := 0
	apiErr := &tele.Error{Code: 400, Description: "Bad Request: chat not found"}
	err := d.Do(context.Background(), "send.text", "sendMessage", func() error {
		calls++
		return apiErr
	})
	require.ErrorIs(t, err, apiErr)
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	d := newTestDispatcher(t, 2)
	calls := 0
	err := d.Do(context.Background(), "send.document", "sendDocument", func() error {
		calls++
		return timeoutErr{}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoHonoursCancelledContext(t *testing.T) {
	d := newTestDispatcher(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := d.Do(ctx, "send.text", "sendMessage", func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestEnqueueRunsJobs(t *testing.T) {
	d := newTestDispatcher(t, 0)
	var (
		wg    sync.WaitGroup
		count atomic.Int32
	)
	wg.Add(3)
	for i := 0; i < 3; i++ {
		require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
			defer wg.Done()
			count.Add(1)
			return nil
		}))
	}
	wg.Wait()
	assert.Equal(t, int32(3), count.Load())
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error { return nil })
	require.ErrorIs(t, err, ErrQueueClosed)
	d.Close()
}

func TestSanitizeErrorRedactsToken(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AAE-secret_token/sendMessage": EOF`)
	got := SanitizeError(err)
	assert.NotContains(t, got, "AAE-secret_token")
	assert.Contains(t, got, "bot<redacted>")
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{timeoutErr{}, "timeout"},
		{&tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}, "http_4xx"},
		{&tele.Error{Code: 502}, "http_5xx"},
		{errors.New("telegram: Too Many Requests (429)"), "flood"},
		{errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyError(tt.err), tt.err.Error())
	}
}
