package notifier

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"StockInsight/internal/model"
	"StockInsight/internal/recorder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(srv *httptest.Server) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	n.RetryBase = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv).Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "<b>hi</b>", got["text"])
}

func TestSendWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	n := newTestNotifier(srv)
	require.NoError(t, n.SendWithRetry(context.Background(), "x", 3))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	atomic.StoreInt32(&calls, -10)
	err := n.SendWithRetry(context.Background(), "x", 1)
	assert.ErrorContains(t, err, "all 2 retries exhausted")
}

func TestSend_LongMessageFallsBackToPlainText(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	long := strings.Repeat("<b>TSLA</b> &lt;up&gt;\n", 400)
	require.NoError(t, newTestNotifier(srv).Send(context.Background(), long))
	_, hasMode := got["parse_mode"]
	assert.False(t, hasMode)
	assert.NotContains(t, got["text"], "<b>")
	assert.True(t, strings.HasPrefix(got["text"], "TSLA <up>\n"))
	assert.LessOrEqual(t, len([]rune(got["text"])), maxMessageRunes)
}

func TestSendWithRetry_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"ok":false,"description":"Bad Request: can't parse entities"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestNotifier(srv).SendWithRetry(context.Background(), "<b>broken", 3)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSendWithRetry_TooManyRequestsRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv).SendWithRetry(context.Background(), "x", 2))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Len(t, []rune(truncate(strings.Repeat("ก", 5000), maxMessageRunes)), maxMessageRunes)
}

func TestStartPolling(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var polls int32
	replies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if atomic.AddInt32(&polls, 1) == 1 {
				assert.Equal(t, "0", r.URL.Query().Get("offset"))
				_, _ = w.Write([]byte(`{"ok":true,"result":[
					{"update_id":7,"message":{"text":"/evil","chat":{"id":99}}},
					{"update_id":8,"message":{"text":" /latest ","chat":{"id":42}}}]}`))
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			replies <- body["text"]
			cancel()
		}
	}))
	defer srv.Close()

	var handled []string
	done := make(chan struct{})
	go func() {
		newTestNotifier(srv).StartPolling(ctx, func(_ context.Context, cmd string) string {
			handled = append(handled, cmd)
			return "digest"
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(6 * time.Second):
		t.Fatal("polling did not stop")
	}
	assert.Equal(t, []string{"/latest"}, handled)
	assert.Equal(t, "digest", <-replies)
}

func TestFormatDigest(t *testing.T) {
	records := []*model.FeatureRecord{
		{Requested: "TSLA", Price: 250, Change1d: 0.01, Trend: model.TrendUp},
		{Requested: "AMD", Price: math.NaN(), Change1d: math.NaN(), Trend: model.TrendDownSide},
	}
	advice := &model.Advice{
		Tickers: []model.Recommendation{{Ticker: "TSLA", Stance: model.StanceBuy, Confidence: model.Confidence{Value: 70, Set: true}}},
		Notes:   "risk <high>",
	}
	msg := FormatDigest("2025-06-30", records, advice, []string{"RKLB"})

	assert.Contains(t, msg, "<b>Daily AI Stock Insight</b> | 2025-06-30")
	assert.Contains(t, msg, "<b>TSLA</b> 250.00 (1.00%) Uptrend | 🟢Buy 70")
	assert.Contains(t, msg, "<b>AMD</b> - (-) Down/Sideways | - -")
	assert.Contains(t, msg, "no data: RKLB")
	assert.Contains(t, msg, "risk &lt;high&gt;")
}

func TestFormatRunHistory(t *testing.T) {
	assert.Equal(t, "No runs recorded yet.", FormatRunHistory(nil))
	msg := FormatRunHistory([]recorder.RunSummary{{RunDate: "2025-06-30", Status: model.RunOK, Symbols: 9, Skipped: 1}})
	assert.Contains(t, msg, "2025-06-30 ok: 9 symbols, 1 skipped")
	assert.Contains(t, FormatHelp(), "/run")
}
