package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockInsight/internal/model"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReply = `{"date":"2025-06-30","tickers":[{"ticker":"TSLA","stance":"Buy","confidence":70,
"entry_rule":"pullback to SMA20","entry_price_range":"240-245","stop_loss":"3%","take_profit":"6%",
"timeframe":"weeks","reasoning_bullets":["RSI 65"],"positive_factors":["deliveries"],"negative_factors":"-",
"news_refs":[]}],"notes":"ok"}`

func TestParseAdvice(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"plain", validReply, false},
		{"fenced", "```" + validReply + "```", false},
		{"json fence", "```json\n" + validReply + "\n```", false},
		{"leading prose", "Here is the analysis:\n" + validReply + "\n", false},
		{"no object", "Sorry, I cannot help with that.", true},
		{"broken object", "prefix {\"date\": \"2025\", \"tickers\": [}", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advice, err := ParseAdvice(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedReply))
				return
			}
			require.NoError(t, err)
			rec, ok := advice.Lookup("TSLA")
			require.True(t, ok)
			assert.Equal(t, model.StanceBuy, rec.Stance)
			assert.Equal(t, 70.0, rec.Confidence.Value)
			assert.Empty(t, rec.NegativeFactors)
		})
	}
}

func TestParseAdvice_LooseFieldsKept(t *testing.T) {
	advice, err := ParseAdvice(`{"tickers":[{"ticker":"AAPL","stance":"Buy","confidence":"high",
"reasoning_bullets":["a",3]}]}`)
	require.NoError(t, err)
	rec, ok := advice.Lookup("AAPL")
	require.True(t, ok)
	assert.Equal(t, "high", rec.Confidence.String())
	assert.Equal(t, model.Bullets{"a", "3"}, rec.ReasoningBullets)
}

func TestDetectProvider(t *testing.T) {
	tests := map[string]ProviderType{
		"gemini-2.5-flash":               ProviderGemini,
		"google/gemini-2.5-pro":          ProviderGemini,
		"claude-sonnet-4-5":              ProviderClaude,
		"anthropic/claude-opus-4-1":      ProviderClaude,
		"Claude/claude-3-5-haiku-latest": ProviderClaude,
		"something-else":                 ProviderGemini,
	}
	for in, want := range tests {
		assert.Equal(t, want, DetectProvider(in), in)
	}
	assert.Equal(t, "claude-opus-4-1", NormalizeModel("anthropic/claude-opus-4-1"))
	assert.Equal(t, "gemini-2.5-flash", NormalizeModel("gemini-2.5-flash"))
}

func TestNewProvider_MissingKey(t *testing.T) {
	_, err := NewProvider(context.Background(), "gemini-2.5-flash", Keys{Anthropic: "a"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewProvider(context.Background(), "claude-sonnet-4-5", Keys{Gemini: "g"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	p, err := NewProvider(context.Background(), "claude-sonnet-4-5", Keys{Anthropic: "a"})
	require.NoError(t, err)
	assert.Equal(t, ProviderClaude, p.Type())
}

func sampleRecord(symbol string) *model.FeatureRecord {
	return &model.FeatureRecord{
		Symbol: symbol, Requested: symbol, Price: 250.5, Change1d: 0.012, Change5d: -0.03, Change20d: 0.1,
		SMA20: 245, SMA50: 230, SMA200: math.NaN(), RSI14: 61.23, MACD: 1.2341, MACDSignal: 1.1,
		High52w: 300, Low52w: 150, OffHigh52wPct: -0.165,
		Trend: model.TrendUp, RSIState: model.RSINeutral, MACDState: model.MACDBullish,
	}
}

func TestBuildPrompt(t *testing.T) {
	idx := sampleRecord("SPY")
	idx.Requested = "^GSPC"
	p := BuildPrompt(PromptInput{
		Date:          "2025-06-30",
		Language:      "Thai",
		StopLossPct:   0.03,
		TakeProfitPct: 0.06,
		Overview:      []OverviewGroup{{Key: "indices", Records: []*model.FeatureRecord{idx}}, {Key: "fx"}},
		Records:       []*model.FeatureRecord{sampleRecord("TSLA"), sampleRecord("AMD")},
		News: map[string][]model.NewsItem{
			"TSLA": {{Title: "Deliveries beat", Link: "https://n/1"}, {Title: "Recall", Link: "https://n/2"}},
		},
	})

	assert.Contains(t, p.System, "SL 3.00%, TP 6.00%")
	assert.Contains(t, p.System, "in Thai")
	assert.Contains(t, p.System, `"stance": "Buy|Sell|Hold"`)
	assert.Contains(t, p.User, "Date: 2025-06-30")
	assert.Contains(t, p.User, "- indices:SPY p=250.50 1d=1.20% rsi=61.2 trend=Uptrend\n")
	assert.Contains(t, p.User, "- TSLA price=250.50 1d=1.20% 5d=-3.00% 20d=10.00% SMA20/50/200=245.00/230.00/- "+
		"RSI14=61.2(Neutral) MACD=1.234/1.100(Bullish) 52wH/L=300.00/150.00 offHigh=-16.50%")
	assert.Contains(t, p.User, "- TSLA NEWS1: Deliveries beat | https://n/1\n- TSLA NEWS2: Recall | https://n/2")
	assert.NotContains(t, p.User, "AMD NEWS")
}

func TestBuildPrompt_EmptySections(t *testing.T) {
	p := BuildPrompt(PromptInput{Date: "2025-06-30"})
	assert.Contains(t, p.User, "Market overview (short):\n- -\n")
	assert.Contains(t, p.User, "Stocks to analyse:\n-\n")
	assert.Contains(t, p.System, "in English")
}

type fixedProvider struct {
	Reply   string
	Err     error
	prompts []Prompt
}

func (f *fixedProvider) Generate(_ context.Context, p Prompt) (string, error) {
	f.prompts = append(f.prompts, p)
	return f.Reply, f.Err
}

func (f *fixedProvider) Type() ProviderType { return "fixed" }
func (f *fixedProvider) Close() error       { return nil }
func (f *fixedProvider) Prompts() []Prompt  { return f.prompts }

func TestAdvisor_Advise(t *testing.T) {
	sp := &fixedProvider{Reply: "```json\n" + strings.Replace(validReply, `"date":"2025-06-30",`, "", 1) + "\n```"}
	a := New(sp, time.Minute)

	advice, err := a.Advise(context.Background(), PromptInput{
		Date:    "2025-07-01",
		Records: []*model.FeatureRecord{sampleRecord("TSLA"), sampleRecord("NVDA")},
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-07-01", advice.Date)
	require.Len(t, sp.Prompts(), 1)
	assert.Contains(t, sp.Prompts()[0].User, "NVDA price=")
}

func TestAdvisor_Errors(t *testing.T) {
	a := New(&fixedProvider{Err: errors.New("quota")}, 0)
	_, err := a.Advise(context.Background(), PromptInput{})
	assert.ErrorContains(t, err, "quota")

	a = New(&fixedProvider{Reply: "no json here"}, 0)
	_, err = a.Advise(context.Background(), PromptInput{})
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestClaudeProvider_Generate(t *testing.T) {
	var req struct {
		Model  string `json:"model"`
		System []struct {
			Text string `json:"text"`
		} `json:"system"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",
			"content":[{"type":"text","text":"{\"tickers\":[]}"}],"stop_reason":"end_turn",
			"usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	defer srv.Close()

	c := NewClaudeProvider("test-key", "claude-sonnet-4-5", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	text, err := c.Generate(context.Background(), Prompt{System: "sys", User: "user"})
	require.NoError(t, err)
	assert.Equal(t, `{"tickers":[]}`, text)
	assert.Equal(t, "claude-sonnet-4-5", req.Model)
	require.Len(t, req.System, 1)
	assert.Equal(t, "sys", req.System[0].Text)
}
