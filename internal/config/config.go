package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Timezone      string `yaml:"timezone" default:"Asia/Bangkok" validate:"required,timezone"`
	SkipIfWeekend bool   `yaml:"skip_if_weekend" default:"true"`
	LookbackDays  int    `yaml:"lookback_days" default:"260" validate:"gte=50"`
	Model         string `yaml:"model" default:"gemini-2.5-flash" validate:"required"`

	Tickers     []string `yaml:"tickers" default:"[\"TSLA\",\"NVDA\",\"AAPL\",\"MSFT\",\"AMZN\",\"ALAB\",\"PLTR\",\"TSM\",\"AMD\",\"RKLB\"]" validate:"dive,required"`
	Indices     []string `yaml:"indices" default:"[\"^GSPC\",\"^NDX\"]" validate:"dive,required"`
	Commodities []string `yaml:"commodities" default:"[\"CL=F\",\"BZ=F\"]" validate:"dive,required"`
	FX          []string `yaml:"fx" default:"[\"DX-Y.NYB\",\"EURUSD=X\"]" validate:"dive,required"`

	Fallbacks    map[string][]string `yaml:"fallbacks" default:"{\"^GSPC\":[\"SPY\"],\"^NDX\":[\"QQQ\"],\"CL=F\":[\"USO\"],\"BZ=F\":[\"BNO\"],\"DX-Y.NYB\":[\"UUP\"],\"EURUSD=X\":[\"FXE\"]}"`
	CompanyNames map[string]string   `yaml:"company_names" default:"{\"TSLA\":\"Tesla\",\"NVDA\":\"Nvidia\",\"AAPL\":\"Apple\",\"MSFT\":\"Microsoft\",\"AMZN\":\"Amazon\",\"ALAB\":\"Astera Labs\",\"PLTR\":\"Palantir\",\"TSM\":\"Taiwan Semiconductor\",\"AMD\":\"Advanced Micro Devices\",\"RKLB\":\"Rocket Lab\"}"`

	News       NewsConfig       `yaml:"news"`
	Risk       RiskConfig       `yaml:"risk_management"`
	Charts     ChartsConfig     `yaml:"charts"`
	Fetch      FetchConfig      `yaml:"fetch"`
	DataSource DataSourceConfig `yaml:"data_source"`
	Report     ReportConfig     `yaml:"report"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Sheets     SheetsConfig     `yaml:"sheets"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`

	RunMode string `yaml:"run_mode" default:"once" validate:"oneof=once serve"`
	Proxy   string `yaml:"proxy"`

	// Secrets come from the environment only.
	GeminiAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
}

type NewsConfig struct {
	Enable       bool `yaml:"enable" default:"true"`
	LookbackDays int  `yaml:"lookback_days" default:"2" validate:"gte=1"`
	PerTicker    int  `yaml:"per_ticker" default:"3" validate:"min=1,max=20"`
}

type RiskConfig struct {
	DefaultStopLossPct   float64 `yaml:"default_stop_loss_pct" default:"0.03" validate:"gt=0,lt=1"`
	DefaultTakeProfitPct float64 `yaml:"default_take_profit_pct" default:"0.06" validate:"gt=0,lt=1"`
}

type ChartsConfig struct {
	Enable bool `yaml:"enable" default:"true"`
}

type FetchConfig struct {
	Retries      int           `yaml:"retries" default:"3" validate:"gte=1"`
	RetryDelay   time.Duration `yaml:"retry_delay" default:"1500ms" validate:"gte=0"`
	WindowDays   int           `yaml:"window_days" default:"400" validate:"gte=50"`
	RequestDelay time.Duration `yaml:"request_delay" validate:"gte=0"`
}

// DataSourceConfig selects the market data provider. "yahoo" needs no credentials;
// "rest" calls a self-hosted bars endpoint.
type DataSourceConfig struct {
	Provider string `yaml:"provider" default:"yahoo" validate:"oneof=yahoo rest"`
	BaseURL  string `yaml:"base_url" validate:"required_if=Provider rest"`
	APIKey   string `yaml:"api_key"`
}

type ReportConfig struct {
	Dir      string `yaml:"dir" default:"reports" validate:"required"`
	HTML     bool   `yaml:"html"`
	Language string `yaml:"language" default:"Thai" validate:"required"`
}

type ScheduleConfig struct {
	Cron string `yaml:"cron" default:"0 30 7 * * 1-5"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool { return t.BotToken != "" && t.ChatID != "" }

type SheetsConfig struct {
	SheetID            string `yaml:"sheet_id"`
	ServiceAccountFile string `yaml:"service_account_file" default:"gcp_service_account.json"`
}

type DatabaseConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"GEMINI_API_KEY", &c.GeminiAPIKey},
		{"ANTHROPIC_API_KEY", &c.AnthropicAPIKey},
		{"SHEET_ID", &c.Sheets.SheetID},
		{"GCP_SERVICE_ACCOUNT_FILE", &c.Sheets.ServiceAccountFile},
		{"TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken},
		{"TELEGRAM_CHAT_ID", &c.Telegram.ChatID},
		{"HTTPS_PROXY", &c.Proxy},
		{"SQLITE_PATH", &c.Database.SQLitePath},
		{"REPORTS_DIR", &c.Report.Dir},
		{"RUN_MODE", &c.RunMode},
		{"LOG_LEVEL", &c.Log.Level},
		{"LOG_FORMAT", &c.Log.Format},
		{"LLM_MODEL", &c.Model},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.dst = v
		}
	}
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.Tickers) == 0 {
		return errors.New("tickers must not be empty")
	}
	return nil
}

// Location returns the configured time zone, UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CompanyName returns the display name used in news queries, defaulting to the symbol.
func (c *Config) CompanyName(symbol string) string {
	if name, ok := c.CompanyNames[symbol]; ok && name != "" {
		return name
	}
	return symbol
}
