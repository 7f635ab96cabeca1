package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockInsight/internal/advisor"
	"StockInsight/internal/chart"
	"StockInsight/internal/collector"
	"StockInsight/internal/config"
	"StockInsight/internal/export"
	"StockInsight/internal/logging"
	"StockInsight/internal/news"
	"StockInsight/internal/notifier"
	"StockInsight/internal/pipeline"
	"StockInsight/internal/recorder"
	"StockInsight/internal/report"
	"StockInsight/internal/scheduler"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const advisorTimeout = 3 * time.Minute

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatal().Err(err).Msg("setup logging")
	}
	log.Info().Str("config", cfgPath).Str("mode", cfg.RunMode).Msg("StockInsight starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Market data
	var provider collector.Provider
	if cfg.DataSource.Provider == "rest" {
		provider = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		provider = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Info().Str("source", provider.Name()).Msg("data source selected")
	history := collector.NewHistoryFetcher(provider, cfg.Fallbacks, collector.HistoryOptions{
		Retries:      cfg.Fetch.Retries,
		RetryDelay:   cfg.Fetch.RetryDelay,
		WindowDays:   cfg.Fetch.WindowDays,
		RequestDelay: cfg.Fetch.RequestDelay,
	})

	// Model provider: a missing key stops here, before any report is written.
	llm, err := advisor.NewProvider(ctx, cfg.Model, advisor.Keys{
		Gemini:    cfg.GeminiAPIKey,
		Anthropic: cfg.AnthropicAPIKey,
	})
	if err != nil {
		log.Fatal().Err(err).Str("model", cfg.Model).Msg("init model provider")
	}
	defer llm.Close()

	httpClient := collector.NewHTTPClient(cfg.Proxy)
	runner := &pipeline.Runner{
		Cfg:       cfg,
		Collector: collector.NewCollector(history, cfg.LookbackDays),
		Advisor:   advisor.New(llm, advisorTimeout),
		Writer:    report.NewWriter(cfg.Report.Dir),
		News: news.NewFetcher(httpClient, news.Options{
			Enable:       cfg.News.Enable,
			LookbackDays: cfg.News.LookbackDays,
			PerTicker:    cfg.News.PerTicker,
			RequestDelay: cfg.Fetch.RequestDelay,
		}),
	}
	if cfg.Charts.Enable {
		runner.Charts = chart.NewPlotter(cfg.Report.Dir)
	}

	exporter, err := export.NewSheetsExporter(ctx, cfg.Sheets.SheetID, cfg.Sheets.ServiceAccountFile, httpClient)
	switch {
	case err == nil:
		runner.Exporter = exporter
	case errors.Is(err, export.ErrNotConfigured):
		runner.ExportDisabled = err.Error()
	default:
		log.Warn().Err(err).Msg("sheets export disabled")
		runner.ExportDisabled = err.Error()
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}
	defer rec.Close()
	runner.Recorder = rec

	var tn *notifier.TelegramNotifier
	if cfg.Telegram.Enabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		runner.Notifier = tn
	}

	if cfg.RunMode == "serve" {
		serve(ctx, cancel, cfg, runner, tn, rec)
		return
	}

	res, err := runner.Run(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		rec.Close()
		os.Exit(1)
	}
	log.Info().Str("status", string(res.Status)).Str("report", res.ReportPath).Msg("done")
}

func serve(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, runner *pipeline.Runner,
	tn *notifier.TelegramNotifier, rec recorder.Recorder) {
	var n pipeline.Notifier
	if tn != nil {
		n = tn
	}
	sched := scheduler.NewScheduler(ctx, cfg.Location(), runner, n, rec)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatal().Err(err).Msg("register cron task")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, running now")
		go sched.RunNow()
	}

	log.Info().Msg("StockInsight is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
}
