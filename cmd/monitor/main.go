// Package main provides the supplier monitor command: a scheduled scan
// over all configured suppliers with email notification of new content.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"supwatch/internal/config"
	"supwatch/internal/logger"
	"supwatch/internal/monitor"
	"supwatch/internal/notify"
	"supwatch/internal/perplexity"
	"supwatch/internal/statestore"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration file")
	once := flag.Bool("once", false, "Run a single scan immediately and exit")
	flag.Parse()

	// .env is optional; deployments usually set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.NewLogger("info").Error(fmt.Sprintf("❌ Failed to load config: %v", err))
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Monitor.Logging.Level)
	log.Info("🚀 Starting supplier monitor", "config", cfg.String())

	if cfg.Monitor.API.Key == "" {
		log.Error("PERPLEXITY_API_KEY is not set")
		os.Exit(1)
	}

	if cfg.Monitor.Email.Enabled && (cfg.Monitor.Email.Username == "" || cfg.Monitor.Email.Password == "") {
		log.Warn("EMAIL_USERNAME or EMAIL_PASSWORD is not set, delivery may fail")
	}

	ctx := context.Background()

	store, err := statestore.Open(ctx, cfg.Monitor.State, log)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Failed to open state store: %v", err))
		os.Exit(1)
	}
	defer store.Close()

	client := perplexity.NewClient(cfg.Monitor.API, cfg.Monitor.Retry, log)
	engine := monitor.NewEngine(cfg, store, client, log)
	notifier := notify.NewNotifier(cfg.Monitor.Email, log)

	job := func() {
		results := engine.RunScan(ctx)

		if !cfg.Monitor.Email.Enabled {
			log.Info("email delivery disabled, skipping notification")

			return
		}

		if err := notifier.Send(results); err != nil {
			log.Error("notification failed", "error", err)
		}
	}

	if *once || cfg.Monitor.Schedule.Cron == "" {
		job()

		return
	}

	loc := time.Local

	if tz := cfg.Monitor.Schedule.Timezone; tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			log.Error("invalid schedule timezone", "timezone", tz, "error", err)
			os.Exit(1)
		}

		loc = l
	}

	if cfg.Monitor.Schedule.RunOnStartup {
		log.Info("running scan on startup")
		job()
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(cfg.Monitor.Schedule.Cron, job); err != nil {
		log.Error("invalid cron expression", "cron", cfg.Monitor.Schedule.Cron, "error", err)
		os.Exit(1)
	}

	log.Info("✅ Scan scheduled", "cron", cfg.Monitor.Schedule.Cron, "timezone", loc.String())
	c.Run()
}
