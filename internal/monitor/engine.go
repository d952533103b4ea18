// Package monitor orchestrates one incremental scan over all configured
// suppliers.
package monitor

import (
	"context"
	"time"

	"supwatch/internal/config"
	"supwatch/internal/logger"
	"supwatch/internal/models"
	"supwatch/internal/parser"
	"supwatch/internal/perplexity"
	"supwatch/internal/query"
	"supwatch/internal/statestore"
)

// AnswerClient executes one search request and returns the raw answer.
type AnswerClient interface {
	Execute(ctx context.Context, req perplexity.Request) (string, error)
}

// AnswerParser converts raw answer text into articles.
type AnswerParser interface {
	Parse(text, supplierName string) []models.Article
}

// Engine runs the per-supplier pipeline: build query, execute with
// retry, parse, accumulate. One scan is strictly sequential; callers
// must not run two scans concurrently since they would race on the
// state snapshot.
type Engine struct {
	suppliers []config.SupplierConfig
	builder   *query.Builder
	client    AnswerClient
	parser    AnswerParser
	store     statestore.Store
	delay     time.Duration
	sleep     func(time.Duration)
	now       func() time.Time
	logger    *logger.Logger
}

// NewEngine creates an engine from configuration and a ready client.
func NewEngine(cfg *config.Config, store statestore.Store, client AnswerClient, log *logger.Logger) *Engine {
	return &Engine{
		suppliers: cfg.Monitor.Suppliers,
		builder:   query.NewBuilder(cfg.Monitor.API.Model),
		client:    client,
		parser:    parser.NewParser(log),
		store:     store,
		delay:     cfg.Monitor.Scan.SupplierDelay(),
		sleep:     time.Sleep,
		now:       time.Now,
		logger:    log,
	}
}

// NewEngineWithDeps creates an engine with injected collaborators,
// useful for testing.
func NewEngineWithDeps(
	suppliers []config.SupplierConfig,
	builder *query.Builder,
	client AnswerClient,
	answerParser AnswerParser,
	store statestore.Store,
	delay time.Duration,
	sleep func(time.Duration),
	now func() time.Time,
	log *logger.Logger,
) *Engine {
	return &Engine{
		suppliers: suppliers,
		builder:   builder,
		client:    client,
		parser:    answerParser,
		store:     store,
		delay:     delay,
		sleep:     sleep,
		now:       now,
		logger:    log,
	}
}

// RunScan performs one complete pass over all suppliers and returns the
// result map with one entry per supplier. Per-supplier failures degrade
// to an empty sequence; the run itself never fails. The new last-scan
// timestamp is captured once, after all suppliers are processed, so
// every supplier in a run shares one reference time.
func (e *Engine) RunScan(ctx context.Context) models.ScanResult {
	e.logger.Info("starting supplier scan", "suppliers", len(e.suppliers))

	state := e.store.Load(ctx)
	results := make(models.ScanResult, len(e.suppliers))

	for i, supplier := range e.suppliers {
		results[supplier.Name] = e.scanSupplier(ctx, supplier, state.LastScan)

		// Pause between suppliers to stay under upstream rate limits.
		if i < len(e.suppliers)-1 && e.delay > 0 {
			e.sleep(e.delay)
		}
	}

	now := e.now()
	state.LastScan = &now
	state.Results = results

	if err := e.store.Save(ctx, state); err != nil {
		e.logger.Error("failed to save scan state", "error", err)
	}

	e.logger.Info("supplier scan completed", "suppliers", len(results))

	return results
}

// scanSupplier runs the pipeline for one supplier. Any failure,
// including a panic, yields an empty sequence so the remaining suppliers
// still get scanned.
func (e *Engine) scanSupplier(ctx context.Context, supplier config.SupplierConfig, lastScan *time.Time) (articles []models.Article) {
	log := e.logger.With("supplier", supplier.Name, "domain", supplier.Domain)

	defer func() {
		if r := recover(); r != nil {
			log.Error("supplier scan panicked", "panic", r)

			articles = []models.Article{}
		}
	}()

	log.Info("querying for new content")

	req := e.builder.Build(supplier, lastScan)

	answer, err := e.client.Execute(ctx, req)
	if err != nil {
		log.Error("lookup failed", "error", err)

		return []models.Article{}
	}

	articles = e.parser.Parse(answer, supplier.Name)
	if articles == nil {
		articles = []models.Article{}
	}

	return articles
}
