package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"weblser/internal/adapters/anthropic"
	httpadapter "weblser/internal/adapters/http"
	pg "weblser/internal/adapters/postgres"
	"weblser/internal/aggregator"
	"weblser/internal/analyzer"
	"weblser/internal/config"
	"weblser/internal/criteria"
	"weblser/internal/evaluator"
	"weblser/internal/fetcher"
	"weblser/internal/report"
	analysessvc "weblser/internal/services/analyses"
	auditssvc "weblser/internal/services/audits"
	compliancesvc "weblser/internal/services/compliance"
	"weblser/internal/workers/auditrunner"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pg.Migrate(ctx, cfg.DatabaseURL); err != nil {
		log.Fatalf("migrate error: %v", err)
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer db.Close()

	gen := anthropic.New(anthropic.Config{
		APIKey:        cfg.AnthropicAPIKey,
		Model:         cfg.AnthropicModel,
		TimeoutSecs:   cfg.LLMTimeoutSecs,
		MaxConcurrent: int64(cfg.LLMConcurrency),
		MaxRetries:    uint64(cfg.LLMMaxRetries),
	})
	pages := fetcher.New()
	eval := evaluator.New(gen)

	auditAgg := aggregator.New(pages, eval, criteria.Audit())
	complianceAgg := aggregator.New(pages, eval, criteria.Compliance(), aggregator.WithConsolidator(gen))

	renderer, err := report.NewRenderer()
	if err != nil {
		log.Fatalf("renderer error: %v", err)
	}

	analysesService := analysessvc.New(analyzer.New(pages, gen), db)
	auditsService := auditssvc.New(auditAgg, db, db)
	complianceService := compliancesvc.New(complianceAgg, db)

	srv := httpadapter.New(analysesService, auditsService, complianceService, renderer)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	if cfg.AuditWorkers > 0 {
		auditrunner.Run(ctx, db, auditsService, cfg.AuditWorkers, 500*time.Millisecond)
		log.Printf("audit workers started: %d", cfg.AuditWorkers)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- http.ListenAndServe(cfg.ListenAddr, r) }()
	log.Printf("listening on %s", cfg.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("shutting down on %s", sig)
		cancel()
		time.Sleep(300 * time.Millisecond)
	case err := <-errCh:
		log.Fatal(fmt.Errorf("server error: %w", err))
	}
}
