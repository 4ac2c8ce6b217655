package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apptransfer "github.com/Zhima-Mochi/simplepay/internal/application/transfer"
	"github.com/Zhima-Mochi/simplepay/internal/config"
	domacc "github.com/Zhima-Mochi/simplepay/internal/domain/account"
	"github.com/Zhima-Mochi/simplepay/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/simplepay/internal/infrastructure/id"
	"github.com/Zhima-Mochi/simplepay/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/simplepay/internal/infrastructure/notify"
	"github.com/Zhima-Mochi/simplepay/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/simplepay/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/simplepay/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/simplepay/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/simplepay/internal/observability"
	httppresentation "github.com/Zhima-Mochi/simplepay/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()

	logger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)

	registry := prometrics.New(cfg.ServiceName, "")
	counters := map[string]observability.Counter{
		"usecase_requests_total": registry.Counter(
			"usecase_requests_total", "Total number of use case invocations.",
			"use_case", "outcome",
		),
		"http_requests_total": registry.Counter(
			"http_requests_total", "Total number of HTTP requests.",
			"method", "route", "status",
		),
		"external_requests_total": registry.Counter(
			"external_requests_total", "Total number of outbound calls to external services.",
			"target", "outcome",
		),
	}
	histograms := map[string]observability.Histogram{
		"usecase_duration_seconds": registry.Histogram(
			"usecase_duration_seconds", "Duration of use case execution in seconds.",
			prometheus.DefBuckets, "use_case",
		),
		"http_request_duration_seconds": registry.Histogram(
			"http_request_duration_seconds", "Duration of HTTP requests in seconds.",
			prometheus.DefBuckets, "method", "route", "status",
		),
		"external_request_duration_seconds": registry.Histogram(
			"external_request_duration_seconds", "Duration of outbound calls in seconds.",
			prometheus.DefBuckets, "target",
		),
	}
	tel := telemetry.New(oteltrace.New(cfg.ServiceName), logger, counters, histograms)

	accountRepo := memory.NewAccountRepository()
	ledgerRepo := memory.NewLedgerRepository()

	if cfg.SeedDemoAccounts {
		seedDemoAccounts(accountRepo, logger)
	}

	authorizer := gateway.New(gateway.Config{
		BaseURL:     cfg.AuthorizeURL,
		Timeout:     cfg.AuthorizeTimeout,
		MaxAttempts: cfg.AuthorizeAttempts,
		Approval:    cfg.AuthorizeApproval,
	}, tel)
	notifier := notify.New(notify.Config{
		BaseURL: cfg.NotifyURL,
		Timeout: cfg.NotifyTimeout,
	}, tel)

	transferUseCase := apptransfer.NewUseCase(
		accountRepo, ledgerRepo, authorizer, notifier, id.NewUUIDGenerator(), tel,
	)

	handler := httppresentation.NewHandler(transferUseCase, logger, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http_server_start",
			observability.F("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error",
				observability.F("error", err.Error()),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error",
			observability.F("error", err.Error()),
		)
	} else {
		logger.Info("http_server_stopped")
	}
}

// seedDemoAccounts loads a small fixture set so the transfer endpoint is
// exercisable out of the box. Account lifecycle management lives outside
// this service.
func seedDemoAccounts(repo *memory.AccountRepository, logger observability.Logger) {
	fixtures := []struct {
		id       int64
		kind     domacc.Kind
		name     string
		document string
		email    string
		balance  string
	}{
		{1, domacc.KindUser, "Alice Souza", "52998224725", "alice@example.com", "100.00"},
		{2, domacc.KindUser, "Bruno Lima", "15350946056", "bruno@example.com", "0.00"},
		{3, domacc.KindSeller, "Corner Store", "11222333000181", "store@example.com", "0.00"},
	}

	ctx := context.Background()
	for _, f := range fixtures {
		acc, err := domacc.New(f.id, f.kind, f.name, f.document, f.email, "changeme1", decimal.RequireFromString(f.balance))
		if err != nil {
			logger.Error("seed_account_failed",
				observability.F("account_id", f.id),
				observability.F("error", err.Error()),
			)
			continue
		}
		if err := repo.Save(ctx, acc); err != nil {
			logger.Error("seed_account_failed",
				observability.F("account_id", f.id),
				observability.F("error", err.Error()),
			)
		}
	}
	logger.Info("demo_accounts_seeded", observability.F("count", len(fixtures)))
}
