// Package app wires the configured collaborators shared by the server and
// the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/billsplit/internal/config"
	"github.com/mmynk/billsplit/internal/guard"
	"github.com/mmynk/billsplit/internal/ledger"
	"github.com/mmynk/billsplit/internal/metrics"
	"github.com/mmynk/billsplit/internal/notify"
	"github.com/mmynk/billsplit/internal/service"
	"github.com/mmynk/billsplit/internal/storage/sqlite"
	"github.com/mmynk/billsplit/internal/workflow"
)

// App holds the collaborators built from a Config.
type App struct {
	Store     *sqlite.SQLiteStore
	Ledger    ledger.Ledger
	LedgerFor service.LedgerFunc
	Guard     guard.Guard
	Notifier  *notify.Notifier
	Pipeline  *workflow.Pipeline
	Metrics   *metrics.Metrics

	redis *redis.Client
}

// New opens the store and builds the ledger, guard, notifier and pipeline.
// m may be nil.
func New(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*App, error) {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	slog.Info("Storage initialized", "database", cfg.DBPath)

	a := &App{Store: store, Metrics: m}

	switch cfg.LedgerBackend {
	case config.BackendSplitwise:
		var opts []ledger.SplitwiseOption
		if cfg.SplitwiseBaseURL != "" {
			opts = append(opts, ledger.WithBaseURL(cfg.SplitwiseBaseURL))
		}
		sw := ledger.NewSplitwise(cfg.SplitwiseAPIKey, opts...)
		a.Ledger = sw
		a.LedgerFor = service.FixedLedger(sw)
	default:
		local := ledger.NewLocal(store, cfg.LedgerPayerEmail)
		a.Ledger = local
		a.LedgerFor = service.LocalLedger(local)
	}
	slog.Info("Ledger configured", "backend", cfg.LedgerBackend)

	if cfg.RedisAddr != "" {
		client, err := guard.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			store.Close()
			return nil, err
		}
		a.redis = client
		a.Guard = guard.NewRedisGuard(client)
		slog.Info("Submission guard using redis", "addr", cfg.RedisAddr)
	} else {
		a.Guard = guard.NewMemoryGuard()
		slog.Info("Submission guard in memory")
	}

	var sender notify.Sender = notify.LogSender{}
	if cfg.TwilioEnabled() {
		sender = notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
		slog.Info("Notifications via Twilio", "from", cfg.TwilioFromNumber)
	} else {
		slog.Info("Twilio not configured, notifications are logged only")
	}
	a.Notifier = notify.NewNotifier(sender, m)

	a.Pipeline = workflow.New(workflow.Config{
		ContactsPath:  cfg.ContactsPath,
		GroupFilter:   cfg.GroupFilter,
		SubmissionTTL: cfg.SubmissionTTL,
	}, a.Ledger, a.Guard, a.Notifier, m)

	return a, nil
}

// Close releases the store and the redis connection.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.Store.Close())
	return errors.Join(errs...)
}
