package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-band-notify/internal/application/delivery"
	"github.com/go-band-notify/internal/application/device"
	"github.com/go-band-notify/internal/application/notification"
	"github.com/go-band-notify/internal/application/preference"
	"github.com/go-band-notify/internal/config"
	"github.com/go-band-notify/internal/domain"
	"github.com/go-band-notify/internal/infrastructure/dynamo"
	"github.com/go-band-notify/internal/infrastructure/push"
	"github.com/go-band-notify/internal/infrastructure/sqlite"
	"github.com/go-band-notify/internal/pkg/clock"
)

// stores is one backend's set of repositories behind the interfaces the
// application layer consumes.
type stores struct {
	queue interface {
		ClaimBatch(ctx context.Context, limit int, claimTTL time.Duration) ([]domain.Notification, error)
		MarkSent(ctx context.Context, ids []string) error
		CountPending(ctx context.Context) (int, error)
		ListForRecipient(ctx context.Context, recipientID, cursor string, limit int) (*domain.NotificationPage, error)
		Get(ctx context.Context, notificationID string) (*domain.Notification, error)
		MarkRead(ctx context.Context, notificationID string) (*domain.Notification, error)
	}
	tokens interface {
		Register(ctx context.Context, recipientID, token string, platform domain.Platform) (*domain.DeviceToken, error)
		Get(ctx context.Context, token string) (*domain.DeviceToken, error)
		Unregister(ctx context.Context, token string) error
		TokensFor(ctx context.Context, recipientID string) ([]domain.DeviceToken, error)
		Prune(ctx context.Context, token string) error
	}
	preferences interface {
		Get(ctx context.Context, userID string) (*domain.NotificationPreference, error)
		Put(ctx context.Context, p *domain.NotificationPreference) error
	}
	members interface {
		Put(ctx context.Context, m *domain.BandMember) error
		ListByBand(ctx context.Context, bandID string) ([]domain.BandMember, error)
	}
	runner domain.TxRunner
	close  func() error
}

func openStores(ctx context.Context, cfg *config.Config, clk clock.Clock, log *slog.Logger) (*stores, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		t := cfg.DynamoTables
		return &stores{
			queue:       dynamo.NewNotificationRepo(client, t.Notifications, clk),
			tokens:      dynamo.NewTokenRepo(client, t.DeviceTokens, clk),
			preferences: dynamo.NewPreferenceRepo(client, t.Preferences),
			members:     dynamo.NewMemberRepo(client, t.BandMembers),
			runner:      dynamo.NewStore(client, t),
			close:       func() error { return nil },
		}, nil
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		return sqliteStores(db, clk), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q: %w", cfg.StoreBackend, domain.ErrConfiguration)
	}
}

func sqliteStores(db *sql.DB, clk clock.Clock) *stores {
	return &stores{
		queue:       sqlite.NewNotificationRepo(db, clk),
		tokens:      sqlite.NewTokenRepo(db, clk),
		preferences: sqlite.NewPreferenceRepo(db),
		members:     sqlite.NewMemberRepo(db),
		runner:      sqlite.NewStore(db),
		close:       db.Close,
	}
}

// app is the fully wired pipeline.
type app struct {
	stores        *stores
	clock         clock.Clock
	worker        *delivery.Worker
	writer        *notification.Writer
	devices       device.Service
	notifications notification.Service
	preferences   preference.Service
}

func buildApp(ctx context.Context, cfg *config.Config, log *slog.Logger, recorder delivery.Recorder) (*app, error) {
	clk := clock.New()
	st, err := openStores(ctx, cfg, clk, log)
	if err != nil {
		return nil, err
	}
	worker := delivery.NewWorker(delivery.WorkerDeps{
		Queue:    st.queue,
		Tokens:   st.tokens,
		Gateway:  push.FromConfig(ctx, cfg, log),
		Clock:    clk,
		Recorder: recorder,
		Log:      log,
		Config: delivery.Config{
			BatchSize:   cfg.Delivery.BatchSize,
			ClaimTTL:    cfg.Delivery.ClaimTTL,
			Concurrency: cfg.Delivery.Concurrency,
			Timeout:     cfg.Delivery.CycleTimeout,
		},
	})
	return &app{
		stores:        st,
		clock:         clk,
		worker:        worker,
		writer:        notification.NewWriter(st.runner, clk, log),
		devices:       device.NewService(st.tokens),
		notifications: notification.NewService(st.queue),
		preferences:   preference.NewService(st.preferences, clk.Now),
	}, nil
}

func (a *app) Close() error { return a.stores.close() }
