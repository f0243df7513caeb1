// Package app builds the client stack from configuration. Both binaries
// start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/coinvest/coinvest/internal/apiclient"
	"github.com/coinvest/coinvest/internal/appdata"
	"github.com/coinvest/coinvest/internal/auth"
	"github.com/coinvest/coinvest/internal/chains"
	"github.com/coinvest/coinvest/internal/config"
	"github.com/coinvest/coinvest/internal/funding"
	"github.com/coinvest/coinvest/internal/infra"
	"github.com/coinvest/coinvest/internal/investment"
	"github.com/coinvest/coinvest/internal/kyc"
	"github.com/coinvest/coinvest/internal/loyalty"
	"github.com/coinvest/coinvest/internal/mining"
	"github.com/coinvest/coinvest/internal/notification"
	"github.com/coinvest/coinvest/internal/referral"
	"github.com/coinvest/coinvest/internal/screens"
	"github.com/coinvest/coinvest/internal/securestore"
	"github.com/coinvest/coinvest/internal/storage"
	"github.com/coinvest/coinvest/internal/transactions"
)

// Options tune the stack for a particular front door.
type Options struct {
	// Notifier receives toasts in addition to the in-memory feed.
	Notifier notification.Notifier
	// HTTPClient replaces the default backend client.
	HTTPClient *http.Client
	// OnMiningUpdate is called on every countdown update.
	OnMiningUpdate func(mining.State)
}

// App holds every service wired together.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Toasts   *notification.Feed

	KV      storage.Store
	Redis   *redis.Client
	Secure  *securestore.Store
	Session *auth.Session
	Events  *auth.Broadcaster
	Client  *apiclient.Client
	Cache   *appdata.Cache

	Auth         *auth.Service
	Investment   *investment.Service
	Funding      *funding.Service
	Chains       *chains.Service
	Transactions *transactions.Service
	Mining       *mining.Service
	Live         *mining.Countdown
	KYC          *kyc.Service
	Loyalty      *loyalty.Service
	Referral     *referral.Service
	Screens      *screens.Screens

	closers []func() error
	liveMu  sync.Mutex
	unwatch func()
}

// New builds the stack. Close releases the storage connections.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry(), Toasts: notification.NewFeed(0)}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := a.openStorage(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	secret := cfg.SecureStoreKey
	if secret == "" {
		key, err := infra.LoadOrCreateDeviceKey(cfg.DeviceKeyPath())
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("device key: %w", err)
		}
		secret = key
	}
	secure, err := securestore.New(a.KV, []byte(secret))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Secure = secure
	a.Cache = appdata.New(a.KV, logger)
	a.Events = auth.NewBroadcaster()
	a.Session = auth.NewSession(secure, logger, a.Cache)
	a.Session.NotifyExpiry(a.Events)

	var toasts notification.Notifier = a.Toasts
	if opts.Notifier != nil {
		toasts = notification.Multi{a.Toasts, opts.Notifier}
	}

	clientOpts := []apiclient.Option{
		apiclient.WithAuthNotifier(a.Events),
		apiclient.WithNotifier(toasts),
		apiclient.WithLogger(logger),
		apiclient.WithMetrics(apiclient.NewMetrics(a.Registry)),
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(opts.HTTPClient))
	}
	a.Client = apiclient.New(apiclient.Config{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		UserAgent: cfg.AppName + "/1.0",
	}, a.Session, clientOpts...)

	a.Auth = auth.NewService(a.Client, a.Session, a.Events, logger)
	a.Investment = investment.NewService(a.Client, toasts, logger)
	a.Funding = funding.NewService(a.Client, toasts, logger)
	a.Chains = chains.NewService(a.Client)
	a.Transactions = transactions.NewService(a.Client)
	a.Mining = mining.NewService(a.Client, a.Cache, logger)
	a.Live = mining.NewCountdown(a.Mining, cfg.MiningPollInterval, opts.OnMiningUpdate, logger)
	a.KYC = kyc.NewService(a.Client, logger)
	a.Loyalty = loyalty.NewService(a.Client)
	a.Referral = referral.NewService(a.Client)

	a.Screens = screens.New(screens.Deps{
		Auth:         a.Auth,
		Investment:   a.Investment,
		Funding:      a.Funding,
		Chains:       a.Chains,
		Transactions: a.Transactions,
		Mining:       a.Mining,
		Live:         a.Live,
		KYC:          a.KYC,
		Loyalty:      a.Loyalty,
		Referral:     a.Referral,
		Cache:        a.Cache,
		Logger:       logger,
	})
	return a, nil
}

func (a *App) openStorage(ctx context.Context) error {
	cfg := a.Config
	if cfg.RedisURL != "" {
		client, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.Redis = client
		a.closers = append(a.closers, client.Close)
	}

	switch cfg.StorageDriver {
	case config.StorageMemory:
		a.KV = storage.NewMemory()
	case config.StorageSQLite:
		db, err := infra.NewSQLiteDB(ctx, cfg.SQLitePath())
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		kv, err := storage.NewSQLiteStore(ctx, db)
		if err != nil {
			return err
		}
		a.KV = kv
	case config.StorageRedis:
		if a.Redis == nil {
			return fmt.Errorf("redis storage needs REDIS_URL")
		}
		a.KV = storage.NewRedisStore(a.Redis, "")
	case config.StoragePostgres:
		pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, closePool(pool))
		kv := storage.NewPostgresStore(pool)
		if err := kv.Migrate(ctx); err != nil {
			return err
		}
		a.KV = kv
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	return nil
}

// StartLive keeps the mining countdown running while a session exists.
// It starts it now when already logged in and follows auth changes after.
func (a *App) StartLive(ctx context.Context) {
	a.liveMu.Lock()
	defer a.liveMu.Unlock()
	if a.unwatch != nil {
		return
	}
	a.unwatch = a.Events.Subscribe(func(authenticated bool) {
		if authenticated {
			go a.startCountdown(ctx)
			return
		}
		go a.Live.Stop()
	})
	if a.Auth.Authenticated(ctx) {
		go a.startCountdown(ctx)
	}
}

func (a *App) startCountdown(ctx context.Context) {
	if err := a.Live.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Warn("start mining countdown", "error", err)
	}
}

// Close stops the countdown and releases connections.
func (a *App) Close() error {
	a.liveMu.Lock()
	if a.unwatch != nil {
		a.unwatch()
		a.unwatch = nil
	}
	a.liveMu.Unlock()
	if a.Live != nil {
		a.Live.Stop()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func closePool(pool *pgxpool.Pool) func() error {
	return func() error {
		pool.Close()
		return nil
	}
}

