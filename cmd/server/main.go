package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/topup-wallet-engine/internal/adapter/cache"
	"github.com/example/topup-wallet-engine/internal/adapter/httpapi"
	"github.com/example/topup-wallet-engine/internal/adapter/natsstan"
	"github.com/example/topup-wallet-engine/internal/adapter/repo"
	"github.com/example/topup-wallet-engine/internal/adapter/session"
	"github.com/example/topup-wallet-engine/internal/adapter/storefront"
	"github.com/example/topup-wallet-engine/internal/catalog"
	"github.com/example/topup-wallet-engine/internal/config"
	"github.com/example/topup-wallet-engine/internal/domain"
	"github.com/example/topup-wallet-engine/internal/usecase"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("state store: %v", err)
	}
	defer closeStore()

	var reauth domain.Reauthenticator
	if r := session.NewExecReauthenticator(cfg.LoginCommand, cfg.LoginTimeout); r != nil {
		reauth = r
	}
	sessions := session.NewProvider(store, reauth, logger.With("component", "session"))

	client := storefront.NewClient(sessions, storefront.Options{
		BaseURL:           cfg.StorefrontBaseURL,
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.HTTPTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		HistoryRetryDelay: cfg.HistoryRetryDelay,
		RedeemSettleDelay: cfg.RedeemSettleDelay,
		Logger:            logger.With("component", "storefront"),
	})

	lock := usecase.NewTxLock()
	ledger := usecase.NewLedger(store)
	official := cache.NewMemoryBalanceCache()
	packages := catalog.Default()

	fulfill := &usecase.Fulfill{
		Catalog:      packages,
		Ledger:       ledger,
		Purchaser:    client,
		Session:      sessions,
		Lock:         lock,
		Logger:       logger.With("component", "fulfill"),
		Location:     cfg.DisplayLocation,
		ItemDelayMin: cfg.ItemDelayMin,
		ItemDelayMax: cfg.ItemDelayMax,
	}

	if cfg.NATSURL != "" {
		sc, err := natsstan.Connect(cfg.STANClusterID, cfg.STANClientID, cfg.NATSURL)
		if err != nil {
			log.Fatalf("stan connect: %v", err)
		}
		defer sc.Close()

		fulfill.Events = &natsstan.Publisher{Conn: sc, Subject: cfg.OrderSubject}
		sub := &natsstan.Subscriber{
			Conn:    sc,
			Subject: cfg.CredentialSubject,
			Queue:   "topup-workers",
			Durable: "topup-credentials",
			Logger:  logger.With("component", "credentials"),
		}
		err = sub.Subscribe(ctx, func(ctx context.Context, raw []byte) error {
			_, err := sessions.Set(ctx, string(raw))
			if errors.Is(err, domain.ErrValidation) {
				// a malformed push will never succeed; ack it away
				logger.Warn("discarding malformed credential push", "err", err)
				return nil
			}
			return err
		})
		if err != nil {
			log.Fatalf("stan subscribe: %v", err)
		}
	}

	monitor := &usecase.KeepAlive{
		Checker:  client,
		Session:  sessions,
		Lock:     lock,
		Cache:    official,
		Interval: cfg.KeepAliveInterval,
		Logger:   logger.With("component", "keepalive"),
	}
	go monitor.Run(ctx)

	api := httpapi.NewServer(httpapi.Deps{
		Access:  &usecase.Access{Store: store, Owner: cfg.OwnerID, Credentials: sessions},
		Ledger:  ledger,
		Fulfill: fulfill,
		Redeem: &usecase.RedeemCode{
			Redeemer: client,
			Ledger:   ledger,
			Session:  sessions,
			Lock:     lock,
			Logger:   logger.With("component", "redeem"),
		},
		Lookup:   &usecase.LookupAccount{Verifier: client, Lock: lock},
		Packages: packages,
		Official: official,
		Logger:   logger.With("component", "http"),
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.Router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("http listening", "addr", srv.Addr, "backend", cfg.StateBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
	// a purchase in flight keeps the lock; wait for it before closing the store
	if err := lock.Acquire(shutdownCtx); err != nil {
		logger.Warn("shutdown with a transaction still in flight")
		return
	}
	lock.Release()
}

func openStore(ctx context.Context, cfg *config.Config) (domain.StateStore, func(), error) {
	if cfg.StateBackend != "postgres" {
		return repo.NewJSONStateStore(cfg.StateFile, cfg.OwnerID), func() {}, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := importLegacyFile(ctx, pool, cfg); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repo.NewPostgresStateStore(pool, cfg.OwnerID), pool.Close, nil
}

// importLegacyFile — однократно заполнить пустую БД из существующего файла состояния.
func importLegacyFile(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config) error {
	if _, err := os.Stat(cfg.StateFile); err != nil {
		return nil
	}
	var st domain.State
	err := repo.NewJSONStateStore(cfg.StateFile, cfg.OwnerID).View(ctx, func(s domain.State) error {
		st = s
		return nil
	})
	if err != nil {
		return err
	}
	imported, err := repo.ImportState(ctx, pool, st)
	if err != nil {
		return err
	}
	if imported {
		slog.Info("imported state file into postgres", "file", cfg.StateFile, "orders", len(st.Orders))
	}
	return nil
}
