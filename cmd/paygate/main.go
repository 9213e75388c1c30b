package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeRez0/paygate/internal/adapter/auth"
	"github.com/MikeRez0/paygate/internal/adapter/config"
	handler "github.com/MikeRez0/paygate/internal/adapter/handler/http"
	"github.com/MikeRez0/paygate/internal/adapter/logger"
	"github.com/MikeRez0/paygate/internal/adapter/notifier"
	"github.com/MikeRez0/paygate/internal/adapter/provider/card"
	"github.com/MikeRez0/paygate/internal/adapter/provider/regional"
	"github.com/MikeRez0/paygate/internal/adapter/provider/wallet"
	"github.com/MikeRez0/paygate/internal/adapter/storage"
	"github.com/MikeRez0/paygate/internal/adapter/storage/memory"
	"github.com/MikeRez0/paygate/internal/adapter/storage/repository"
	"github.com/MikeRez0/paygate/internal/core/port"
	"github.com/MikeRez0/paygate/internal/core/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log, err := logger.NewLogger(conf.App)
	if err != nil {
		fmt.Printf("error creating log: %s", err)
		return
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, log); err != nil {
		log.Error("paygate stopped", zap.Error(err))
	}
}

func run(ctx context.Context, conf *config.Config, log *zap.Logger) error {
	var repo port.OrderRepository
	var journal port.WebhookJournal

	if conf.Database.DSN != "" {
		db, err := storage.NewDBStorage(ctx, conf.Database)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()

		pgRepo, err := repository.NewRepository(db)
		if err != nil {
			return fmt.Errorf("order repo: %w", err)
		}
		repo = pgRepo
		journal = repository.NewWebhookJournal(db.SQL())
	} else {
		log.Warn("DATABASE_URI is empty, orders are kept in memory")
		repo = memory.NewStore()
	}

	var statusNotifier interface {
		port.StatusNotifier
		Close() error
	} = notifier.Nop{}
	if conf.Rabbit.URL != "" {
		pub, err := notifier.NewRabbitPublisher(conf.Rabbit.URL, conf.Rabbit.Exchange)
		if err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		statusNotifier = notifier.NewStatusNotifier(pub, log)
	}
	defer func() {
		if err := statusNotifier.Close(); err != nil {
			log.Warn("close notifier", zap.Error(err))
		}
	}()

	var tokenCache wallet.TokenCache
	if conf.Redis.URL != "" {
		opts, err := redis.ParseURL(conf.Redis.URL)
		if err != nil {
			return fmt.Errorf("redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		tokenCache = wallet.NewRedisTokenCache(rdb)
	}

	providers := []port.ProviderAdapter{
		card.New(conf.Card, log),
		wallet.New(conf.Wallet, tokenCache, log),
		regional.New(conf.Regional, log),
	}

	policy := service.Policy{
		FallbackToStored:   conf.Webhook.RefreshFallback == config.RefreshFallbackStale,
		StrictVerification: conf.Webhook.StrictVerify,
	}
	svc, err := service.NewService(repo, providers, journal, statusNotifier, policy, log.Named("Service"))
	if err != nil {
		return fmt.Errorf("order service: %w", err)
	}

	if conf.Auth.KeyHex == "" {
		log.Warn("AUTH_KEY is empty, merchant tokens are valid for this process only")
	}
	tokenService, err := auth.New(conf.Auth)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	orderHandler, err := handler.NewOrderHandler(svc, log.Named("Order handler"))
	if err != nil {
		return fmt.Errorf("order handler: %w", err)
	}
	webhookHandler, err := handler.NewWebhookHandler(svc, log.Named("Webhook handler"))
	if err != nil {
		return fmt.Errorf("webhook handler: %w", err)
	}
	r, err := handler.NewRouter(conf.App, tokenService, orderHandler, webhookHandler, log.Named("Router"))
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:              conf.HTTP.HostString,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
