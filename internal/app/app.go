package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/adapter/email"
	mongoadapter "github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/adapter/mongo"
	natsadapter "github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/adapter/nats"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/adapter/payment"
	redisadapter "github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/adapter/redis"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/adapter/storage/s3"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/app/config"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/metrics"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/tracer"
	httpport "github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/port/http"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/service"
)

const serviceName = "nawabi_dinest"

// Run wires the whole service together and blocks until shutdown.
func Run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp := tracer.Init(serviceName, cfg.Tracing.OTLPEndpoint, log)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Errorf("failed to shut down tracer provider: %v", err)
		}
	}()

	m := metrics.NewManager(serviceName)
	go func() {
		if err := metrics.StartServer(cfg.Metrics.Port, log, m.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server failed: %v", err)
		}
	}()

	mongoClient, err := mongoadapter.NewClient(ctx, cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Errorf("failed to disconnect mongodb client: %v", err)
		}
	}()
	db := mongoClient.Database(cfg.MongoDB.Database)

	redisClient, err := redisadapter.NewClient(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client: %v", err)
		}
	}()

	natsConn, err := natsadapter.NewConnection(cfg.NATS)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer natsConn.Close()

	publisher, err := natsadapter.NewPublisher(natsConn)
	if err != nil {
		return fmt.Errorf("nats publisher: %w", err)
	}

	var mailer email.Sender
	if cfg.SMTP.Host != "" {
		mailer, err = email.NewSMTPSender(cfg.SMTP, cfg.OTP.TTL, log)
		if err != nil {
			return fmt.Errorf("smtp: %w", err)
		}
	} else {
		mailer = email.NewLogSender(log)
	}

	mediaStore, err := s3.NewMediaStore(cfg.Media, log)
	if err != nil {
		return fmt.Errorf("media store: %w", err)
	}

	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, log)

	accountRepo := mongoadapter.NewAccountRepository(db, log)
	orderRepo := mongoadapter.NewOrderRepository(db)
	catalogRepo := mongoadapter.NewCatalogRepository(db)
	priceCache := redisadapter.NewPriceCacheRepository(redisClient)

	tokens := service.NewTokenIssuer(cfg.JWT)
	sessions := service.NewSessionService(accountRepo, orderRepo, tokens, mailer, mediaStore, m, log, cfg.OTP.TTL)
	orders := service.NewOrderService(
		orderRepo,
		accountRepo,
		catalogRepo,
		priceCache,
		gateway,
		publisher,
		m,
		log,
		service.OrderPricing{
			DeliveryFee: cfg.Order.DeliveryFee,
			TaxRateBps:  cfg.Order.TaxRateBps,
			Currency:    cfg.Stripe.Currency,
		},
		cfg.PriceCache.TTL,
	)

	handler := httpport.NewHandler(sessions, orders, httpport.CookieConfig{
		Secure:     cfg.Env != "local",
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	}, log)
	router := httpport.NewRouter(handler, tokens, m, log)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPServer.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("http server listening on %s", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.TimeoutGraceful)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
