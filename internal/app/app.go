package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/rcaps4street/storefront/internal/assets"
	"github.com/rcaps4street/storefront/internal/domain/order"
	"github.com/rcaps4street/storefront/internal/handler"
	"github.com/rcaps4street/storefront/internal/notify"
	"github.com/rcaps4street/storefront/internal/repository"
	"github.com/rcaps4street/storefront/pkg/health"
	"github.com/rcaps4street/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Redis for session carts.
	rdb, err := repository.NewRedis(cfg.RedisAddr)
	if err != nil {
		return errors.Wrap(err, "create redis client")
	}
	defer rdb.Close()

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)

	// Repositories.
	productRepo := repository.NewProductRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	cartStore := repository.NewRedisCartStore(rdb, cfg.CartTTL)

	// Order reference generator, seeded with already-issued ids.
	idGen := order.NewIDGenerator(cfg.OrderIDYearSalt)
	issued, err := orderRepo.ListIDs(ctx)
	if err != nil {
		return errors.Wrap(err, "load issued order ids")
	}
	idGen.Seed(issued)

	// Receipt dispatcher.
	dispatcher := notify.NewDispatcher(mailTransport(cfg.Mail), notify.DispatcherConfig{
		Workers:        cfg.Mail.Workers,
		QueueSize:      cfg.Mail.QueueSize,
		MaxAttempts:    cfg.Mail.MaxAttempts,
		Backoff:        cfg.Mail.Backoff,
		AttemptTimeout: cfg.Mail.AttemptTimeout,
		OperatorEmail:  cfg.Mail.Operator,
	}, lg)
	dispatcher.Start()

	// Checkout transaction service.
	checkoutSvc := order.NewService(productRepo, cartStore, orderRepo, idGen, dispatcher)

	// Uploads.
	uploader, err := assets.NewDiskUploader(cfg.UploadDir, cfg.UploadBaseURL)
	if err != nil {
		return errors.Wrap(err, "create uploader")
	}

	// HTTP surface.
	h := handler.New(
		handler.Config{
			ImageBaseURL:   cfg.ImageBaseURL,
			AdminKey:       cfg.AdminKey,
			AdminKeyPepper: cfg.AdminKeyPepper,
		},
		productRepo,
		cartStore,
		orderRepo,
		checkoutSvc,
		uploader,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))
	mux.Handle(cfg.UploadBaseURL+"/", http.StripPrefix(cfg.UploadBaseURL+"/",
		http.FileServer(http.Dir(cfg.UploadDir))))

	wrapped := httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "X-Admin-Key"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.LogRequests(),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(wrapped, "storefront-api",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		// Give queued receipts a chance to flush; order records they
		// describe are already durable either way.
		if err := dispatcher.Close(shutdownCtx); err != nil {
			lg.Warn("Notification queue not fully drained", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// mailTransport builds the configured receipt transport. With transport
// "off" (or missing credentials) receipts are accepted and discarded.
func mailTransport(cfg MailConfig) notify.Transport {
	switch cfg.Transport {
	case "smtp":
		return notify.NewSMTPTransport(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
			SSL:      cfg.SMTPSSL,
			Timeout:  cfg.SMTPTimeout,
		})
	case "api":
		return notify.NewHTTPAPITransport(notify.HTTPAPIConfig{
			Endpoint: cfg.APIEndpoint,
			APIKey:   cfg.APIKey,
			From:     cfg.From,
			Timeout:  cfg.APITimeout,
		})
	default:
		return notify.NopTransport{}
	}
}
