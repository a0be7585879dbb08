package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/fruitshop-backend/api/controllers"
	"github.com/angelmondragon/fruitshop-backend/api/routes"
	"github.com/angelmondragon/fruitshop-backend/internal/auth"
	"github.com/angelmondragon/fruitshop-backend/internal/cart"
	product "github.com/angelmondragon/fruitshop-backend/internal/products"
	"github.com/angelmondragon/fruitshop-backend/internal/users"
	"github.com/angelmondragon/fruitshop-backend/pkg/auth/session"
	"github.com/angelmondragon/fruitshop-backend/pkg/config"
	"github.com/angelmondragon/fruitshop-backend/pkg/db"
	"github.com/angelmondragon/fruitshop-backend/pkg/logger"
	"github.com/angelmondragon/fruitshop-backend/pkg/metrics"
	"github.com/angelmondragon/fruitshop-backend/pkg/migrate"
	"github.com/angelmondragon/fruitshop-backend/pkg/redis"
	"github.com/angelmondragon/fruitshop-backend/pkg/security"
	"github.com/angelmondragon/fruitshop-backend/pkg/storage"
	"github.com/angelmondragon/fruitshop-backend/pkg/storage/gcs"
	"github.com/angelmondragon/fruitshop-backend/pkg/storage/local"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	closers = append(closers, redisClient.Close)

	readiness := map[string]controllers.Pinger{"db": dbClient, "redis": redisClient}

	images, mediaDir, err := openImageStore(ctx, cfg, logg)
	if err != nil {
		return err
	}
	if gcsClient, ok := images.(*gcs.Client); ok {
		closers = append(closers, gcsClient.Close)
		readiness["gcs"] = gcsClient
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(reg)
	cartMetrics := metrics.NewCartMetrics(reg)
	authMetrics := metrics.NewAuthMetrics(reg)

	sessions, err := session.NewManager(redisClient, cfg.Session)
	if err != nil {
		return err
	}

	hasher := security.NewHasher(cfg.Password)
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo: users.NewRepository(dbClient.DB()),
		Hasher:   hasher,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner: dbClient,
		Hasher:   hasher,
	})
	if err != nil {
		return err
	}

	productService, err := product.NewService(product.NewRepository(dbClient.DB()), images, cfg.App.PageSize, logg)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(productService, cartMetrics)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(
		cfg,
		logg,
		reg,
		httpMetrics,
		authMetrics,
		readiness,
		redisClient,
		sessions,
		authService,
		registerService,
		productService,
		cartService,
		mediaDir,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    server.Addr,
		"storage": cfg.Storage.Driver,
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

// openImageStore picks the product image backend. The returned directory is
// non-empty only for local storage, which the router then serves.
func openImageStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.ObjectStore, string, error) {
	if cfg.Storage.IsGCS() {
		client, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return nil, "", err
		}
		return client, "", nil
	}
	store, err := local.New(cfg.Storage)
	if err != nil {
		return nil, "", err
	}
	return store, store.Root(), nil
}
