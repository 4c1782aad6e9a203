package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bizkidco/brandbooth/pkg/api"
	"github.com/bizkidco/brandbooth/pkg/brandgen"
	zerologadapter "github.com/bizkidco/brandbooth/pkg/brandgen/logger/zerolog"
	prommetrics "github.com/bizkidco/brandbooth/pkg/brandgen/metrics/prometheus"
	"github.com/bizkidco/brandbooth/pkg/brandgen/provider/httpprovider"
	"github.com/bizkidco/brandbooth/pkg/brandgen/uploader/httpuploader"
	"github.com/bizkidco/brandbooth/storage/memory"
	"github.com/bizkidco/brandbooth/storage/postgres"
	redisstore "github.com/bizkidco/brandbooth/storage/redis"
)

func newServeCmd(zlog zerolog.Logger) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the generation API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := zerologadapter.NewLogger(zlog)
			metrics := prommetrics.DefaultMetrics("brandbooth")

			provider, err := httpprovider.New(httpprovider.Config{
				BaseURL: os.Getenv("BRANDBOOTH_PROVIDER_URL"),
				Token:   os.Getenv("BRANDBOOTH_PROVIDER_TOKEN"),
			})
			if err != nil {
				return fmt.Errorf("provider: %w", err)
			}

			var uploader brandgen.Uploader
			if uploadURL := os.Getenv("BRANDBOOTH_UPLOAD_URL"); uploadURL != "" {
				uploader, err = httpuploader.New(httpuploader.Config{
					UploadURL: uploadURL,
					Token:     os.Getenv("BRANDBOOTH_UPLOAD_TOKEN"),
				})
				if err != nil {
					return fmt.Errorf("uploader: %w", err)
				}
			} else {
				zlog.Warn().Msg("no upload URL configured, assets will keep provider-hosted URLs")
			}

			ledger, assets, profile, cleanup, err := buildStores(ctx, zlog)
			if err != nil {
				return err
			}
			defer cleanup()

			plans := brandgen.DefaultPlans()

			quota, err := brandgen.NewQuotaManager(ledger, plans, logger, metrics)
			if err != nil {
				return fmt.Errorf("quota manager: %w", err)
			}
			dispatcher, err := brandgen.NewDispatcher(provider, plans, brandgen.DefaultDispatcherConfig(), logger, metrics)
			if err != nil {
				return fmt.Errorf("dispatcher: %w", err)
			}
			poller, err := brandgen.NewPoller(provider, brandgen.DefaultPollerConfig(), logger, metrics)
			if err != nil {
				return fmt.Errorf("poller: %w", err)
			}
			finalizer, err := brandgen.NewFinalizer(uploader, assets, logger, metrics)
			if err != nil {
				return fmt.Errorf("finalizer: %w", err)
			}
			generator, err := brandgen.NewGenerator(brandgen.GeneratorDeps{
				Quota:      quota,
				Dispatcher: dispatcher,
				Poller:     poller,
				Finalizer:  finalizer,
				Plans:      plans,
				Logger:     logger,
				Metrics:    metrics,
			})
			if err != nil {
				return fmt.Errorf("generator: %w", err)
			}
			selection, err := brandgen.NewSelectionManager(assets, profile, logger)
			if err != nil {
				return fmt.Errorf("selection manager: %w", err)
			}

			handler, err := api.NewHandler(api.Config{
				Generator: generator,
				Quota:     quota,
				Selection: selection,
				GetUserID: api.FromHeader("X-User-ID"),
				Logger:    logger,
			})
			if err != nil {
				return fmt.Errorf("api handler: %w", err)
			}

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.Recoverer)
			r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintln(w, "OK")
			})
			r.Handle("/metrics", promhttp.Handler())
			r.Mount("/api", handler.Routes())

			server := &http.Server{
				Addr:              ":" + port,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				zlog.Info().Str("addr", server.Addr).Msg("server listening")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				zlog.Info().Msg("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to listen on")

	return cmd
}

// buildStores wires the ledger, asset and profile stores from the
// BRANDBOOTH_STORAGE setting: memory (default), postgres, or redis.
// Redis holds only the ledger; asset rows stay in memory unless postgres
// is also configured.
func buildStores(ctx context.Context, zlog zerolog.Logger) (brandgen.LedgerStore, brandgen.AssetStore, brandgen.ProfileStore, func(), error) {
	noop := func() {}

	switch os.Getenv("BRANDBOOTH_STORAGE") {
	case "", "memory":
		store := memory.New()
		return store, store, store, noop, nil

	case "postgres":
		config := postgres.DefaultConfig()
		config.ConnectionString = os.Getenv("BRANDBOOTH_POSTGRES_DSN")
		store, err := postgres.New(ctx, config)
		if err != nil {
			return nil, nil, nil, noop, fmt.Errorf("postgres: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, nil, noop, fmt.Errorf("postgres: %w", err)
		}
		return store, store, store, store.Close, nil

	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     os.Getenv("BRANDBOOTH_REDIS_ADDR"),
			Password: os.Getenv("BRANDBOOTH_REDIS_PASSWORD"),
		})
		ledger, err := redisstore.New(client, redisstore.DefaultConfig())
		if err != nil {
			return nil, nil, nil, noop, fmt.Errorf("redis: %w", err)
		}
		zlog.Warn().Msg("redis holds the ledger only, assets are kept in memory")
		assets := memory.New()
		cleanup := func() { _ = client.Close() }
		return ledger, assets, assets, cleanup, nil

	default:
		return nil, nil, nil, noop, fmt.Errorf("unknown storage backend %q", os.Getenv("BRANDBOOTH_STORAGE"))
	}
}
