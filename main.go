package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"study-planner/api"
	"study-planner/config"
	"study-planner/domain"
	"study-planner/observability"
	"study-planner/storage"
	"study-planner/stream"
)

var (
	portFlag int
	rootCmd  = &cobra.Command{
		Use:   "study-planner",
		Short: "Study activity tracker HTTP service",
	}
)

func main() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if portFlag > 0 {
				cfg.HTTPPort = portFlag
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Listen port (overrides STUDY_HTTP_PORT)")
	rootCmd.AddCommand(serveCmd)

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Print the mock activities the store starts with",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := sonic.ConfigStd.MarshalIndent(storage.MockActivities(time.Now()), "", "  ")
			if err != nil {
				return fmt.Errorf("encode seed: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	rootCmd.AddCommand(seedCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise request events from JSON service logs read on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			full, _ := cmd.Flags().GetBool("json")
			return runStats(cmd.InOrStdin(), cmd.OutOrStdout(), full)
		},
	}
	statsCmd.Flags().Bool("json", false, "Print the full summary as JSON")
	rootCmd.AddCommand(statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runStats(in io.Reader, out io.Writer, full bool) error {
	collector := observability.NewEventCollector()
	reader := bufio.NewReader(in)
	for {
		line, err := reader.ReadString('\n')
		if len(line) != 0 {
			collector.Ingest(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read logs: %w", err)
		}
	}

	summary := collector.Summary()
	if !full {
		_, err := fmt.Fprintln(out, summary.ShortString())
		return err
	}
	data, err := sonic.ConfigStd.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	cfg.ConfigureLogger(log.StandardLogger())
	return cfg, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := log.StandardLogger()

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("shutdown tracer provider")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	broker := stream.NewBroker()
	var seed []domain.Activity
	if cfg.SeedMockData {
		seed = storage.MockActivities(time.Now().In(cfg.Location()))
	}
	store := storage.New(seed,
		storage.WithPublisher(broker),
		storage.WithMetrics(observability.NewStoreMetrics(reg)),
		storage.WithLogger(logger),
	)

	deduper, closeDeduper, err := newDeduper(cfg)
	if err != nil {
		return err
	}
	defer closeDeduper()

	auth := api.NewAuth(cfg.AuthSecret, cfg.TokenTTL)

	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = api.JSONSerializer{}
	e.Use(middleware.Recover())
	e.Use(api.RequestID())
	e.Use(api.RequestLogger(logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "study_planner",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
	}))
	e.Use(middleware.Decompress())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	api.Register(e, store, auth, deduper, api.Options{
		Location:        cfg.Location(),
		DefaultUserName: cfg.DefaultUserName,
		AuthDelay:       cfg.AuthDelay,
	}, logger)
	stream.Register(e.Group("/api"), store, broker)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr()).Info("listening")
		errCh <- e.Start(cfg.HTTPAddr())
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	broker.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newDeduper shares idempotency keys through Redis when configured and keeps
// them in memory otherwise.
func newDeduper(cfg *config.Config) (api.Deduper, func(), error) {
	if cfg.RedisURL == "" {
		return api.NewMemoryDeduper(cfg.IdempotencyTTL), func() {}, nil
	}
	rc := redis.NewClient(redisOptions(cfg.RedisURL))
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		_ = rc.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	closeFn := func() {
		if err := rc.Close(); err != nil {
			log.WithError(err).Warn("redis close")
		}
	}
	return api.NewRedisDeduper(rc, cfg.IdempotencyTTL), closeFn, nil
}

// redisOptions accepts a redis:// URL or a "host:port,password=...,ssl=true" connection string.
func redisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
