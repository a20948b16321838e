package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/totegamma/collabfund/internal/config"
	"github.com/totegamma/collabfund/internal/infra/database"
	"github.com/totegamma/collabfund/internal/infra/eventbroker"
	"github.com/totegamma/collabfund/internal/infra/repository"
	"github.com/totegamma/collabfund/internal/present/rest"
	"github.com/totegamma/collabfund/internal/present/rest/middleware"
	"github.com/totegamma/collabfund/internal/present/rest/presenter"
	"github.com/totegamma/collabfund/internal/service"
	"github.com/totegamma/collabfund/internal/transition"
	"github.com/totegamma/collabfund/internal/usecase"
)

func main() {
	configPath := flag.String("config", os.Getenv("COLLABFUND_CONFIG"), "path to config.yaml")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	initLogger(conf)
	presenter.SetDebug(conf.Server.Debug)

	ctx := context.Background()

	if conf.Server.EnableTrace {
		tp, err := initTracer(ctx, conf)
		if err != nil {
			slog.Error("failed to init tracer", slog.String("error", err.Error()))
		} else {
			defer func() { _ = tp.Shutdown(context.Background()) }()
		}
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn, conf.Cache.SlowQuery)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
	defer rdb.Close()
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	publishers := service.Fanout{service.NewSignalService(rdb)}
	if conf.Server.NatsURL != "" {
		nc, err := nats.Connect(conf.Server.NatsURL)
		if err != nil {
			slog.Error("failed to connect to nats", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer nc.Drain()
		publishers = append(publishers, eventbroker.NewNatsPublisher(nc))
	}

	store := repository.NewStore(db)
	machines := transition.NewRegistry()
	projection := usecase.NewProjection(machines, repository.NewStatsCache(rdb, conf.Cache.StatsTTL))
	resolver := service.NewCachedResolver(usecase.NewStoreResolver(store), conf.Cache.OwnerTTL)
	auth := service.NewAuthService(conf.Auth.JwtSecret, conf.Auth.TokenTTL, mc)

	handler := rest.NewHandler(
		usecase.NewInteractionUsecase(store, resolver, machines, projection, publishers),
		usecase.NewDonationUsecase(store, projection, publishers),
		usecase.NewCommentUsecase(store, projection, publishers),
		usecase.NewStatsUsecase(store, projection),
		auth,
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = rest.NewValidator()
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("collabfund"))
	}
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("module", "http"),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	handler.RegisterRoutes(e, middleware.NewAuthMiddleware(auth))

	go func() {
		if err := e.Start(conf.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()
	slog.Info("collabfund listening", slog.String("addr", conf.Server.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", slog.String("error", err.Error()))
	}
}

func initLogger(conf config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if conf.Server.Debug {
		opts.Level = slog.LevelDebug
	}
	var handler slog.Handler
	if conf.Server.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func initTracer(ctx context.Context, conf config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(conf.Server.TraceEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", "collabfund")),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
