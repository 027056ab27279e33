package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photokeep/internal/config"
	httpmiddleware "photokeep/internal/delivery/http/middleware"
	"photokeep/internal/exception"
	"photokeep/internal/middleware"
	"photokeep/internal/observability"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2/middleware/compress"
	zapLog "go.uber.org/zap"
)

func main() {
	time.Local = time.UTC
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fiber := config.NewFiber()
	zap := config.NewZap()
	koanf := config.NewKoanf(zap)
	mongo := config.NewMongo(koanf, zap)
	minio := config.NewMinIO(koanf, zap)

	otelShutdown, err := observability.Init(context.Background(), config.LoadObservabilityConfig(koanf), zap)
	if err != nil {
		zap.Fatal("failed to initialize tracing", zapLog.Error(err))
	}

	fiber.Use(exception.Recovery(zap))
	fiber.Use(otelfiber.Middleware())
	fiber.Use(middleware.TraceLoggerMiddleware(zap))
	fiber.Use(httpmiddleware.SetupCORS(koanf))
	fiber.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	config.Server(&config.ServerConfig{
		Router: fiber,
		DB:     mongo,
		Log:    zap,
		Config: koanf,
		MinIO:  minio,
	})

	serverAddr := koanf.String("GO_SERVER")
	if serverAddr == "" {
		serverAddr = ":8080"
	}

	zap.Info("server is running on: " + serverAddr)

	go func() {
		if err := fiber.Listen(serverAddr); err != nil {
			zap.Fatal("error starting server", zapLog.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	zap.Info("got one of stop signals")

	err = fiber.ShutdownWithContext(ctx)
	if err != nil {
		zap.Warn("timeout, forced kill!", zapLog.Error(err))
		_ = zap.Sync()
		os.Exit(1)
	}

	_ = otelShutdown(ctx)

	zap.Info("server has shut down gracefully")
	_ = zap.Sync()
}
