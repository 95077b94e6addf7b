package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/logistics-globe/internal/app"
	"github.com/signalsfoundry/logistics-globe/internal/config"
	"github.com/signalsfoundry/logistics-globe/internal/httpapi"
	"github.com/signalsfoundry/logistics-globe/internal/logging"
	"github.com/signalsfoundry/logistics-globe/internal/observability"
	"github.com/signalsfoundry/logistics-globe/internal/stream"
	"github.com/signalsfoundry/logistics-globe/timectrl"
)

func main() {
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		logging.NewFromEnv().Error(context.Background(), "failed to load .env", logging.Err(err))
		os.Exit(1)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		logging.NewFromEnv().Error(context.Background(), "invalid environment", logging.Err(err))
		os.Exit(1)
	}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		logging.NewFromEnv().Error(context.Background(), "invalid flags", logging.Err(err))
		os.Exit(2)
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, AddSource: true})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.GRPCAddr), logging.Err(err))
		os.Exit(1)
	}
	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for HTTP", logging.String("addr", cfg.HTTPAddr), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, grpcLis, httpLis); err != nil {
		log.Error(ctx, "globe server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled. It owns both listeners.
func run(ctx context.Context, cfg config.Config, log logging.Logger, grpcLis, httpLis net.Listener) error {
	if err := cfg.Validate(); err != nil {
		grpcLis.Close()
		httpLis.Close()
		return fmt.Errorf("config: %w", err)
	}
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv("globe-server"), log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := observability.NewGlobeCollector(reg)
	if err != nil {
		return err
	}

	rt, err := app.Bootstrap(ctx, cfg, log, collector)
	if err != nil {
		return err
	}
	defer rt.Close()
	collector.SetLocations(rt.Store.Len())

	hub := stream.NewHub()
	svc, err := stream.NewGlobeService(rt.Globe, hub, rt.Scene.Colors, rt.Config.RotationSpeed, log)
	if err != nil {
		return err
	}
	grpcServer, health := stream.NewServer(svc, stream.ServerOptions{Logger: log, Metrics: collector})

	api, err := httpapi.New(rt.Globe, rt.Store, httpapi.Options{
		Colors:        rt.Scene.Colors,
		RotationSpeed: rt.Config.RotationSpeed,
		CORSOrigins:   cfg.CORSOrigins,
		Metrics:       collector,
		Logger:        log,
	})
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	mode := timectrl.RealTime
	if cfg.Accelerated {
		mode = timectrl.Accelerated
	}
	clock := timectrl.NewTimeController(time.Now().UTC(), cfg.FrameInterval, mode)
	clock.AddListener(func(_ time.Time, delta time.Duration) {
		hub.Publish(rt.Globe.Frame(delta))
	})

	errCh := make(chan error, 2)
	go func() {
		log.Info(ctx, "starting gRPC server", logging.String("addr", grpcLis.Addr().String()))
		if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
	}()
	go func() {
		log.Info(ctx, "starting HTTP server", logging.String("addr", httpLis.Addr().String()))
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	clockCtx, stopClock := context.WithCancel(ctx)
	defer stopClock()
	clockDone := clock.Start(clockCtx, 0)
	log.Info(ctx, "frame loop running",
		logging.Duration("interval", cfg.FrameInterval),
		logging.String("mode", mode.String()),
	)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	log.Info(context.Background(), "shutting down globe server")
	stopClock()
	<-clockDone
	health.Shutdown()
	hub.Close()
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}
