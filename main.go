package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertof/go-keetronics-client/ble"
	"github.com/robertof/go-keetronics-client/dispatch"
	"github.com/robertof/go-keetronics-client/link"
	"github.com/robertof/go-keetronics-client/presenter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
  zerolog.DurationFieldUnit = time.Second
  zerolog.TimeFieldFormat = time.RFC3339Nano

  log.Logger = log.Output(zerolog.ConsoleWriter{
    Out: os.Stderr,
    TimeFormat: "15:04:05.000",
  })

  cfg, err := ParseArgs(os.Args[0], os.Args[1:], os.Stderr)
  if err != nil {
    if errors.Is(err, flag.ErrHelp) {
      return
    }

    log.Fatal().Err(err).Msg("Invalid configuration")
  }

  if cfg.Trace || os.Getenv("TRACE") != "" {
      zerolog.SetGlobalLevel(zerolog.TraceLevel)
  } else if cfg.Debug || os.Getenv("DEBUG") != "" {
      zerolog.SetGlobalLevel(zerolog.DebugLevel)
  } else {
      zerolog.SetGlobalLevel(zerolog.InfoLevel)
  }

  log.Info().
    Str("BindAddr", cfg.BindAddress).
    Stringer("Device", cfg.Device).
    Int("BluetoothDeviceID", cfg.BluetoothDeviceId).
    Msg("Starting with the specified configuration")

  bleHandle, err := ble.InitWithConnParams(cfg.BluetoothDeviceId, cfg.BluetoothConnParams)
  if err != nil {
    log.Fatal().Err(err).Msg("Failed to initialize Bluetooth device")
  }

  defer bleHandle.Stop()

  registry := prometheus.NewRegistry()
  latest := presenter.NewMetrics(cfg.Device.Name())
  latest.Register(registry)

  if cfg.EnableMetrics {
    ble.RegisterMetrics(registry)
    link.RegisterMetrics(registry)
  }

  out := presenter.Multi{presenter.NewLog(log.Logger), latest}

  machine := link.New(
    ble.NewTransport(bleHandle),
    cfg.Device,
    dispatch.New(out),
    out,
    link.Options{
      RetryPolicy: link.RetryPolicy{Delay: cfg.RetryDelay},
      ConnectTimeout: cfg.ConnectTimeout,
    },
  )

  ctx, cancel := context.WithCancel(context.Background())
  defer cancel()

  ctx = ble.WrapContextWithSigHandler(ctx, cancel)

  g, ctx := errgroup.WithContext(ctx)

  g.Go(func() error {
    return machine.Run(ctx)
  })

  g.Go(func() error {
    return serveMetrics(ctx, cfg.BindAddress, registry)
  })

  g.Go(func() error {
    return connectOnRequest(ctx, machine)
  })

  if err := g.Wait(); err != nil {
    log.Fatal().Err(err).Msg("Shutting down after failure")
  }

  log.Info().Msg("Bye")
}

// connectOnRequest issues the first connect, then one more every time SIGUSR1 is received.
func connectOnRequest(ctx context.Context, machine *link.Machine) error {
  requests := make(chan os.Signal, 1)
  signal.Notify(requests, syscall.SIGUSR1)
  defer signal.Stop(requests)

  for {
    err := machine.Connect(ctx)

    switch {
    case err == nil:
    case errors.Is(err, link.ErrTransportDisabled):
      log.Warn().Msg("Bluetooth is off, send SIGUSR1 to retry once it is back on")
    case errors.Is(err, link.ErrAttemptInProgress):
      log.Info().Msg("Connection attempt already in progress")
    case errors.Is(err, link.ErrShutdown), errors.Is(err, context.Canceled):
      return nil
    default:
      return err
    }

    select {
    case <-ctx.Done():
      return nil
    case <-requests:
      log.Info().Msg("Connect requested")
    }
  }
}

func serveMetrics(ctx context.Context, bindAddress string, registry *prometheus.Registry) error {
  mux := http.NewServeMux()
  mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

  server := &http.Server{Addr: bindAddress, Handler: mux}

  go func() {
    <-ctx.Done()

    shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
    defer cancel()

    if err := server.Shutdown(shutdownCtx); err != nil {
      log.Warn().Err(err).Msg("Failed to shut down the Prometheus server cleanly")
    }
  }()

  log.Info().
      Str("ListenAddress", bindAddress).
      Msg("Starting Prometheus server")

  if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
    return err
  }

  return nil
}
