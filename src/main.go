package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"elevfleet/lib/driver-go/elevio"
	"elevfleet/src/config"
	"elevfleet/src/dispatcher"
	"elevfleet/src/elev"
	"elevfleet/src/metrics"
	"elevfleet/src/utils"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	closeLog, err := utils.InitLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("Fleet stopped", "error", err)
		fmt.Fprintf(os.Stderr, "Critical error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	floors, err := cfg.Floors()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)

	d := dispatcher.New(cfg.DispatcherInbox, cfg.CarInbox)
	cars := make([]dispatcher.Runner, 0, cfg.NumCars)
	for i := range cfg.NumCars {
		drv, err := elevio.Dial(ctx, cfg.CarAddr(i), floors)
		if err != nil {
			return fmt.Errorf("car %d: %w", i, err)
		}
		defer drv.Close()
		slog.Info("Connected to hardware", "car", i, "addr", cfg.CarAddr(i))
		cars = append(cars, elev.NewCar(i, floors, drv, d.Attach(i), clock.RealClock{}, cfg))
	}

	g, gctx := errgroup.WithContext(ctx)
	fleetDone := make(chan struct{})
	g.Go(func() error {
		defer close(fleetDone)
		return d.Run(gctx, cars...)
	})
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: statusMux(reg, d), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			slog.Info("Serving metrics and fleet status", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-fleetDone:
			case <-gctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}

func statusMux(reg *prometheus.Registry, d *dispatcher.Dispatcher) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("/fleet", d)
	return mux
}
