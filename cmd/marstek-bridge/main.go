// cmd/marstek-bridge/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/marstek-bridge/internal/api"
	"github.com/tamzrod/marstek-bridge/internal/config"
	"github.com/tamzrod/marstek-bridge/internal/device"
	"github.com/tamzrod/marstek-bridge/internal/logger"
	"github.com/tamzrod/marstek-bridge/internal/mirror"
	"github.com/tamzrod/marstek-bridge/internal/publisher"
	"github.com/tamzrod/marstek-bridge/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: marstek-bridge <config.yaml>")
		os.Exit(2)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "marstek-bridge: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Publishers: state store + debug log + optional Modbus mirror
	// --------------------

	store := publisher.NewStore()
	fanout := publisher.NewFanout(log, store, publisher.NewLog(log))

	plans, err := mirror.BuildPlans(cfg.Devices)
	if err != nil {
		return err
	}
	var mir *mirror.Mirror
	if len(plans) > 0 {
		clients, closeClients, err := mirror.BuildEndpointClients(cfg.Devices)
		if err != nil {
			return fmt.Errorf("mirror clients failed: %w", err)
		}
		defer func() { _ = closeClients() }()

		mir, err = mirror.New(plans, clients, log)
		if err != nil {
			return err
		}
		fanout.Add(mir)
	}

	// --------------------
	// Build per-device handlers
	// --------------------

	sched := scheduler.New(log)
	defer sched.Close()

	devices, err := device.BuildAll(cfg.Devices, sched, fanout, log)
	if err != nil {
		return fmt.Errorf("device build failed: %w", err)
	}

	ctrl := make([]api.Device, 0, len(devices))
	for _, d := range devices {
		d.Initialize()
		ctrl = append(ctrl, d)
		log.Infow("device started", "device", d.ID())
	}

	// --------------------
	// Run: HTTP surface + mirror until signal
	// --------------------

	srv := api.NewServer(cfg.HTTP.Listen, api.NewHandler(ctrl, store, log).InitRoutes())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infow("http listening", "addr", cfg.HTTP.Listen)
		return srv.Run()
	})

	if mir != nil {
		g.Go(func() error { return mir.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()

		for _, d := range devices {
			d.Dispose()
		}

		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shCtx)
	})

	err = g.Wait()
	log.Infow("shutdown complete")
	return err
}
