// machine-api: Additive Manufacturing Device Control Service
// Copyright (C) 2026  The Machine API Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/kittycad/machine-api/internal/config"
	"github.com/kittycad/machine-api/internal/discovery"
	"github.com/kittycad/machine-api/internal/metrics"
	"github.com/kittycad/machine-api/internal/registry"
)

var (
	configPath  = flag.String("config", "machine-api.toml", "path to the machines TOML config file")
	metricsAddr = flag.String("metrics-addr", "127.0.0.1:9090", "address to serve the Prometheus /metrics endpoint on")
)

func loadConfig(path string) (config.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.File{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var file config.File
	if err := toml.Unmarshal(data, &file); err != nil {
		return config.File{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := file.Validate(); err != nil {
		return config.File{}, fmt.Errorf("config %s: %w", path, err)
	}
	return file, nil
}

func main() {
	flag.Parse()

	log.Printf("machine-api starting, config=%s", *configPath)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("loaded %d configured machine(s)", len(cfg.Machines))

	reg := registry.New()
	exporter := metrics.New(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// machine-api is the thinnest possible front door: it discovers and
	// registers devices and exposes their sensors for scraping, but does
	// not route HTTP control requests. A caller embeds internal/control
	// directly, or drives this process's lifecycle and talks to the
	// devices it has registered some other way (see cmd/machine-cli).
	disc := discovery.New(cfg, reg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return disc.Run(gctx)
	})

	g.Go(func() error {
		watchNewDevices(gctx, reg, exporter)
		return nil
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: *metricsAddr, Handler: mux}

	g.Go(func() error {
		log.Printf("serving /metrics on %s", *metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Println("shutting down machine-api...")
		_ = server.Shutdown(context.Background())
		cancel()
	}()

	if err := g.Wait(); err != nil {
		log.Fatalf("machine-api exited: %v", err)
	}
}

// watchNewDevicesInterval governs how often the registry is checked for
// devices discovery has registered since the last check. There is no
// registration-event channel on registry.Registry, so polling is the
// simplest way to notice a newly-attached device without coupling C8 and
// C10 together.
const watchNewDevicesInterval = 5 * time.Second

// watchNewDevices starts a metrics.Exporter watch for every device id that
// appears in reg for the first time, until ctx is cancelled.
func watchNewDevices(ctx context.Context, reg *registry.Registry, exporter *metrics.Exporter) {
	watching := make(map[string]bool)

	ticker := time.NewTicker(watchNewDevicesInterval)
	defer ticker.Stop()

	for {
		for _, id := range reg.IDs() {
			if watching[id] {
				continue
			}
			driver, err := reg.Lookup(id)
			if err != nil {
				continue
			}
			if err := exporter.Watch(ctx, id, driver); err != nil {
				log.Printf("[machine-api] %s: starting metrics watch failed: %v", id, err)
				continue
			}
			watching[id] = true
			log.Printf("[machine-api] %s: metrics watch started", id)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
