package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/miakizz/mop3gw/internal/config"
	"github.com/miakizz/mop3gw/internal/credential"
	"github.com/miakizz/mop3gw/internal/logging"
	"github.com/miakizz/mop3gw/internal/metrics"
	"github.com/miakizz/mop3gw/internal/pop3"
	"github.com/miakizz/mop3gw/internal/recentid"
	"github.com/miakizz/mop3gw/internal/server"
	"github.com/miakizz/mop3gw/internal/smtp"
	"github.com/miakizz/mop3gw/internal/translate"
	"github.com/miakizz/mop3gw/internal/upstream"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	flags := config.ParseFlags()

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel)

	var mediaMode translate.MediaMode
	switch cfg.MediaMode {
	case "attachment":
		mediaMode = translate.MediaAttachment
	case "inline":
		mediaMode = translate.MediaInline
	default:
		mediaMode = translate.MediaLink
	}

	var collector metrics.Collector = &metrics.NoopCollector{}
	var metricsServer metrics.Server
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		collector = metrics.NewPrometheusCollector(reg)
		metricsServer = metrics.NewHTTPServer(cfg.Metrics.Address, cfg.Metrics.Path, reg)
	}

	recent := recentid.New()
	// Media URLs are absolute and typically public, so one unauthenticated
	// fetcher serves both listeners regardless of which account is active.
	mediaFetcher := upstream.New("", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil && err != context.Canceled {
				logger.Error("metrics server error", "error", err)
			}
		}()
		logger.Info("metrics server started", "address", cfg.Metrics.Address, "path", cfg.Metrics.Path)
	}

	listeners := []server.ListenerSpec{
		{
			Name:    "pop3",
			Address: net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Pop3Port)),
			Handler: pop3.Handler(cfg.Hostname, pop3.Options{
				Account:     cfg.Account,
				Token:       cfg.Token,
				ASCII:       cfg.ASCII,
				HTML:        cfg.HTML,
				MediaMode:   mediaMode,
				Fetcher:     mediaFetcher,
				RecentID:    recent,
				NewUpstream: upstream.New,
			}, collector),
		},
	}

	if !cfg.NoSMTP {
		domain := credential.DomainOf(cfg.Account)
		baseURL := credential.BaseURL(domain)
		listeners = append(listeners, server.ListenerSpec{
			Name:    "smtp",
			Address: net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.SMTPPort)),
			Handler: smtp.Handler(cfg.Hostname, smtp.Options{
				Account:   cfg.Account,
				Token:     cfg.Token,
				HTML:      cfg.HTML,
				MediaMode: mediaMode,
				Fetcher:   mediaFetcher,
				Client:    upstream.New(baseURL, cfg.Token),
				Domain:    domain,
			}, collector),
		})
	}

	srv, err := server.New(server.Config{
		Hostname:       cfg.Hostname,
		Logger:         logger,
		IdleTimeout:    cfg.Timeouts.IdleTimeout(),
		CommandTimeout: cfg.Timeouts.CommandTimeout(),
		MaxConnections: cfg.Limits.MaxConnections,
		Listeners:      listeners,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating server: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting mop3gw", "hostname", cfg.Hostname, "listeners", len(listeners))

	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("mop3gw stopped")
}
