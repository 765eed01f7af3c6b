package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matteo027/remote-file-system/pkg/authbridge"
	"github.com/matteo027/remote-file-system/pkg/backing"
	"github.com/matteo027/remote-file-system/pkg/config"
	"github.com/matteo027/remote-file-system/pkg/httpapi"
	"github.com/matteo027/remote-file-system/pkg/meta"
	"github.com/matteo027/remote-file-system/pkg/vfs"
	"github.com/urfave/cli/v2"
)

func serveFlags() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "start the filesystem server",
		ArgsUsage: "META-URL ROOT-DIR",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Value: config.Default().Listen, Usage: "HTTP listen address"},
			&cli.Int64Flag{Name: "admin-uid", Value: config.Default().AdminUID, Usage: "administrator uid"},
			&cli.Int64Flag{Name: "max-read", Value: config.Default().MaxReadSize, Usage: "max bytes per read response"},
			&cli.Int64Flag{Name: "max-write", Value: config.Default().MaxWriteBody, Usage: "max bytes per write request body"},
		},
		Action: serve,
	}
}

func serve(ctx *cli.Context) error {
	setLoggerLevel(ctx)
	if ctx.Args().Len() < 2 {
		return cli.Exit("META-URL and ROOT-DIR are required", 1)
	}

	cfg := config.Default()
	cfg.MetaDSN = ctx.Args().Get(0)
	cfg.Root = ctx.Args().Get(1)
	cfg.Listen = ctx.String("listen")
	cfg.AdminUID = ctx.Int64("admin-uid")
	cfg.MaxReadSize = ctx.Int64("max-read")
	cfg.MaxWriteBody = ctx.Int64("max-write")
	if err := cfg.Validate(); err != nil {
		return err
	}

	m, err := meta.Open(cfg.MetaDSN)
	if err != nil {
		logger.Fatalf("open meta store: %s", err)
	}
	defer m.Close()

	b, err := backing.New(cfg.Root)
	if err != nil {
		logger.Fatalf("open backing store: %s", err)
	}
	defer b.Close()

	svc := vfs.New(m, b, cfg)
	if err := svc.Bootstrap(); err != nil {
		logger.Fatalf("bootstrap: %s", err)
	}

	watcher := authbridge.New(&authbridge.DefaultSignup{Meta: m}, svc)
	svc.SetReservedWatcher(watcher)

	router := httpapi.NewRouter(svc, cfg)
	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  cfg.SessionTimeout,
		WriteTimeout: cfg.SessionTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s, root=%s, meta=%s", cfg.Listen, cfg.Root, cfg.MetaDSN)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Infof("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
