package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve episodes over HTTP",
	Long: `Starts the HTTP API:
  POST /episode   - Run the strategies on a seeded or supplied GeoJSON scene
  GET  /replay    - Stream one episode step by step over a websocket
  GET  /health    - Check server status`,
	RunE: serve,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func serve(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	readTimeout, writeTimeout, err := cfg.Server.Timeouts()
	if err != nil {
		return err
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	hs := &http.Server{
		Handler:      newServer(cfg, logger),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- hs.Serve(l)
	}()

	logger.Info("🚀 Online planner server listening",
		zap.String("addr", l.Addr().String()),
		zap.Strings("strategies", cfg.Run.Strategies))

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to serve", zap.Error(err))
			return err
		}
	case sig := <-sigs:
		logger.Info("Terminating", zap.Stringer("signal", sig))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return hs.Shutdown(ctx)
}
