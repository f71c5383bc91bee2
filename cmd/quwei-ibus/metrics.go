//go:build linux

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"quwei/internal/logging"
	"quwei/internal/metrics"
)

// serveMetrics exposes r on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, r *metrics.Registry, log *logging.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.HTTPHandler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics listening", "addr", ln.Addr().String())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", "error", err)
		}
	}()
	return nil
}
