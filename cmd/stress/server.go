package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	metricshttp "thread-stress/pkg/http/metrics"
	statushttp "thread-stress/pkg/http/status"
)

const readHeaderTimeout = 5 * time.Second

func newMux(exporter *metricshttp.Exporter, pool statushttp.Pool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", exporter)
	mux.Handle("/healthz", statushttp.NewHandler(pool))

	return mux
}

// startHTTPServer serves handler on bind and returns a function that stops it.
func startHTTPServer(
	bind string,
	handler http.Handler,
	logger *zap.Logger,
) (func(context.Context) error, error) {
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return nil, fmt.Errorf("listen on %q: %w", bind, err)
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		serveErr := server.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Warn("http server stopped", zap.Error(serveErr))
		}
	}()

	logger.Info("serving metrics and status", zap.String("addr", listener.Addr().String()))

	return server.Shutdown, nil
}
