// Package server runs the HTTP API and the optional gRPC health endpoint
// until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the gRPC health service name that reports analyzer readiness.
const HealthService = "metricmuse.TextMetrics"

// NewHealthServer builds a gRPC server exposing grpc.health.v1.Health, with
// HealthService marked SERVING.
func NewHealthServer() (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
	return grpcServer, hs
}

// Options carries the optional parts of Serve. Zero values mean: listen on
// server.Addr, no gRPC, and stop on SIGINT or SIGTERM.
type Options struct {
	Listener     net.Listener
	GRPCServer   *grpc.Server
	GRPCListener net.Listener
	Health       *health.Server
	Signals      <-chan os.Signal
}

// Serve runs server (and the gRPC server, when given) until a signal
// arrives or one of them fails, then shuts both down within shutdownTimeout.
func Serve(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, opts Options) error {
	errCh := make(chan error, 2)
	running := 1
	go func() {
		var err error
		if opts.Listener != nil {
			err = server.Serve(opts.Listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	if opts.GRPCServer != nil && opts.GRPCListener != nil {
		running++
		go func() {
			err := opts.GRPCServer.Serve(opts.GRPCListener)
			if errors.Is(err, grpc.ErrServerStopped) {
				err = nil
			}
			errCh <- err
		}()
	}

	sigCh := opts.Signals
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	var firstErr error
	select {
	case err := <-errCh:
		running--
		firstErr = err
		if err != nil {
			logger.Error("server exited", zap.Error(err))
		}
	case sig, ok := <-sigCh:
		if ok {
			logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		}
	}

	if err := shutdown(server, shutdownTimeout, opts); err != nil && firstErr == nil {
		firstErr = err
	}
	for ; running > 0; running-- {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func shutdown(server *http.Server, timeout time.Duration, opts Options) error {
	if opts.Health != nil {
		opts.Health.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if opts.GRPCServer != nil {
		stopped := make(chan struct{})
		go func() {
			opts.GRPCServer.GracefulStop()
			close(stopped)
		}()
		defer func() {
			select {
			case <-stopped:
			case <-ctx.Done():
				opts.GRPCServer.Stop()
			}
		}()
	}

	if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
