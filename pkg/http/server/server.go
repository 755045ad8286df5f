package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
	writeSlack        = 10 * time.Second
)

type Config struct {
	Port int
	// Timeout bounds one API request, including the routing backend call.
	Timeout time.Duration
	// RateLimit is requests per second across all clients; 0 disables limiting.
	RateLimit float64
}

func New(ctx context.Context, handler http.Handler, config Config) *http.Server {
	var writeTimeout time.Duration
	if config.Timeout > 0 {
		handler = http.TimeoutHandler(handler, config.Timeout, `{"error":{"code":"timeout","message":"request timed out"}}`)
		writeTimeout = config.Timeout + writeSlack
	}
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Port),
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// GracefulShutdown blocks until SIGINT or SIGTERM and returns the signal.
func GracefulShutdown() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	return <-quit
}
