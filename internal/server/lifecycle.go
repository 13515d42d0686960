package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/logging"
)

// ServerConfig configures a ManagedServer. TLS is served when TLSConfig is
// set, or when both CertFile and KeyFile are set.
type ServerConfig struct {
	Addr              string
	Handler           http.Handler
	TLSConfig         *tls.Config
	CertFile          string
	KeyFile           string
	Logger            *zap.Logger
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
}

func DefaultServerConfig(addr string, handler http.Handler, logger *zap.Logger) ServerConfig {
	return ServerConfig{
		Addr:              addr,
		Handler:           handler,
		Logger:            logger,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// ManagedServer runs an http.Server in the background.
type ManagedServer struct {
	server   *http.Server
	logger   *zap.Logger
	name     string
	certFile string
	keyFile  string
	shutdown time.Duration
	listener net.Listener
	errCh    chan error
}

func NewManagedServer(name string, cfg ServerConfig) *ManagedServer {
	errLog, _ := zap.NewStdLogAt(cfg.Logger, zapcore.ErrorLevel)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           cfg.Handler,
		TLSConfig:         cfg.TLSConfig,
		ErrorLog:          errLog,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	shutdown := cfg.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = 10 * time.Second
	}

	return &ManagedServer{
		server:   srv,
		logger:   cfg.Logger,
		name:     name,
		certFile: cfg.CertFile,
		keyFile:  cfg.KeyFile,
		shutdown: shutdown,
		errCh:    make(chan error, 1),
	}
}

func (m *ManagedServer) managedTLS() bool {
	return m.server.TLSConfig != nil
}

func (m *ManagedServer) useTLS() bool {
	return m.managedTLS() || (m.certFile != "" && m.keyFile != "")
}

// Start binds the listen address and serves in a goroutine. Bind errors are
// returned synchronously.
func (m *ManagedServer) Start() error {
	ln, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return fmt.Errorf("%s failed to start: %w", m.name, err)
	}
	m.listener = ln

	mode := "off"
	switch {
	case m.managedTLS():
		mode = "acme"
	case m.useTLS():
		mode = "manual"
	}
	m.logger.Info("server listening",
		zap.String("server", m.name),
		logging.Addr(ln.Addr().String()),
		logging.TLSMode(mode))

	go func() {
		var err error
		if m.useTLS() {
			err = m.server.ServeTLS(ln, m.certFile, m.keyFile)
		} else {
			err = m.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.errCh <- err
		}
		close(m.errCh)
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (m *ManagedServer) Addr() string {
	if m.listener == nil {
		return m.server.Addr
	}
	return m.listener.Addr().String()
}

// Errors delivers a fatal serve error, then closes.
func (m *ManagedServer) Errors() <-chan error {
	return m.errCh
}

func (m *ManagedServer) Shutdown(ctx context.Context) {
	if m.listener == nil {
		return
	}
	if err := m.server.Shutdown(ctx); err != nil {
		m.logger.Warn("shutdown error", zap.String("server", m.name), zap.Error(err))
	}
}

// Run starts the server and blocks until ctx is cancelled or serving fails,
// then shuts down gracefully.
func (m *ManagedServer) Run(ctx context.Context) error {
	if err := m.Start(); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case err, ok := <-m.errCh:
		if ok {
			serveErr = fmt.Errorf("%s stopped: %w", m.name, err)
		}
	}

	m.logger.Info("shutting down", zap.String("server", m.name))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), m.shutdown)
	defer cancel()
	m.Shutdown(shutdownCtx)
	return serveErr
}
