package server

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestManagedServerStartShutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	srv := NewManagedServer("test", DefaultServerConfig("127.0.0.1:0", handler, zap.NewNop()))
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("body = %q, want pong", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	select {
	case err, ok := <-srv.Errors():
		if ok {
			t.Errorf("unexpected serve error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("error channel not closed after shutdown")
	}
}

func TestManagedServerServesTLSConfig(t *testing.T) {
	// Borrow the test certificate and a client that trusts it.
	ts := httptest.NewTLSServer(http.NotFoundHandler())
	defer ts.Close()
	cert := ts.TLS.Certificates[0]
	client := ts.Client()

	cfg := DefaultServerConfig("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil {
			t.Error("request did not arrive over TLS")
		}
		_, _ = w.Write([]byte("secure"))
	}), zap.NewNop())
	cfg.TLSConfig = &tls.Config{
		GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) { return &cert, nil },
	}
	srv := NewManagedServer("test", cfg)
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	resp, err := client.Get("https://" + srv.Addr() + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "secure" {
		t.Errorf("body = %q, want secure", body)
	}
}

func TestManagedServerRunStopsOnCancel(t *testing.T) {
	srv := NewManagedServer("test", DefaultServerConfig("127.0.0.1:0", http.NotFoundHandler(), zap.NewNop()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestManagedServerBindError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = ln.Close() }()

	srv := NewManagedServer("test", DefaultServerConfig(ln.Addr().String(), http.NotFoundHandler(), zap.NewNop()))
	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected bind error")
	}
}
