package acme

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"testing"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/db"
)

func TestHostFromURL(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://bipagem.masterhotelaria.com.br", "bipagem.masterhotelaria.com.br", false},
		{"https://Bipagem.Example.com:8443/app", "bipagem.example.com", false},
		{"http://bipagem.example.com", "", true},
		{"https://localhost:5000", "", true},
		{"https://api.localhost", "", true},
		{"https://203.0.113.7", "", true},
		{"https://[2001:db8::1]", "", true},
		{"https://intranet", "", true},
		{"https://", "", true},
	}
	for _, tt := range tests {
		got, err := HostFromURL(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Errorf("HostFromURL(%q) = %q, expected error", tt.url, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("HostFromURL(%q): %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("HostFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	m, err := NewManager("bipagem.example.com", "ops@example.com", database, true, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestHTTPHandlerRedirectsToHTTPS(t *testing.T) {
	m := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "http://bipagem.example.com/api/reports?date=2024-03-10", nil)
	rec := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://bipagem.example.com/api/reports?date=2024-03-10" {
		t.Errorf("Location = %q", loc)
	}
}

func TestTLSConfigAdvertisesHTTPProtocols(t *testing.T) {
	m := newTestManager(t)

	tc := m.TLSConfig()
	if tc.GetCertificate == nil {
		t.Fatal("expected GetCertificate to be set")
	}
	if len(tc.NextProtos) < 2 || tc.NextProtos[0] != "h2" || tc.NextProtos[1] != "http/1.1" {
		t.Errorf("NextProtos = %v", tc.NextProtos)
	}
}

func TestWithProtosSkipsDuplicates(t *testing.T) {
	got := withProtos([]string{"http/1.1", "acme-tls/1"}, "h2", "http/1.1")
	want := []string{"h2", "http/1.1", "acme-tls/1"}
	if !slices.Equal(got, want) {
		t.Errorf("withProtos = %v, want %v", got, want)
	}
}
