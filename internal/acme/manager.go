// Package acme obtains and renews the public host's certificate from an
// ACME CA, keeping certificates in the service database.
package acme

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/caddyserver/certmagic"
	certmagicsqlite "github.com/rsclarke/certmagic-sqlite"
	"go.uber.org/zap"
)

// Manager handles certificate acquisition and renewal for one host via the
// HTTP-01 challenge.
type Manager struct {
	Domain  string
	Email   string
	Staging bool
	DB      *sql.DB
	Logger  *zap.Logger

	config *certmagic.Config
	issuer *certmagic.ACMEIssuer
}

// SetLogger configures the global certmagic loggers.
// Call this before starting any HTTP servers that handle ACME challenges.
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	certmagic.Default.Logger = logger
	certmagic.DefaultACME.Logger = logger
}

// HostFromURL returns the DNS name a certificate can be issued for from the
// service's public URL. The URL must be https and name a public host.
func HostFromURL(publicURL string) (string, error) {
	u, err := url.Parse(publicURL)
	if err != nil {
		return "", fmt.Errorf("parse public url: %w", err)
	}
	if u.Scheme != "https" {
		return "", fmt.Errorf("automatic TLS needs an https public url, got %q", publicURL)
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case host == "":
		return "", fmt.Errorf("public url %q has no host", publicURL)
	case host == "localhost" || strings.HasSuffix(host, ".localhost"):
		return "", fmt.Errorf("cannot obtain a certificate for %s", host)
	case net.ParseIP(host) != nil:
		return "", fmt.Errorf("automatic TLS needs a DNS name, got address %s", host)
	case !strings.Contains(host, "."):
		return "", fmt.Errorf("cannot obtain a certificate for unqualified host %s", host)
	}
	return host, nil
}

// NewManager creates a Manager and issuer for domain. Certificates are not
// requested until Manage is called.
func NewManager(domain, email string, db *sql.DB, staging bool, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	SetLogger(logger)

	hostname, _ := os.Hostname()
	storage, err := certmagicsqlite.NewWithDB(db, certmagicsqlite.WithOwnerID(hostname))
	if err != nil {
		return nil, fmt.Errorf("create certmagic storage: %w", err)
	}

	cfg := certmagic.NewDefault()
	cfg.Storage = storage
	cfg.Logger = logger

	issuer := certmagic.NewACMEIssuer(cfg, certmagic.ACMEIssuer{
		CA:                      caURL(staging),
		Email:                   email,
		Agreed:                  true,
		DisableTLSALPNChallenge: true,
		Logger:                  logger,
	})
	cfg.Issuers = []certmagic.Issuer{issuer}

	return &Manager{
		Domain:  domain,
		Email:   email,
		Staging: staging,
		DB:      db,
		Logger:  logger,
		config:  cfg,
		issuer:  issuer,
	}, nil
}

func caURL(staging bool) string {
	if staging {
		return certmagic.LetsEncryptStagingCA
	}
	return certmagic.LetsEncryptProductionCA
}

// HTTPHandler answers HTTP-01 challenges and redirects every other request
// to the https origin. It must be reachable on port 80 of Domain.
func (m *Manager) HTTPHandler() http.Handler {
	return m.issuer.HTTPChallengeHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := "https://" + m.Domain + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	}))
}

// Manage obtains the certificate for Domain, blocking until it is available,
// and keeps it renewed in the background.
// The HTTPHandler server should be started first.
func (m *Manager) Manage(ctx context.Context) error {
	if err := m.config.ManageSync(ctx, []string{m.Domain}); err != nil {
		return fmt.Errorf("manage certificate for %s: %w", m.Domain, err)
	}
	return nil
}

// TLSConfig returns a TLS configuration that serves the managed certificate.
func (m *Manager) TLSConfig() *tls.Config {
	tc := m.config.TLSConfig()
	tc.NextProtos = withProtos(tc.NextProtos, "h2", "http/1.1")
	return tc
}

// withProtos puts protos ahead of existing, skipping any already present.
func withProtos(existing []string, protos ...string) []string {
	out := make([]string, 0, len(existing)+len(protos))
	for _, p := range protos {
		if !slices.Contains(existing, p) {
			out = append(out, p)
		}
	}
	return append(out, existing...)
}
