package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/acme"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/auth"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/cache"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/config"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/db"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/logging"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/metrics"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/oauth"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/scanlog"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/scanner"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/server"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/sources"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/sources/fixture"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/sources/lojaintegrada"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/sources/mercadolivre"
)

var serveFlags struct {
	port    int
	dbPath  string
	envFile string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scanning API server",
	Long: `Start the HTTP API serving OAuth setup, barcode scans and reports.

Configuration is read from the environment and an optional .env file.
Marketplace credentials found in BIPAGEM_ML_* and BIPAGEM_LI_* seed the
platform registrations on first start.

With BIPAGEM_AUTO_TLS=true the host of BIPAGEM_PUBLIC_URL is served over
HTTPS with a Let's Encrypt certificate kept in the database. Port 80 (or
BIPAGEM_ACME_HTTP_PORT) must reach this process for HTTP-01 challenges.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&serveFlags.port, "port", 0, "port to listen on (overrides PORT)")
	serveCmd.Flags().StringVar(&serveFlags.dbPath, "db", "", "database path (overrides BIPAGEM_DB)")
	serveCmd.Flags().StringVar(&serveFlags.envFile, "env-file", ".env", "optional dotenv file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveFlags.envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if serveFlags.port != 0 {
		cfg.Port = serveFlags.port
	}
	if serveFlags.dbPath != "" {
		cfg.DBPath = serveFlags.dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	app, err := newApp(ctx, cfg, database, logger)
	if err != nil {
		return err
	}
	defer app.close()

	if app.purgeStates {
		purgeStates(ctx, database, time.Now(), logger)
	}

	srvCfg := server.DefaultServerConfig(":"+strconv.Itoa(cfg.Port), app.api.Handler(), logger.Named("http"))
	srvCfg.CertFile = cfg.TLSCertFile
	srvCfg.KeyFile = cfg.TLSKeyFile
	if cfg.AutoTLS {
		tlsConfig, stopChallenges, err := startAutoTLS(ctx, cfg, database, logger)
		if err != nil {
			return err
		}
		defer stopChallenges()
		srvCfg.TLSConfig = tlsConfig
	}
	return server.NewManagedServer("api", srvCfg).Run(ctx)
}

// startAutoTLS serves HTTP-01 challenges and blocks until the public host's
// certificate is available. The returned func stops the challenge server.
func startAutoTLS(ctx context.Context, cfg *config.Config, database *sql.DB, logger *zap.Logger) (*tls.Config, func(), error) {
	host, err := acme.HostFromURL(cfg.PublicURL)
	if err != nil {
		return nil, nil, fmt.Errorf("BIPAGEM_AUTO_TLS: %w", err)
	}
	manager, err := acme.NewManager(host, cfg.ACMEEmail, database, cfg.ACMEStaging, logger.Named("certmagic"))
	if err != nil {
		return nil, nil, err
	}

	challenges := server.NewManagedServer("acme-http", server.DefaultServerConfig(
		":"+strconv.Itoa(cfg.ACMEHTTPPort), manager.HTTPHandler(), logger.Named("acme-http")))
	if err := challenges.Start(); err != nil {
		return nil, nil, err
	}
	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		challenges.Shutdown(shutdownCtx)
	}

	logger.Info("starting acme certificate acquisition", zap.String("domain", host), zap.Bool("staging", cfg.ACMEStaging))
	if err := manager.Manage(ctx); err != nil {
		stop()
		return nil, nil, fmt.Errorf("acme certificate acquisition: %w", err)
	}
	logger.Info("acme certificate obtained", zap.String("domain", host))
	return manager.TLSConfig(), stop, nil
}

type app struct {
	api         *server.APIServer
	purgeStates bool
	closers     []func() error
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c()
	}
}

// newApp wires the stores, OAuth flow, source chain and scan log behind an
// APIServer.
func newApp(ctx context.Context, cfg *config.Config, database *sql.DB, logger *zap.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()
	store := db.NewStore(database)

	var states oauth.StateStore = store
	a.purgeStates = true
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		states = cache.NewRedisStateStore(client, oauth.StateTTL)
		a.purgeStates = false
		logger.Info("oauth states stored in redis")
	}

	m := metrics.New()
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	opts := oauth.Options{
		Providers:  oauth.DefaultRegistry(),
		Tokens:     store,
		Configs:    store,
		States:     states,
		HTTPClient: httpClient,
		Logger:     logger,
		Metrics:    m,
	}
	flow := oauth.NewFlow(opts)
	refresher := oauth.NewRefresher(opts)

	seeds := map[string]config.Credentials{
		mercadolivre.ID:  cfg.MercadoLivre,
		lojaintegrada.ID: cfg.LojaIntegrada,
	}
	for platform, creds := range seeds {
		if !creds.Complete() {
			continue
		}
		seeded, err := flow.Seed(ctx, platform, creds.ClientID, creds.ClientSecret, cfg.CallbackURL(platform))
		if err != nil {
			return nil, fmt.Errorf("seed %s credentials: %w", platform, err)
		}
		if seeded {
			logger.Info("platform credentials loaded from environment", logging.Platform(platform))
		}
	}

	chain := sources.NewChain(logger)
	chain.Register(mercadolivre.New(mercadolivre.Options{
		HTTPClient: httpClient,
		Tokens:     refresher,
		Logger:     logger,
		Metrics:    m,
	}))
	chain.Register(lojaintegrada.New(lojaintegrada.Options{
		HTTPClient: httpClient,
		Tokens:     refresher,
		Logger:     logger,
		Metrics:    m,
	}))
	if cfg.Fixtures {
		chain.Register(fixture.New())
	}

	log := scanlog.New(store, nil)
	a.api = &server.APIServer{
		Flow:            flow,
		Scanner:         scanner.New(chain, log, m, logger),
		Log:             log,
		Sources:         chain,
		DB:              database,
		Metrics:         m,
		Logger:          logger.Named("api"),
		CallbackURL:     cfg.CallbackURL,
		SuccessRedirect: cfg.SuccessRedirect,
	}

	if cfg.AdminKey != "" {
		key, err := auth.ParseKey(cfg.AdminKey)
		if err != nil {
			return nil, fmt.Errorf("BIPAGEM_ADMIN_KEY: %w", err)
		}
		a.api.AdminKey = &key
	}
	return a, nil
}

// purgeStates drops authorization states abandoned before the last start.
func purgeStates(ctx context.Context, database *sql.DB, now time.Time, logger *zap.Logger) {
	n, err := db.PurgeStates(ctx, database, now.Add(-oauth.StateTTL).Unix())
	if err != nil {
		logger.Warn("purge oauth states", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("purged expired oauth states", zap.Int64("count", n))
	}
}
