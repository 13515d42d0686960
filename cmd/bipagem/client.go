package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/client"
)

type clientConfig struct {
	adminKey string
	apiURL   string
	timeout  time.Duration
}

func addClientFlags(cmd *cobra.Command, cfg *clientConfig) {
	apiURL := os.Getenv("BIPAGEM_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:5000"
	}
	cmd.Flags().StringVar(&cfg.adminKey, "admin-key", os.Getenv("BIPAGEM_ADMIN_KEY"), "admin key for credential setup")
	cmd.Flags().StringVar(&cfg.apiURL, "api-url", apiURL, "API server URL")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", 15*time.Second, "request timeout")
}

func (cfg *clientConfig) newClient() (*client.Client, error) {
	if cfg.apiURL == "" {
		return nil, fmt.Errorf("API URL required (use --api-url flag or BIPAGEM_API_URL env var)")
	}
	c := client.NewClient(cfg.apiURL, cfg.adminKey)
	c.HTTPClient = &http.Client{Timeout: cfg.timeout}
	return c, nil
}
