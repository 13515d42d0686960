package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetenv(t, "PORT", "BIPAGEM_DB", "BIPAGEM_PUBLIC_URL", "BIPAGEM_HTTP_TIMEOUT", "BIPAGEM_FIXTURES",
		"BIPAGEM_ML_CLIENT_ID", "BIPAGEM_ML_CLIENT_SECRET")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, 5000, cfg.Port)
	require.Equal(t, "bipagem.db", cfg.DBPath)
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.True(t, cfg.Fixtures)
	require.False(t, cfg.MercadoLivre.Complete())
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "BIPAGEM_PUBLIC_URL=https://bipagem.example.com/\n" +
		"BIPAGEM_ML_CLIENT_ID=ml-id\n" +
		"BIPAGEM_ML_CLIENT_SECRET=ml-secret\n" +
		"BIPAGEM_HTTP_TIMEOUT=3s\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// godotenv never overrides variables that are already set.
	unsetenv(t, "BIPAGEM_PUBLIC_URL", "BIPAGEM_ML_CLIENT_ID", "BIPAGEM_ML_CLIENT_SECRET", "BIPAGEM_HTTP_TIMEOUT")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	require.Equal(t, "https://bipagem.example.com", cfg.PublicURL)
	require.Equal(t, "https://bipagem.example.com/oauth/callback/mercadolivre", cfg.CallbackURL("mercadolivre"))
	require.True(t, cfg.MercadoLivre.Complete())
	require.Equal(t, "ml-id", cfg.MercadoLivre.ClientID)
	require.Equal(t, 3*time.Second, cfg.HTTPTimeout)
}

func TestLoadRejectsInvalidPublicURL(t *testing.T) {
	t.Setenv("BIPAGEM_PUBLIC_URL", "not a url")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.normalize())
	require.Equal(t, "http://localhost:5000/oauth/callback/loja_integrada", cfg.CallbackURL("loja_integrada"))
}

func TestLoadAutoTLS(t *testing.T) {
	unsetenv(t, "BIPAGEM_TLS_CERT", "BIPAGEM_TLS_KEY", "BIPAGEM_ACME_HTTP_PORT")
	t.Setenv("BIPAGEM_PUBLIC_URL", "https://bipagem.example.com")
	t.Setenv("BIPAGEM_AUTO_TLS", "true")
	t.Setenv("BIPAGEM_ACME_EMAIL", "ops@example.com")
	t.Setenv("PORT", "443")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.True(t, cfg.AutoTLS)
	require.False(t, cfg.ACMEStaging)
	require.Equal(t, 80, cfg.ACMEHTTPPort)
	require.Equal(t, "ops@example.com", cfg.ACMEEmail)
}

func TestAutoTLSConflicts(t *testing.T) {
	cfg := Default()
	cfg.AutoTLS = true
	cfg.Port = 443
	require.NoError(t, cfg.normalize())

	cfg.TLSCertFile = "cert.pem"
	require.Error(t, cfg.normalize())

	cfg.TLSCertFile = ""
	cfg.Port = 80
	require.Error(t, cfg.normalize())
}
