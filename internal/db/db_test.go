package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func TestOpenCreatesDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestMigrationsApplied(t *testing.T) {
	db := openTestDB(t)

	tables := []string{"schema_migrations", "oauth_tokens", "platform_configs", "oauth_states", "scans"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 2; i++ {
		db, err := Open(dbPath)
		if err != nil {
			t.Fatalf("Open #%d failed: %v", i+1, err)
		}
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("count migrations: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 applied migration, got %d", count)
		}
		_ = db.Close()
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     int
		wantErr  bool
	}{
		{"valid", "001_init.sql", 1, false},
		{"valid large", "123_add_column.sql", 123, false},
		{"missing underscore", "001.sql", 0, true},
		{"empty prefix", "_create_tables.sql", 0, true},
		{"non-numeric prefix", "abc_create_tables.sql", 0, true},
		{"empty string", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVersion(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseVersion(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("parseVersion(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestTokenLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	got, err := GetToken(ctx, db, "mercadolivre")
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no token, got %+v", got)
	}

	tok := &models.OAuthToken{
		Platform:     "mercadolivre",
		AccessToken:  "APP_USR-1",
		RefreshToken: strPtr("TG-1"),
		ExpiresAt:    int64Ptr(1_700_000_000),
		UserID:       strPtr("123456"),
		UpdatedAt:    1_699_978_400,
	}
	if err := SaveToken(ctx, db, tok); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	if err := UpdateRefreshedToken(ctx, db, "mercadolivre", "APP_USR-2", nil, int64Ptr(1_700_021_600), 1_700_000_000); err != nil {
		t.Fatalf("UpdateRefreshedToken failed: %v", err)
	}

	got, err = GetToken(ctx, db, "mercadolivre")
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if got.AccessToken != "APP_USR-2" {
		t.Errorf("access token = %q, want APP_USR-2", got.AccessToken)
	}
	if got.RefreshToken == nil || *got.RefreshToken != "TG-1" {
		t.Errorf("refresh token = %v, want TG-1 retained", got.RefreshToken)
	}
	if got.ExpiresAt == nil || *got.ExpiresAt != 1_700_021_600 {
		t.Errorf("expires_at = %v, want 1700021600", got.ExpiresAt)
	}
	if got.UserID == nil || *got.UserID != "123456" {
		t.Errorf("user id = %v, want 123456", got.UserID)
	}

	if err := UpdateRefreshedToken(ctx, db, "mercadolivre", "APP_USR-3", strPtr("TG-2"), int64Ptr(1_700_043_200), 1_700_021_600); err != nil {
		t.Fatalf("UpdateRefreshedToken failed: %v", err)
	}
	got, _ = GetToken(ctx, db, "mercadolivre")
	if got.RefreshToken == nil || *got.RefreshToken != "TG-2" {
		t.Errorf("refresh token = %v, want TG-2", got.RefreshToken)
	}
}

func TestSaveTokenReplaces(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := &models.OAuthToken{Platform: "loja_integrada", AccessToken: "a", RefreshToken: strPtr("r"), UpdatedAt: 1}
	second := &models.OAuthToken{Platform: "loja_integrada", AccessToken: "b", UpdatedAt: 2}
	if err := SaveToken(ctx, db, first); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	if err := SaveToken(ctx, db, second); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM oauth_tokens").Scan(&count); err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 token row, got %d", count)
	}

	got, _ := GetToken(ctx, db, "loja_integrada")
	if got.AccessToken != "b" || got.RefreshToken != nil {
		t.Errorf("expected full replacement, got %+v", got)
	}
}

func TestPlatformConfig(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	cfg := &models.PlatformConfig{
		Platform:     "mercadolivre",
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURI:  "https://example.com/oauth/callback/mercadolivre",
		Configured:   true,
		UpdatedAt:    10,
	}
	if err := SavePlatformConfig(ctx, db, cfg); err != nil {
		t.Fatalf("SavePlatformConfig failed: %v", err)
	}

	got, err := GetPlatformConfig(ctx, db, "mercadolivre")
	if err != nil {
		t.Fatalf("GetPlatformConfig failed: %v", err)
	}
	if *got != *cfg {
		t.Errorf("config mismatch\ngot:  %+v\nwant: %+v", got, cfg)
	}

	missing, err := GetPlatformConfig(ctx, db, "shopee")
	if err != nil {
		t.Fatalf("GetPlatformConfig failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil config, got %+v", missing)
	}
}

func TestConsumeStateOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := CreateState(ctx, db, &models.OAuthState{State: "abc", Platform: "mercadolivre", CreatedAt: 100}); err != nil {
		t.Fatalf("CreateState failed: %v", err)
	}

	st, err := ConsumeState(ctx, db, "abc")
	if err != nil {
		t.Fatalf("ConsumeState failed: %v", err)
	}
	if st == nil || st.Platform != "mercadolivre" || st.CreatedAt != 100 {
		t.Fatalf("unexpected state: %+v", st)
	}

	again, err := ConsumeState(ctx, db, "abc")
	if err != nil {
		t.Fatalf("ConsumeState failed: %v", err)
	}
	if again != nil {
		t.Errorf("expected state to be consumed, got %+v", again)
	}
}

func TestPurgeStates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_ = CreateState(ctx, db, &models.OAuthState{State: "old", Platform: "mercadolivre", CreatedAt: 100})
	_ = CreateState(ctx, db, &models.OAuthState{State: "new", Platform: "mercadolivre", CreatedAt: 500})

	n, err := PurgeStates(ctx, db, 200)
	if err != nil {
		t.Fatalf("PurgeStates failed: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d states, want 1", n)
	}
	if st, _ := ConsumeState(ctx, db, "new"); st == nil {
		t.Error("expected recent state to survive purge")
	}
}

func TestScans(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	inputs := []struct {
		platform string
		at       time.Time
	}{
		{"Mercado Livre", base},
		{"Mercado Livre", base.Add(30 * time.Second)},
		{"Loja Integrada", base.Add(2 * time.Minute)},
	}
	for i, in := range inputs {
		_, err := CreateScan(ctx, db, &models.Scan{
			Barcode:     "45061874601",
			Platform:    in.platform,
			ProductName: strPtr("Capa"),
			Price:       decimal.RequireFromString("119.90"),
			CapturedAt:  in.at.UnixMilli(),
		})
		if err != nil {
			t.Fatalf("CreateScan #%d failed: %v", i, err)
		}
	}

	recent, err := RecentScans(ctx, db, 2)
	if err != nil {
		t.Fatalf("RecentScans failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 scans, got %d", len(recent))
	}
	if recent[0].Platform != "Loja Integrada" {
		t.Errorf("expected newest scan first, got %+v", recent[0])
	}
	if !recent[0].Price.Equal(decimal.RequireFromString("119.9")) {
		t.Errorf("price = %s, want 119.90", recent[0].Price)
	}

	byDay, err := CountScansByDay(ctx, db)
	if err != nil {
		t.Fatalf("CountScansByDay failed: %v", err)
	}
	want := []models.DayCount{{Day: "2024-03-11", Count: 1}, {Day: "2024-03-10", Count: 2}}
	if len(byDay) != len(want) {
		t.Fatalf("byDay = %+v, want %+v", byDay, want)
	}
	for i := range want {
		if byDay[i] != want[i] {
			t.Errorf("byDay[%d] = %+v, want %+v", i, byDay[i], want[i])
		}
	}

	byPlatform, err := CountScansByPlatform(ctx, db)
	if err != nil {
		t.Fatalf("CountScansByPlatform failed: %v", err)
	}
	if len(byPlatform) != 2 || byPlatform[0].Platform != "Mercado Livre" || byPlatform[0].Count != 2 {
		t.Errorf("unexpected platform counts: %+v", byPlatform)
	}

	between, err := ListScansBetween(ctx, db, base.UnixMilli(), base.Add(time.Minute).UnixMilli(), "")
	if err != nil {
		t.Fatalf("ListScansBetween failed: %v", err)
	}
	if len(between) != 2 {
		t.Errorf("expected 2 scans in range, got %d", len(between))
	}

	filtered, err := ListScansBetween(ctx, db, base.UnixMilli(), base.Add(time.Hour).UnixMilli(), "Loja Integrada")
	if err != nil {
		t.Fatalf("ListScansBetween failed: %v", err)
	}
	if len(filtered) != 1 {
		t.Errorf("expected 1 filtered scan, got %d", len(filtered))
	}
}
