package logging

import "testing"

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewFormats(t *testing.T) {
	for _, format := range []string{"", "json", "console", "CONSOLE"} {
		logger, err := New(Config{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("New(%q) failed: %v", format, err)
		}
		if logger == nil {
			t.Fatalf("New(%q) returned nil logger", format)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("BIPAGEM_LOG_LEVEL", "warn")
	t.Setenv("BIPAGEM_LOG_FORMAT", "")

	cfg := FromEnv()
	if cfg.Level != "warn" {
		t.Errorf("level = %q, want warn", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("format = %q, want json default", cfg.Format)
	}
}
