package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadServerConfig(t *testing.T) {
	t.Run("CreatesDefaults", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := LoadServerConfig(dir)
		if err != nil {
			t.Fatalf("LoadServerConfig() error = %v", err)
		}
		if *cfg != DefaultServerConfig() {
			t.Errorf("cfg = %+v, want defaults", *cfg)
		}
		if _, err := os.Stat(filepath.Join(dir, ServerConfigFile)); err != nil {
			t.Errorf("config file not created: %v", err)
		}
		again, err := LoadServerConfig(dir)
		if err != nil {
			t.Fatalf("second LoadServerConfig() error = %v", err)
		}
		if *again != *cfg {
			t.Errorf("reloaded = %+v, want %+v", *again, *cfg)
		}
	})

	t.Run("PartialFileKeepsDefaults", func(t *testing.T) {
		dir := t.TempDir()
		data := "strict_identifiers: true\nrate_limits:\n  write_rate_per_min: 5\n"
		if err := os.WriteFile(filepath.Join(dir, ServerConfigFile), []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadServerConfig(dir)
		if err != nil {
			t.Fatalf("LoadServerConfig() error = %v", err)
		}
		if !cfg.StrictIdentifiers {
			t.Error("StrictIdentifiers = false, want true")
		}
		if cfg.RateLimits.WriteRatePerMin != 5 {
			t.Errorf("WriteRatePerMin = %d, want 5", cfg.RateLimits.WriteRatePerMin)
		}
		if cfg.RateLimits.ReadRatePerMin != DefaultRateLimits().ReadRatePerMin {
			t.Errorf("ReadRatePerMin = %d, want default", cfg.RateLimits.ReadRatePerMin)
		}
		if cfg.MaxRequestBodyBytes != DefaultServerConfig().MaxRequestBodyBytes {
			t.Errorf("MaxRequestBodyBytes = %d, want default", cfg.MaxRequestBodyBytes)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		tests := []struct {
			name string
			data string
		}{
			{"negative body", "max_request_body_bytes: -1\n"},
			{"negative rate", "rate_limits:\n  read_rate_per_min: -3\n"},
			{"not yaml", "max_request_body_bytes: [\n"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				dir := t.TempDir()
				if err := os.WriteFile(filepath.Join(dir, ServerConfigFile), []byte(tt.data), 0o600); err != nil {
					t.Fatal(err)
				}
				if _, err := LoadServerConfig(dir); err == nil {
					t.Error("expected error")
				}
			})
		}
	})
}
