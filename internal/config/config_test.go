package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	os.Clearenv()
	t.Setenv("BOT_TOKEN", "test_bot_token")
	t.Setenv("GEMINI_API_KEY", "test_key")
	t.Setenv("SUPER_ADMIN_TELEGRAM_ID", "12345")
	t.Setenv("DEFAULT_GROUP_CODE", "canyon")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.BotToken != "test_bot_token" {
		t.Errorf("BotToken = %q, want %q", cfg.BotToken, "test_bot_token")
	}
	if cfg.StorageDriver != StorageMemory {
		t.Errorf("StorageDriver = %q, want %q", cfg.StorageDriver, StorageMemory)
	}
	if cfg.UsePostgres() {
		t.Error("UsePostgres() = true, want false")
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Errorf("GeminiModel = %q, want default", cfg.GeminiModel)
	}
	if cfg.DefaultGroupCode != "CANYON" {
		t.Errorf("DefaultGroupCode = %q, want %q", cfg.DefaultGroupCode, "CANYON")
	}
	if cfg.SuperAdminTgID != 12345 {
		t.Errorf("SuperAdminTgID = %d, want 12345", cfg.SuperAdminTgID)
	}
	if !cfg.SeedDemoData {
		t.Error("SeedDemoData = false, want true by default")
	}
	if cfg.GetAITimeout() != 30*time.Second {
		t.Errorf("GetAITimeout() = %v, want 30s", cfg.GetAITimeout())
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "Missing BOT_TOKEN",
			envVars: map[string]string{},
		},
		{
			name: "Postgres without DB_PASSWORD",
			envVars: map[string]string{
				"BOT_TOKEN":      "token",
				"STORAGE_DRIVER": "postgres",
			},
		},
		{
			name: "Unknown storage driver",
			envVars: map[string]string{
				"BOT_TOKEN":      "token",
				"STORAGE_DRIVER": "redis",
			},
		},
		{
			name: "Bad super admin ID",
			envVars: map[string]string{
				"BOT_TOKEN":               "token",
				"SUPER_ADMIN_TELEGRAM_ID": "admin",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			if _, err := LoadConfig(); err == nil {
				t.Error("LoadConfig() expected error, got nil")
			}
		})
	}
}

func TestLoadConfig_Postgres(t *testing.T) {
	os.Clearenv()
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("SEED_DEMO_DATA", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !cfg.UsePostgres() {
		t.Error("UsePostgres() = false, want true")
	}
	if cfg.SeedDemoData {
		t.Error("SeedDemoData = true, want false")
	}
	want := "host=localhost port=5432 user=apex password=secret dbname=apex_rides sslmode=disable"
	if got := cfg.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}

func TestValidateProductionSecurity(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BotToken:         "token",
			StorageDriver:    StoragePostgres,
			DBPassword:       "password",
			DBSSLMode:        "require",
			DefaultGroupCode: "COFFEE",
			AITimeoutSeconds: 30,
			SuperAdminTgID:   12345,
			AppEnv:           "production",
		}
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		shouldErr bool
	}{
		{name: "Valid production config", mutate: func(c *Config) {}},
		{name: "Development skips checks", mutate: func(c *Config) { c.AppEnv = "development"; c.DBSSLMode = "disable" }},
		{name: "Memory storage", mutate: func(c *Config) { c.StorageDriver = StorageMemory }, shouldErr: true},
		{name: "SSL disabled", mutate: func(c *Config) { c.DBSSLMode = "disable" }, shouldErr: true},
		{name: "Demo seed on", mutate: func(c *Config) { c.SeedDemoData = true }, shouldErr: true},
		{name: "No super admin", mutate: func(c *Config) { c.SuperAdminTgID = 0 }, shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.ValidateProductionSecurity()
			if tt.shouldErr && err == nil {
				t.Error("ValidateProductionSecurity() expected error, got nil")
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("ValidateProductionSecurity() unexpected error: %v", err)
			}
		})
	}
}
