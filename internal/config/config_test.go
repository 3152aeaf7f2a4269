package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvString(t *testing.T) {
	key := "TEST_ENV_STRING"
	val := "test_value"
	os.Setenv(key, val)
	defer os.Unsetenv(key)

	if got := getEnvString(key, "default"); got != val {
		t.Errorf("getEnvString() = %q, want %q", got, val)
	}

	if got := getEnvString("NON_EXISTENT", "default"); got != "default" {
		t.Errorf("getEnvString() = %q, want %q", got, "default")
	}
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_ENV_DURATION"

	tests := []struct {
		name       string
		envVal     string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"ValidDuration", "1m", time.Second, time.Minute},
		{"ValidSeconds", "60", time.Second, 60 * time.Second},
		{"Invalid", "invalid", time.Second, time.Second},
		{"Empty", "", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envVal != "" {
				os.Setenv(key, tt.envVal)
				defer os.Unsetenv(key)
			} else {
				os.Unsetenv(key)
			}

			if got := getEnvDuration(key, tt.defaultVal); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "dir")

	if err := ensureDir(path); err != nil {
		t.Fatalf("ensureDir() failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("directory was not created")
	}

	if err := ensureDir(""); err != nil {
		t.Error("ensureDir(\"\") should not error")
	}
}

func TestGetEnvPaths(t *testing.T) {
	paths := getEnvPaths()
	if len(paths) == 0 {
		t.Error("getEnvPaths() returned empty list")
	}

	// Basic check that it contains current directory
	cwd, _ := os.Getwd()
	found := false
	for _, p := range paths {
		if p == filepath.Join(cwd, ".env") {
			found = true
			break
		}
	}
	if !found {
		t.Error("getEnvPaths() missing current directory .env")
	}
}

func TestParseManagementKey(t *testing.T) {
	content := []byte(`
port: 8317
remote-management:
  allow-remote: false
  secret-key: "abc123"
`)
	if got := parseManagementKey(content); got != "abc123" {
		t.Errorf("parseManagementKey() = %q, want %q", got, "abc123")
	}
}

func TestParseManagementKey_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Empty", ""},
		{"NoSection", "port: 8317\n"},
		{"NoKey", "remote-management:\n  allow-remote: true\n"},
		{"Garbage", "{{{not yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseManagementKey([]byte(tt.content)); got != "" {
				t.Errorf("parseManagementKey() = %q, want empty", got)
			}
		})
	}
}

func TestLoadManagementKey_MissingFile(t *testing.T) {
	if got := LoadManagementKey(filepath.Join(t.TempDir(), "nope.yaml")); got != "" {
		t.Errorf("expected empty key for missing file, got %q", got)
	}
	if got := LoadManagementKey(""); got != "" {
		t.Errorf("expected empty key for empty path, got %q", got)
	}
}

func TestLoad(t *testing.T) {
	os.Setenv("CPA_MANAGEMENT_KEY", "test-key")
	defer os.Unsetenv("CPA_MANAGEMENT_KEY")

	// Use temp dir for paths to avoid permission issues
	tmpDir := t.TempDir()
	os.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "quota.db"))
	defer os.Unsetenv("DATABASE_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ManagementKey != "test-key" {
		t.Errorf("ManagementKey = %q, want %q", cfg.ManagementKey, "test-key")
	}
	if cfg.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, defaultBaseURL)
	}
	if cfg.QuotaRefreshInterval != defaultQuotaRefreshInterval {
		t.Errorf("QuotaRefreshInterval = %v, want %v", cfg.QuotaRefreshInterval, defaultQuotaRefreshInterval)
	}
}

func TestLoad_KeyFromConfigYAML(t *testing.T) {
	os.Unsetenv("CPA_MANAGEMENT_KEY")

	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "config.yaml")
	content := "remote-management:\n  secret-key: from-yaml\n"
	if err := os.WriteFile(yamlPath, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	os.Setenv("CPA_CONFIG_PATH", yamlPath)
	os.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "quota.db"))
	defer os.Unsetenv("CPA_CONFIG_PATH")
	defer os.Unsetenv("DATABASE_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.ManagementKey != "from-yaml" {
		t.Errorf("ManagementKey = %q, want from-yaml", cfg.ManagementKey)
	}
}

func TestLoad_MissingKey(t *testing.T) {
	os.Unsetenv("CPA_MANAGEMENT_KEY")

	// Point everything at an empty temp dir so no real config leaks in.
	tmpDir := t.TempDir()
	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	os.Chdir(tmpDir)

	origHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", origHome)

	if _, err := Load(); err == nil {
		t.Error("Load() should fail when the management key is missing")
	}
}

func TestLoad_WithEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	envPath := filepath.Join(tmpDir, ".env")
	content := "CPA_MANAGEMENT_KEY=env-key\nCPA_BASE_URL=http://localhost:9000"
	if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// Change working directory to tmpDir so Load finds .env
	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	os.Chdir(tmpDir)

	os.Unsetenv("CPA_MANAGEMENT_KEY")
	os.Unsetenv("CPA_BASE_URL")
	defer os.Unsetenv("CPA_MANAGEMENT_KEY")
	defer os.Unsetenv("CPA_BASE_URL")

	os.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "quota.db"))
	defer os.Unsetenv("DATABASE_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ManagementKey != "env-key" {
		t.Errorf("ManagementKey = %q, want env-key", cfg.ManagementKey)
	}
	if cfg.BaseURL != "http://localhost:9000" {
		t.Errorf("BaseURL = %q, want http://localhost:9000", cfg.BaseURL)
	}
}
