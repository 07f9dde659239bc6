package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

const sampleYAML = `
server:
  address: 127.0.0.1
  port: 9090
storage:
  db_path: /var/lib/mediadex
  disk_high_bytes: 1073741824
search:
  page_size: 15
  session_capacity: 500
  index_captions: true
  settings_cache: 128
entitlement:
  enabled: true
  interval: 20m
  retry_delay: 30
  cron: "*/20 * * * *"
logging:
  level: debug
  format: json
security:
  api_keys:
    admin: [k1, k2]
  rate_limit:
    rps: 2.5
    burst: 20
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9090" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
	if cfg.Storage.DBPath != "/var/lib/mediadex" {
		t.Fatalf("db path = %q", cfg.Storage.DBPath)
	}
	if cfg.Storage.DiskHighBytes != 1<<30 {
		t.Fatalf("disk high = %d", cfg.Storage.DiskHighBytes)
	}
	if cfg.Search.PageSize != 15 || !cfg.Search.IndexCaptions {
		t.Fatalf("search block: %+v", cfg.Search)
	}
	if !cfg.Entitlement.Enabled || cfg.Entitlement.Cron != "*/20 * * * *" {
		t.Fatalf("entitlement block: %+v", cfg.Entitlement)
	}
	if cfg.Entitlement.Interval.Duration() != 20*time.Minute {
		t.Fatalf("interval = %v", cfg.Entitlement.Interval.Duration())
	}
	// bare numbers parse as seconds
	if cfg.Entitlement.RetryDelay.Duration() != 30*time.Second {
		t.Fatalf("retry delay = %v", cfg.Entitlement.RetryDelay.Duration())
	}
	if len(cfg.Security.APIKeys.Admin) != 2 || cfg.Security.RateLimit.RPS != 2.5 {
		t.Fatalf("security block: %+v", cfg.Security)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("missing file should error")
	}
}

func TestLoadEffectiveMissingFileYieldsDefaults(t *testing.T) {
	cfg, envUsed, err := LoadEffective(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load effective: %v", err)
	}
	if envUsed {
		t.Fatalf("no env set, envUsed = true")
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Fatalf("default addr = %q", cfg.Addr())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MEDIADEX_PORT", "7070")
	t.Setenv("MEDIADEX_PAGE_SIZE", "25")
	t.Setenv("MEDIADEX_INDEX_CAPTIONS", "true")
	t.Setenv("MEDIADEX_API_ADMIN_KEYS", "a, b ,c")
	t.Setenv("MEDIADEX_EXPIRY_INTERVAL", "5m")

	cfg := &Config{}
	if !LoadEnvOverrides(cfg) {
		t.Fatalf("envUsed = false")
	}
	if cfg.Server.Port != 7070 || cfg.Search.PageSize != 25 {
		t.Fatalf("numeric overrides: %+v", cfg)
	}
	if !cfg.Search.IndexCaptions {
		t.Fatalf("bool override missed")
	}
	if len(cfg.Security.APIKeys.Admin) != 3 || cfg.Security.APIKeys.Admin[1] != "b" {
		t.Fatalf("admin keys = %v", cfg.Security.APIKeys.Admin)
	}
	if !cfg.Entitlement.Enabled || cfg.Entitlement.Interval.Duration() != 5*time.Minute {
		t.Fatalf("expiry override: %+v", cfg.Entitlement)
	}
}

func TestResolveConfigPath(t *testing.T) {
	if got := ResolveConfigPath("./flagged.yaml", true); got != "./flagged.yaml" {
		t.Fatalf("flag should win: %q", got)
	}
	t.Setenv("MEDIADEX_CONFIG", "/etc/mediadex.yaml")
	if got := ResolveConfigPath("./default.yaml", false); got != "/etc/mediadex.yaml" {
		t.Fatalf("env should win over default: %q", got)
	}
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration
	if err := yaml.Unmarshal([]byte(`"1h30m"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Duration() != 90*time.Minute {
		t.Fatalf("duration = %v", d.Duration())
	}
	if err := yaml.Unmarshal([]byte(`bogus`), &d); err == nil {
		t.Fatalf("bogus duration should error")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero config should validate: %v", err)
	}
	cfg.Search.PageSize = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("negative page size should fail")
	}
}
