package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		DBPath        string `yaml:"db_path"`
		DiskHighBytes uint64 `yaml:"disk_high_bytes"`
		DiskLowBytes  uint64 `yaml:"disk_low_bytes"`
	} `yaml:"storage"`
	Search struct {
		PageSize        int  `yaml:"page_size"`
		SessionCapacity int  `yaml:"session_capacity"`
		IndexCaptions   bool `yaml:"index_captions"`
		SettingsCache   int  `yaml:"settings_cache"`
	} `yaml:"search"`
	Entitlement struct {
		Enabled    bool     `yaml:"enabled"`
		Interval   Duration `yaml:"interval"`
		RetryDelay Duration `yaml:"retry_delay"`
		Cron       string   `yaml:"cron"`
	} `yaml:"entitlement"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text|json
	} `yaml:"logging"`
	Security struct {
		APIKeys struct {
			Admin []string `yaml:"admin"`
		} `yaml:"api_keys"`
		RateLimit struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"security"`
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// Duration is a wrapper around time.Duration that supports YAML parsing
// from strings like "20m" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
