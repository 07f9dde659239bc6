package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Effective is the merged result of file, environment and flags, carried
// through app wiring so components see one consistent view.
type Effective struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // "file", "file+env", "env", "flags"
}

// Load reads and decodes a YAML config file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseCommandFlags defines and parses command-line flags and returns their
// values along with a map indicating which flags were explicitly set.
func ParseCommandFlags() (addr string, dbPath string, cfgPath string, setFlags map[string]bool) {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *addrPtr, *dbPtr, *cfgPtr, setFlags
}

// ResolveConfigPath decides the config file path using the flag-provided
// value and the environment variable MEDIADEX_CONFIG when the flag was not
// set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("MEDIADEX_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

// LoadEnvOverrides applies MEDIADEX_* environment overrides onto cfg and
// reports whether any env var was used.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false
	parseList := func(v string) []string {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	if v := os.Getenv("MEDIADEX_ADDRESS"); v != "" {
		envUsed = true
		cfg.Server.Address = v
	}
	if v := os.Getenv("MEDIADEX_PORT"); v != "" {
		if pi, err := strconv.Atoi(v); err == nil {
			envUsed = true
			cfg.Server.Port = pi
		}
	}
	if v := os.Getenv("MEDIADEX_DB_PATH"); v != "" {
		envUsed = true
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("MEDIADEX_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			envUsed = true
			cfg.Search.PageSize = n
		}
	}
	if v := os.Getenv("MEDIADEX_SESSION_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			envUsed = true
			cfg.Search.SessionCapacity = n
		}
	}
	if v := os.Getenv("MEDIADEX_INDEX_CAPTIONS"); v != "" {
		envUsed = true
		vl := strings.ToLower(strings.TrimSpace(v))
		cfg.Search.IndexCaptions = vl == "1" || vl == "true" || vl == "yes"
	}
	if v := os.Getenv("MEDIADEX_EXPIRY_INTERVAL"); v != "" {
		var d Duration
		if err := yaml.Unmarshal([]byte(strconv.Quote(v)), &d); err == nil {
			envUsed = true
			cfg.Entitlement.Interval = d
			cfg.Entitlement.Enabled = true
		}
	}
	if v := os.Getenv("MEDIADEX_EXPIRY_CRON"); v != "" {
		envUsed = true
		cfg.Entitlement.Cron = v
		cfg.Entitlement.Enabled = true
	}
	if v := os.Getenv("MEDIADEX_API_ADMIN_KEYS"); v != "" {
		envUsed = true
		cfg.Security.APIKeys.Admin = parseList(v)
	}
	if v := os.Getenv("MEDIADEX_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("MEDIADEX_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("MEDIADEX_LOG_LEVEL"); v != "" {
		envUsed = true
		cfg.Logging.Level = v
	}
	return envUsed
}

// LoadEffective loads the config file (missing file yields defaults) and
// applies environment overrides.
func LoadEffective(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err != nil {
		cfg = &Config{}
	}
	envUsed := LoadEnvOverrides(cfg)
	return cfg, envUsed, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Search.PageSize < 0 {
		return fmt.Errorf("search.page_size must not be negative")
	}
	if c.Search.SessionCapacity < 0 {
		return fmt.Errorf("search.session_capacity must not be negative")
	}
	if c.Entitlement.Interval.Duration() < 0 {
		return fmt.Errorf("entitlement.interval must not be negative")
	}
	if c.Security.RateLimit.RPS < 0 {
		return fmt.Errorf("security.rate_limit.rps must not be negative")
	}
	return nil
}
