package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Environment is the deployment mode.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Config is the process-wide configuration loaded from the environment.
type Config struct {
	Environment Environment

	Port string
	Host string

	AllowedOrigins []string

	APITimeout          time.Duration
	FrontendTimeoutMS   int
	ConnectivityTimeout int

	CacheTTL time.Duration

	MMDBPath string

	// Provider credentials. Each may hold a comma-separated list of keys.
	IPQSKey           string
	AbuseIPDBKey      string
	IP2LocationKey    string
	IPInfoToken       string
	CloudflareAPIToken string

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	RedisURL       string
	PersistentCachePath string
	MySQLDSN       string

	DebugKey string
}

// LoadEnvFiles loads .env/.env.local into the process environment if present.
// Missing files are not an error; this is a development convenience only.
func LoadEnvFiles(log *logrus.Logger) {
	for _, file := range []string{".env", ".env.local"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil && log != nil {
			log.WithError(err).WithField("file", file).Warn("failed to load env file")
		}
	}
}

// Load reads configuration from the process environment, applying the
// defaults and coercions spec §6.2 requires.
func Load() *Config {
	cfg := &Config{
		Environment: Environment(envOr("ENVIRONMENT", string(EnvProduction))),
		Port:        envOr("PORT", "8080"),
		Host:        envOr("HOST", "0.0.0.0"),

		APITimeout:          clampDuration(envIntMS("API_TIMEOUT_MS", 5000), 1000),
		FrontendTimeoutMS:   envInt("FRONTEND_TIMEOUT_MS", 5000),
		ConnectivityTimeout: envInt("CONNECTIVITY_TIMEOUT_MS", 5000),

		CacheTTL: coerceCacheTTL(envInt("CACHE_TTL_SECONDS", 900)),

		MMDBPath: envOr("MMDB_PATH", ""),

		IPQSKey:            os.Getenv("IPQS_KEY"),
		AbuseIPDBKey:       os.Getenv("ABUSEIPDB_KEY"),
		IP2LocationKey:     os.Getenv("IP2LOCATION_KEY"),
		IPInfoToken:        os.Getenv("IPINFO_TOKEN"),
		CloudflareAPIToken: os.Getenv("CLOUDFLARE_API_TOKEN"),

		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMBaseURL: os.Getenv("LLM_BASE_URL"),
		LLMModel:   envOr("LLM_MODEL", "gpt-3.5-turbo"),

		RedisURL:            os.Getenv("REDIS_URL"),
		PersistentCachePath: os.Getenv("SQLITE_CACHE_PATH"),
		MySQLDSN:            os.Getenv("MYSQL_DSN"),

		DebugKey: os.Getenv("DEBUG_KEY"),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg
}

// LLMTimeout is 3x the API timeout, per spec §4.8/§9 ("Timeouts").
func (c *Config) LLMTimeout() time.Duration {
	return c.APITimeout * 3
}

// SplitKeys parses a provider credential env value into an ordered key list.
// Accepts a comma-separated string; blank entries are dropped.
func SplitKeys(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envIntMS(key string, def int) int {
	return envInt(key, def)
}

func clampDuration(ms, minMS int) time.Duration {
	if ms < minMS {
		ms = minMS
	}
	return time.Duration(ms) * time.Millisecond
}

// coerceCacheTTL enforces the 60s floor documented in spec §6.2: values
// below 60 are coerced back to the 900s default rather than clamped up,
// matching the legacy behavior being preserved.
func coerceCacheTTL(seconds int) time.Duration {
	if seconds < 60 {
		seconds = 900
	}
	return time.Duration(seconds) * time.Second
}
