package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const FileEnvKey = "DESK_CONFIG_FILE"

type Config struct {
	BackendURL     string
	BackendTimeout time.Duration

	LogLevel  string
	LogFormat string

	UIPort           string
	UIRateLimitRPS   float64
	UIRateLimitBurst int
	UIMaxInFlight    int

	BreakerEnabled      bool
	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration

	WatchDir        string
	WatchExtensions []string
	WatchSettle     time.Duration

	MetricsPort     string
	MockBackendPort string

	JournalPostgresDSN string
	NATSURL            string
	NATSSubject        string
	JournalBuffer      int
}

// Load reads the configuration from the environment only.
func Load() Config {
	return build(source{})
}

// LoadFile reads a flat YAML mapping of configuration keys (BACKEND_URL,
// LOG_LEVEL, ...) and uses it as the fallback layer under the environment.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	file := make(map[string]string, len(values))
	for key, value := range values {
		if value == nil {
			continue
		}
		file[strings.ToUpper(strings.TrimSpace(key))] = scalarString(value)
	}
	return build(source{file: file}), nil
}

// Resolve uses LoadFile when DESK_CONFIG_FILE is set, Load otherwise.
func Resolve() (Config, error) {
	if path := strings.TrimSpace(os.Getenv(FileEnvKey)); path != "" {
		return LoadFile(path)
	}
	return Load(), nil
}

func build(src source) Config {
	return Config{
		BackendURL:     src.mustEnv("BACKEND_URL", "http://127.0.0.1:8000"),
		BackendTimeout: time.Duration(src.mustEnvInt("BACKEND_TIMEOUT_SECONDS", 0)) * time.Second,

		LogLevel:  src.mustEnv("LOG_LEVEL", "info"),
		LogFormat: src.mustEnv("LOG_FORMAT", ""),

		UIPort:           src.mustEnv("UI_PORT", "8090"),
		UIRateLimitRPS:   src.mustEnvFloat("UI_RATE_LIMIT_RPS", 20),
		UIRateLimitBurst: src.mustEnvInt("UI_RATE_LIMIT_BURST", 40),
		UIMaxInFlight:    src.mustEnvInt("UI_MAX_IN_FLIGHT", 32),

		BreakerEnabled:      src.mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:  src.mustEnvInt("BREAKER_MIN_REQUESTS", 5),
		BreakerFailureRatio: src.mustEnvFloat("BREAKER_FAILURE_RATIO", 0.6),
		BreakerOpenTimeout:  time.Duration(src.mustEnvInt("BREAKER_OPEN_TIMEOUT_SECONDS", 15)) * time.Second,

		WatchDir:        src.mustEnv("WATCH_DIR", "./inbox"),
		WatchExtensions: splitList(src.mustEnv("WATCH_EXTENSIONS", ".txt,.pdf,.docx")),
		WatchSettle:     time.Duration(src.mustEnvInt("WATCH_SETTLE_MILLIS", 500)) * time.Millisecond,

		MetricsPort:     src.mustEnv("METRICS_PORT", "9091"),
		MockBackendPort: src.mustEnv("MOCK_BACKEND_PORT", "8000"),

		JournalPostgresDSN: src.mustEnv("JOURNAL_POSTGRES_DSN", ""),
		NATSURL:            src.mustEnv("NATS_URL", ""),
		NATSSubject:        src.mustEnv("NATS_SUBJECT", "docdesk.actions"),
		JournalBuffer:      src.mustEnvInt("JOURNAL_BUFFER", 256),
	}
}

type source struct {
	file map[string]string
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

func (s source) mustEnv(key, fallback string) string {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	return v
}

func (s source) mustEnvInt(key string, fallback int) int {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (s source) mustEnvFloat(key string, fallback float64) float64 {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func (s source) mustEnvBool(key string, fallback bool) bool {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, part)
	}
	return out
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, fmt.Sprint(item))
		}
		return strings.Join(items, ",")
	default:
		return fmt.Sprint(v)
	}
}
