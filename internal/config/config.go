package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config — настройки процесса из переменных окружения.
type Config struct {
	HTTPAddr string
	OwnerID  string

	StateBackend string // json | postgres
	StateFile    string
	DatabaseURL  string

	StorefrontBaseURL string
	UserAgent         string
	RequestsPerSecond float64
	HTTPTimeout       time.Duration
	ItemDelayMin      time.Duration
	ItemDelayMax      time.Duration
	HistoryRetryDelay time.Duration
	RedeemSettleDelay time.Duration

	KeepAliveInterval time.Duration
	LoginCommand      string
	LoginTimeout      time.Duration

	DisplayLocation *time.Location

	NATSURL           string
	STANClusterID     string
	STANClientID      string
	CredentialSubject string
	OrderSubject      string

	LogLevel slog.Level
}

// Load — прочитать окружение; некорректные значения возвращаются ошибкой, а не заменяются умолчанием.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		OwnerID:           os.Getenv("OWNER_ID"),
		StateBackend:      strings.ToLower(getenvDefault("STATE_BACKEND", "json")),
		StateFile:         getenvDefault("STATE_FILE", "database.json"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		StorefrontBaseURL: strings.TrimRight(getenvDefault("STOREFRONT_BASE_URL", "https://www.smile.one"), "/"),
		UserAgent: getenvDefault("STOREFRONT_USER_AGENT",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		LoginCommand:      os.Getenv("LOGIN_COMMAND"),
		NATSURL:           os.Getenv("NATS_URL"),
		STANClusterID:     getenvDefault("STAN_CLUSTER_ID", "topup-cluster"),
		STANClientID:      os.Getenv("STAN_CLIENT_ID"),
		CredentialSubject: getenvDefault("STAN_CREDENTIAL_SUBJECT", "session.credentials"),
		OrderSubject:      getenvDefault("STAN_ORDER_SUBJECT", "orders.settled"),
	}
	if cfg.OwnerID == "" {
		return nil, fmt.Errorf("OWNER_ID is required")
	}

	var err error
	if cfg.RequestsPerSecond, err = floatEnv("STOREFRONT_RPS", 2); err != nil {
		return nil, err
	}
	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", 30 * time.Second, &cfg.HTTPTimeout},
		{"ITEM_DELAY_MIN", 2 * time.Second, &cfg.ItemDelayMin},
		{"ITEM_DELAY_MAX", 5 * time.Second, &cfg.ItemDelayMax},
		{"HISTORY_RETRY_DELAY", 2 * time.Second, &cfg.HistoryRetryDelay},
		{"REDEEM_SETTLE_DELAY", 5 * time.Second, &cfg.RedeemSettleDelay},
		{"KEEPALIVE_INTERVAL", 2 * time.Minute, &cfg.KeepAliveInterval},
		{"LOGIN_TIMEOUT", 2 * time.Minute, &cfg.LoginTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = durationEnv(d.key, d.def); err != nil {
			return nil, err
		}
	}
	if cfg.ItemDelayMax < cfg.ItemDelayMin {
		return nil, fmt.Errorf("ITEM_DELAY_MAX %s is below ITEM_DELAY_MIN %s", cfg.ItemDelayMax, cfg.ItemDelayMin)
	}

	cfg.DisplayLocation = time.FixedZone("MMT", 6*3600+30*60)
	if name := os.Getenv("DISPLAY_TZ"); name != "" {
		if cfg.DisplayLocation, err = time.LoadLocation(name); err != nil {
			return nil, fmt.Errorf("DISPLAY_TZ: %w", err)
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenvDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	switch cfg.StateBackend {
	case "json":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for STATE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("STATE_BACKEND %q: want json or postgres", cfg.StateBackend)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
