package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config собирается один раз при старте и передаётся в конструкторы клиентов.
type Config struct {
	DatabaseURL string
	RedisAddr   string // пусто: без ограничения попыток входа
	HTTPAddr    string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string
	Release     string
	Location    *time.Location

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	SignupEnabled     bool
	SignInMaxAttempts int
	SignInWindow      time.Duration

	StoreTimeout      time.Duration
	StorePingInterval time.Duration
	SessionIdleTTL    time.Duration

	// Уведомления о новых школах в Telegram; пустой токен: выключено.
	BotToken string
	AdminIDs []int64
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Africa/Cairo")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	adminIDs, err := parseIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS: %w", err)
	}
	signup, err := getenvBool("SIGNUP_ENABLED", true)
	if err != nil {
		return nil, err
	}
	attempts, err := getenvInt("SIGNIN_MAX_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Env:         getenv("ENV", "dev"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Release:     getenv("RELEASE", "dev"),
		Location:    loc,

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: getenv("JWT_ISSUER", "school-portal"),
		TokenTTL:  getenvDuration("TOKEN_TTL", 24*time.Hour),

		SignupEnabled:     signup,
		SignInMaxAttempts: attempts,
		SignInWindow:      getenvDuration("SIGNIN_WINDOW", 15*time.Minute),

		StoreTimeout:      getenvDuration("STORE_TIMEOUT", 5*time.Second),
		StorePingInterval: getenvDuration("STORE_PING_INTERVAL", 30*time.Second),
		SessionIdleTTL:    getenvDuration("SESSION_IDLE_TTL", 2*time.Hour),

		BotToken: os.Getenv("BOT_TOKEN"),
		AdminIDs: adminIDs,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("required env DATABASE_URL is empty")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("required env JWT_SECRET is empty")
	}
	if c.SignInMaxAttempts < 1 {
		return fmt.Errorf("SIGNIN_MAX_ATTEMPTS must be positive, got %d", c.SignInMaxAttempts)
	}
	for name, d := range map[string]time.Duration{
		"TOKEN_TTL":           c.TokenTTL,
		"SIGNIN_WINDOW":       c.SignInWindow,
		"STORE_TIMEOUT":       c.StoreTimeout,
		"STORE_PING_INTERVAL": c.StorePingInterval,
		"SESSION_IDLE_TTL":    c.SessionIdleTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getenvDuration понимает "15m" и, как запасной вариант, KEY_SECONDS.
func getenvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	if v := os.Getenv(k + "_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

func getenvBool(k string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}

func getenvInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
