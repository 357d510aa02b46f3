package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port               string   `env:"PORT" envDefault:"8080"`
	DatabaseURL        string   `env:"DATABASE_URL"`
	DBMaxConns         int32    `env:"DB_MAX_CONNS" envDefault:"10"`
	RedisURL           string   `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	MigrationsDir      string   `env:"MIGRATIONS_DIR" envDefault:"./migrations"`
	LogFile            string   `env:"LOG_FILE" envDefault:"logs/server.log"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	TrustedProxies     []string `env:"TRUSTED_PROXIES" envSeparator:","`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	Mail               MailConfig
	Auth               AuthConfig
	Admin              AdminConfig
}

// MailConfig holds the operator mailbox used both as sender and recipient
// of contact and report notifications.
type MailConfig struct {
	Server              string `env:"MAIL_SERVER"`
	Port                int    `env:"MAIL_PORT" envDefault:"587"`
	Address             string `env:"MAIL_ADDRESS"`
	ApplicationPassword string `env:"MAIL_APPLICATION_PASSWORD"`
	Locale              string `env:"MAIL_LOCALE" envDefault:"ja"`
	SubjectPrefix       string `env:"MAIL_SUBJECT_PREFIX" envDefault:"【Topick】"`
}

func (m MailConfig) Enabled() bool {
	return m.Server != "" && m.Port != 0 && m.Address != ""
}

type AuthConfig struct {
	CodeTTL           time.Duration `env:"AUTH_CODE_TTL" envDefault:"720h"`
	MaxRedeemFailures int64         `env:"AUTH_MAX_REDEEM_FAILURES" envDefault:"10"`
	RedeemFailureTTL  time.Duration `env:"AUTH_REDEEM_FAILURE_TTL" envDefault:"15m"`
	NotifyCooldown    time.Duration `env:"NOTIFY_COOLDOWN" envDefault:"60s"`
	AuditMaxLen       int64         `env:"AUDIT_MAX_LEN" envDefault:"1000"`
}

type AdminConfig struct {
	// TokenHash is a bcrypt hash of the X-Admin-Token value.
	TokenHash string `env:"ADMIN_TOKEN_HASH"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return parse(env.Options{})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.Mail.Server = clean(cfg.Mail.Server)
	cfg.Mail.Address = clean(cfg.Mail.Address)
	cfg.Mail.ApplicationPassword = clean(cfg.Mail.ApplicationPassword)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.CodeTTL <= 0 {
		return Config{}, fmt.Errorf("AUTH_CODE_TTL must be positive")
	}
	return cfg, nil
}

func clean(val string) string {
	return strings.Trim(val, "\"' \t\r\n")
}
