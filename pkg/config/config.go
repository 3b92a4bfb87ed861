package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Password  PasswordConfig
	Messaging MessagingConfig
	SMS       SMSConfig
	Email     EmailConfig
	Stripe    StripeConfig
	RateLimit AuthRateLimitConfig
	Flags     FlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"QUAIDIRECT_APP_ENV" required:"true"`
	Port         string `envconfig:"QUAIDIRECT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"QUAIDIRECT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QUAIDIRECT_LOG_WARN_STACK" default:"false"`
	SignupLink   string `envconfig:"QUAIDIRECT_SIGNUP_LINK" default:"https://quaidirect.fr/inscription"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"QUAIDIRECT_DB_DSN"`
	Driver string `envconfig:"QUAIDIRECT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"QUAIDIRECT_DB_HOST"`
	Port     int    `envconfig:"QUAIDIRECT_DB_PORT" default:"5432"`
	User     string `envconfig:"QUAIDIRECT_DB_USER"`
	Password string `envconfig:"QUAIDIRECT_DB_PASSWORD"`
	Name     string `envconfig:"QUAIDIRECT_DB_NAME"`
	SSLMode  string `envconfig:"QUAIDIRECT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QUAIDIRECT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QUAIDIRECT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QUAIDIRECT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QUAIDIRECT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"QUAIDIRECT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"QUAIDIRECT_REDIS_ADDR"`
	Password     string        `envconfig:"QUAIDIRECT_REDIS_PASSWORD"`
	DB           int           `envconfig:"QUAIDIRECT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QUAIDIRECT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QUAIDIRECT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QUAIDIRECT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QUAIDIRECT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QUAIDIRECT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"QUAIDIRECT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"QUAIDIRECT_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"QUAIDIRECT_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"QUAIDIRECT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"QUAIDIRECT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"QUAIDIRECT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"QUAIDIRECT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"QUAIDIRECT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"QUAIDIRECT_ARGON_KEY_LEN" default:"32"`
}

type MessagingConfig struct {
	LeaseTTL         time.Duration `envconfig:"QUAIDIRECT_MESSAGING_LEASE_TTL" default:"2m"`
	LogRetentionDays int           `envconfig:"QUAIDIRECT_MESSAGING_LOG_RETENTION_DAYS" default:"365"`
}

type SMSConfig struct {
	AccountID string `envconfig:"QUAIDIRECT_SMS_ACCOUNT_ID"`
	APIKey    string `envconfig:"QUAIDIRECT_SMS_API_KEY"`
	From      string `envconfig:"QUAIDIRECT_SMS_FROM"`
	BaseURL   string `envconfig:"QUAIDIRECT_SMS_BASE_URL" default:"https://api.twilio.com"`
}

// Configured reports whether the SMS gateway credentials are present.
func (s SMSConfig) Configured() bool {
	return strings.TrimSpace(s.AccountID) != "" &&
		strings.TrimSpace(s.APIKey) != "" &&
		strings.TrimSpace(s.From) != ""
}

type EmailConfig struct {
	APIKey      string `envconfig:"QUAIDIRECT_EMAIL_API_KEY"`
	DefaultFrom string `envconfig:"QUAIDIRECT_EMAIL_FROM" default:"bonjour@quaidirect.fr"`
	BaseURL     string `envconfig:"QUAIDIRECT_EMAIL_BASE_URL" default:"https://api.sendgrid.com"`
}

// Configured reports whether the email provider credentials are present.
func (e EmailConfig) Configured() bool {
	return strings.TrimSpace(e.APIKey) != ""
}

type StripeConfig struct {
	APIKey string `envconfig:"QUAIDIRECT_STRIPE_API_KEY"`
	Secret string `envconfig:"QUAIDIRECT_STRIPE_SECRET"`
	Env    string `envconfig:"QUAIDIRECT_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"QUAIDIRECT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"QUAIDIRECT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"QUAIDIRECT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"QUAIDIRECT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"QUAIDIRECT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"QUAIDIRECT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FlagsConfig struct {
	UseSQLite   bool `envconfig:"QUAIDIRECT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"QUAIDIRECT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
