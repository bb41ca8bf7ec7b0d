package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/random"
)

// Config is the complete service configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Redis    RedisConfig    `toml:"redis"`
	Minio    MinioConfig    `toml:"minio"`
	Assets   AssetsConfig   `toml:"assets"`
	Invoices InvoicesConfig `toml:"invoices"`
}

type ServerConfig struct {
	Port           int      `toml:"port"`
	Environment    string   `toml:"environment"`
	RequestTimeout Duration `toml:"request_timeout"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL         string   `toml:"url"`
	MaxConns    int32    `toml:"max_conns"`
	ConnTimeout Duration `toml:"conn_timeout"`
}

type AuthConfig struct {
	JWTSecret        string   `toml:"jwt_secret"`
	AccessTokenTTL   Duration `toml:"access_token_ttl"`
	RefreshTokenTTL  Duration `toml:"refresh_token_ttl"`
	LoginMaxAttempts int      `toml:"login_max_attempts"`
	LoginWindow      Duration `toml:"login_window"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type MinioConfig struct {
	Endpoint   string   `toml:"endpoint"`
	AccessKey  string   `toml:"access_key"`
	SecretKey  string   `toml:"secret_key"`
	UseSSL     bool     `toml:"use_ssl"`
	Region     string   `toml:"region"`
	Bucket     string   `toml:"bucket"`
	PresignTTL Duration `toml:"presign_ttl"`
}

// AssetsConfig controls downloads of seller logos and signatures
type AssetsConfig struct {
	FetchTimeout Duration `toml:"fetch_timeout"`
	MaxBytes     int64    `toml:"max_bytes"`
	CacheTTL     Duration `toml:"cache_ttl"`
}

type InvoicesConfig struct {
	// SequenceBackend is "postgres" or "memory"
	SequenceBackend string   `toml:"sequence_backend"`
	DefaultDueDays  int      `toml:"default_due_days"`
	OverdueInterval Duration `toml:"overdue_interval"`
	QRSize          int      `toml:"qr_size"`
	SellerCacheTTL  Duration `toml:"seller_cache_ttl"`
}

// Duration decodes TOML strings such as "8s" or "15m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

const (
	SequencePostgres = "postgres"
	SequenceMemory   = "memory"
)

// Default returns the configuration used when no file or variable overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Environment:    "development",
			RequestTimeout: Duration{30 * time.Second},
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			MaxConns:    10,
			ConnTimeout: Duration{5 * time.Second},
		},
		Auth: AuthConfig{
			AccessTokenTTL:   Duration{15 * time.Minute},
			RefreshTokenTTL:  Duration{7 * 24 * time.Hour},
			LoginMaxAttempts: 5,
			LoginWindow:      Duration{15 * time.Minute},
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Minio: MinioConfig{
			Endpoint:   "localhost:9000",
			AccessKey:  "minioadmin",
			SecretKey:  "minioadmin",
			Region:     "us-east-1",
			Bucket:     "invoices",
			PresignTTL: Duration{24 * time.Hour},
		},
		Assets: AssetsConfig{
			FetchTimeout: Duration{8 * time.Second},
			MaxBytes:     2 << 20,
			CacheTTL:     Duration{time.Hour},
		},
		Invoices: InvoicesConfig{
			SequenceBackend: SequencePostgres,
			DefaultDueDays:  15,
			OverdueInterval: Duration{time.Hour},
			QRSize:          256,
			SellerCacheTTL:  Duration{5 * time.Minute},
		},
	}
}

// Load builds the configuration from defaults, an optional .env file, an
// optional TOML file and finally environment variables. An empty path skips
// the TOML file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.Auth.JWTSecret = random.String(32)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Minio.Bucket, "MINIO_BUCKET")
	setString(&c.Server.Environment, "APP_ENV")
	setString(&c.Invoices.SequenceBackend, "SEQUENCE_BACKEND")

	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		c.Minio.UseSSL = strings.EqualFold(v, "true")
	}
	if err := setInt(&c.Server.Port, "PORT"); err != nil {
		return err
	}
	return setInt(&c.Redis.DB, "REDIS_DB")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(c.Server.Port > 0 && c.Server.Port < 65536, "server.port must be between 1 and 65535")
	check(c.Server.RequestTimeout.Duration > 0, "server.request_timeout must be positive")
	check(c.Auth.JWTSecret != "", "auth.jwt_secret is required outside development")
	check(c.Auth.AccessTokenTTL.Duration > 0, "auth.access_token_ttl must be positive")
	check(c.Auth.RefreshTokenTTL.Duration > 0, "auth.refresh_token_ttl must be positive")
	check(c.Auth.LoginMaxAttempts > 0, "auth.login_max_attempts must be positive")
	check(c.Assets.FetchTimeout.Duration > 0, "assets.fetch_timeout must be positive")
	check(c.Assets.MaxBytes > 0, "assets.max_bytes must be positive")
	check(c.Invoices.DefaultDueDays >= 0, "invoices.default_due_days must not be negative")
	check(c.Invoices.OverdueInterval.Duration > 0, "invoices.overdue_interval must be positive")
	check(c.Invoices.SequenceBackend == SequencePostgres || c.Invoices.SequenceBackend == SequenceMemory,
		"invoices.sequence_backend must be postgres or memory")
	check(c.Database.URL != "", "database.url is required")

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
