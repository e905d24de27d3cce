package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	FetchHTTP    = "http"
	FetchBrowser = "browser"
)

// ProjectedFields names the source labels copied into the projected columns.
type ProjectedFields struct {
	TopBid           string `mapstructure:"top_bid"`
	Status           string `mapstructure:"status"`
	ParticipantCount string `mapstructure:"participant_count"`
}

// Config holds the application configuration.
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	ServerPort  string `mapstructure:"server_port"`

	StoreDriver      string `mapstructure:"store_driver"`
	SQLitePath       string `mapstructure:"sqlite_path"`
	PostgresURL      string `mapstructure:"postgres_url"`
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     string `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDB       string `mapstructure:"postgres_db"`

	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	PassLockTTL   time.Duration `mapstructure:"pass_lock_ttl"`

	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout"`
	FetchMode       string        `mapstructure:"fetch_mode"`
	UserAgents      []string      `mapstructure:"user_agents"`
	Proxies         []string      `mapstructure:"proxies"`

	TelegramBotToken string        `mapstructure:"telegram_bot_token"`
	TelegramChatID   string        `mapstructure:"telegram_chat_id"`
	TelegramAPIURL   string        `mapstructure:"telegram_api_url"`
	AnnounceTimeout  time.Duration `mapstructure:"announce_timeout"`

	PushgatewayURL string `mapstructure:"pushgateway_url"`

	URLs            []string        `mapstructure:"urls"`
	TargetsFile     string          `mapstructure:"targets_file"`
	IdentityField   string          `mapstructure:"identity_field"`
	ProjectedFields ProjectedFields `mapstructure:"projected_fields"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config_file", "config.json")
	v.SetDefault("environment", EnvDevelopment)
	v.SetDefault("log_level", "info")
	v.SetDefault("server_port", "8080")

	v.SetDefault("store_driver", "")
	v.SetDefault("sqlite_path", "auction_watch.db")
	v.SetDefault("postgres_url", "")
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", "5432")
	v.SetDefault("postgres_user", "user")
	v.SetDefault("postgres_password", "password")
	v.SetDefault("postgres_db", "auction_watch")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("pass_lock_ttl", 10*time.Minute)

	v.SetDefault("max_concurrency", 4)
	v.SetDefault("page_load_timeout", 30*time.Second)
	v.SetDefault("fetch_mode", FetchHTTP)
	v.SetDefault("user_agents", []string{})
	v.SetDefault("proxies", []string{})

	v.SetDefault("telegram_bot_token", "")
	v.SetDefault("telegram_chat_id", "")
	v.SetDefault("telegram_api_url", "https://api.telegram.org")
	v.SetDefault("announce_timeout", 10*time.Second)

	v.SetDefault("pushgateway_url", "")

	v.SetDefault("urls", []string{})
	v.SetDefault("targets_file", "")
	v.SetDefault("identity_field", "ID nadmetanja")
	v.SetDefault("projected_fields.top_bid", "Iznos najviše ponude u nadmetanju")
	v.SetDefault("projected_fields.status", "Status nadmetanja")
	v.SetDefault("projected_fields.participant_count", "Broj uplatitelja jamčevine")
}

// Load reads configuration from path (or CONFIG_FILE, or config.json), an
// optional "<name>.dev<ext>" overlay next to it, and environment variables,
// in increasing order of priority. A missing base file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("config_file")
	}
	if err := readFile(v, path, false); err != nil {
		return nil, err
	}
	if err := readFile(v, devOverlayPath(path), true); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = DriverSQLite
		if cfg.Environment == EnvProduction {
			cfg.StoreDriver = DriverPostgres
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(v *viper.Viper, path string, merge bool) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	v.SetConfigFile(path)
	read := v.ReadInConfig
	if merge {
		read = v.MergeInConfig
	}
	if err := read(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func devOverlayPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".dev" + ext
}

// Validate checks option values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	switch c.FetchMode {
	case FetchHTTP, FetchBrowser:
	default:
		return fmt.Errorf("unknown fetch mode %q", c.FetchMode)
	}
	if strings.TrimSpace(c.IdentityField) == "" {
		return errors.New("identity_field must not be empty")
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be positive, got %d", c.MaxConcurrency)
	}
	return nil
}

// PostgresDSN returns POSTGRES_URL, or a URL assembled from the individual
// connection settings.
func (c *Config) PostgresDSN() string {
	if c.PostgresURL != "" {
		return c.PostgresURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     c.PostgresHost + ":" + c.PostgresPort,
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// TelegramEnabled reports whether Telegram credentials are configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}
