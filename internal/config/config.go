package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	DB   int    `mapstructure:"db"`
}

type NATSConfig struct {
	URL                  string `mapstructure:"url"`
	CommandSubjectPrefix string `mapstructure:"command_subject_prefix"`
	NoticeSubjectPrefix  string `mapstructure:"notice_subject_prefix"`
	EventsSubject        string `mapstructure:"events_subject"`
	QueueGroup           string `mapstructure:"queue_group"`
	Workers              int    `mapstructure:"workers"`
	QueueSize            int    `mapstructure:"queue_size"`
}

type APIConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Port       int    `mapstructure:"port"`
	AdminToken string `mapstructure:"admin_token"`
}

type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type StoreConfig struct {
	Provider string `mapstructure:"provider"`
}

type ProposalsConfig struct {
	Provider  string        `mapstructure:"provider"`
	Retention time.Duration `mapstructure:"retention"`
}

type TradeConfig struct {
	AdvisoryAfter           time.Duration `mapstructure:"advisory_after"`
	CancelAdvisoryOnResolve bool          `mapstructure:"cancel_advisory_on_resolve"`
}

type RewardsConfig struct {
	DropCooldown time.Duration `mapstructure:"drop_cooldown"`
	LuckCooldown time.Duration `mapstructure:"luck_cooldown"`
	MaxDraws     int           `mapstructure:"max_draws"`
}

type NotifyConfig struct {
	PoolSize  int `mapstructure:"pool_size"`
	QueueSize int `mapstructure:"queue_size"`
}

type Config struct {
	Debug       bool            `mapstructure:"debug"`
	SentryDSN   string          `mapstructure:"sentry_dsn"`
	CatalogPath string          `mapstructure:"catalog_path"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	NATS        NATSConfig      `mapstructure:"nats"`
	API         APIConfig       `mapstructure:"api"`
	GRPC        GRPCConfig      `mapstructure:"grpc"`
	Store       StoreConfig     `mapstructure:"store"`
	Proposals   ProposalsConfig `mapstructure:"proposals"`
	Trade       TradeConfig     `mapstructure:"trade"`
	Rewards     RewardsConfig   `mapstructure:"rewards"`
	Notify      NotifyConfig    `mapstructure:"notify"`
}

const (
	ProviderPostgres = "postgres"
	ProviderRedis    = "redis"
	ProviderMemory   = "memory"
)

var keys = []string{
	"debug", "sentry_dsn", "catalog_path",
	"database.host", "database.port", "database.user", "database.password",
	"database.dbname", "database.sslmode", "database.max_conns",
	"redis.host", "redis.port", "redis.db",
	"nats.url", "nats.command_subject_prefix", "nats.notice_subject_prefix",
	"nats.events_subject", "nats.queue_group", "nats.workers", "nats.queue_size",
	"api.enabled", "api.port", "api.admin_token",
	"grpc.enabled", "grpc.port",
	"store.provider",
	"proposals.provider", "proposals.retention",
	"trade.advisory_after", "trade.cancel_advisory_on_resolve",
	"rewards.drop_cooldown", "rewards.luck_cooldown", "rewards.max_draws",
	"notify.pool_size", "notify.queue_size",
}

// New loads configuration from .env, an optional YAML file and MOTORVAULT_*
// environment variables, in increasing order of precedence.
// An empty configFile searches ./config.yaml and ./config/config.yaml.
func New(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config/")
	}
	v.SetEnvPrefix("MOTORVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("redis.port", 6379)
	v.SetDefault("nats.command_subject_prefix", "commands")
	v.SetDefault("nats.notice_subject_prefix", "notices")
	v.SetDefault("nats.events_subject", "economy.events")
	v.SetDefault("nats.queue_group", "motorvault")
	v.SetDefault("nats.workers", 16)
	v.SetDefault("nats.queue_size", 256)
	v.SetDefault("api.enabled", true)
	v.SetDefault("api.port", 8080)
	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.port", 50051)
	v.SetDefault("store.provider", ProviderPostgres)
	v.SetDefault("proposals.provider", ProviderRedis)
	v.SetDefault("proposals.retention", "24h")
	v.SetDefault("trade.advisory_after", "5m")
	v.SetDefault("trade.cancel_advisory_on_resolve", false)
	v.SetDefault("rewards.drop_cooldown", "30m")
	v.SetDefault("rewards.luck_cooldown", "24h")
	v.SetDefault("rewards.max_draws", 10)
	v.SetDefault("notify.pool_size", 8)
	v.SetDefault("notify.queue_size", 1024)
}

func (c *Config) validate() error {
	switch c.Store.Provider {
	case ProviderPostgres:
		if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
			return errors.New("database.host, database.user and database.dbname are required for the postgres store")
		}
	case ProviderMemory:
	default:
		return fmt.Errorf("invalid store provider %q, must be 'postgres' or 'memory'", c.Store.Provider)
	}

	switch c.Proposals.Provider {
	case ProviderRedis:
		if c.Redis.Host == "" {
			return errors.New("redis.host is required for the redis proposal store")
		}
	case ProviderMemory:
	default:
		return fmt.Errorf("invalid proposals provider %q, must be 'redis' or 'memory'", c.Proposals.Provider)
	}

	if c.API.Enabled && c.API.AdminToken == "" {
		return errors.New("api.admin_token is required when the API is enabled")
	}
	if c.Rewards.MaxDraws < 1 {
		return fmt.Errorf("rewards.max_draws must be positive, got %d", c.Rewards.MaxDraws)
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.DBName, c.Database.SSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// APIAddr returns the HTTP listen address if the API is enabled.
// Callers skip starting the HTTP server on error.
func (c *Config) APIAddr() (string, error) {
	if !c.API.Enabled {
		return "", errors.New("HTTP API is disabled")
	}
	return fmt.Sprintf(":%d", c.API.Port), nil
}

// GRPCAddr returns the health server listen address if it is enabled.
func (c *Config) GRPCAddr() (string, error) {
	if !c.GRPC.Enabled {
		return "", errors.New("gRPC server is disabled")
	}
	return fmt.Sprintf(":%d", c.GRPC.Port), nil
}
