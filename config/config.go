package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/logging"
	"github.com/spf13/viper"
)

// Store backends for player persistence.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Event transports for round and jackpot events.
const (
	EventsNone  = "none"
	EventsKafka = "kafka"
	EventsAMQP  = "amqp"
)

// Config holds all application configuration
type Config struct {
	Environment      string                 `mapstructure:"environment"`
	Server           ServerConfig           `mapstructure:"server"`
	Redis            RedisConfig            `mapstructure:"redis"`
	Postgres         PostgresConfig         `mapstructure:"postgres"`
	Kafka            KafkaConfig            `mapstructure:"kafka"`
	AMQP             AMQPConfig             `mapstructure:"amqp"`
	JWT              JWTConfig              `mapstructure:"jwt"`
	Logging          logging.Config         `mapstructure:"logging"`
	ExternalServices ExternalServicesConfig `mapstructure:"external_services"`
	Game             GameConfig             `mapstructure:"game"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	EnableCORS     bool          `mapstructure:"enable_cors"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	KeyPrefix    string `mapstructure:"key_prefix"`
}

// PostgresConfig holds Postgres connection configuration
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	Table           string        `mapstructure:"table"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers       []string          `mapstructure:"brokers"`
	ConsumerGroup string            `mapstructure:"consumer_group"`
	Topics        map[string]string `mapstructure:"topics"`
}

// Topic returns the configured topic name for a logical topic, or the
// logical name itself.
func (c *KafkaConfig) Topic(name string) string {
	if t, ok := c.Topics[name]; ok && t != "" {
		return t
	}
	return name
}

// AMQPConfig holds RabbitMQ configuration
type AMQPConfig struct {
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// ExternalServicesConfig holds external service configurations
type ExternalServicesConfig struct {
	PurchaseService ServiceConfig `mapstructure:"purchase_service"`
	AdService       ServiceConfig `mapstructure:"ad_service"`
}

// ServiceConfig holds external service configuration
type ServiceConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// Enabled reports whether the service has an address.
func (c ServiceConfig) Enabled() bool {
	return c.BaseURL != ""
}

// GameConfig selects the variant and the game's backing services.
type GameConfig struct {
	Variant        string        `mapstructure:"variant"`
	ConfigDir      string        `mapstructure:"config_dir"`
	Store          string        `mapstructure:"store"`
	Events         string        `mapstructure:"events"`
	SharedJackpot  bool          `mapstructure:"shared_jackpot"`
	IdleSessionTTL time.Duration `mapstructure:"idle_session_ttl"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// Enable environment variable substitution
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Load loads configuration from YAML file using Viper
func Load(filename string) (*Config, error) {
	cfg, _, err := LoadWithViper(filename)
	return cfg, err
}

// LoadByEnv loads configuration based on environment using Viper
func LoadByEnv(configDir string) (*Config, error) {
	v := newViper()

	// Set config search paths
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Get environment
	env := v.GetString("ENV")
	if env == "" {
		env = v.GetString("APP_ENV")
	}
	if env == "" {
		env = "development"
	}

	v.SetConfigName(fmt.Sprintf("config-%s", env))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return decode(v)
}

// LoadWithViper loads configuration and returns the viper instance for custom usage
func LoadWithViper(filename string) (*Config, *viper.Viper, error) {
	v := newViper()
	v.SetConfigFile(filename)

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// Default returns a configuration with every default applied and no file.
func Default() *Config {
	var c Config
	c.setDefaults()
	return &c
}

// setDefaults sets default values for missing configuration
func (c *Config) setDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 15 * time.Second
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 5
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "bingo"
	}
	if c.Postgres.MaxConns == 0 {
		c.Postgres.MaxConns = 10
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = time.Hour
	}
	if c.Postgres.Table == "" {
		c.Postgres.Table = "bingo_kv"
	}
	if c.AMQP.Exchange == "" {
		c.AMQP.Exchange = "bingo.events"
	}
	if c.AMQP.RoutingKey == "" {
		c.AMQP.RoutingKey = "bingo.round"
	}
	if c.JWT.Expiration == 0 {
		c.JWT.Expiration = 24 * time.Hour
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	// Service defaults
	if c.ExternalServices.PurchaseService.Timeout == 0 {
		c.ExternalServices.PurchaseService.Timeout = 10 * time.Second
	}
	if c.ExternalServices.AdService.Timeout == 0 {
		c.ExternalServices.AdService.Timeout = 5 * time.Second
	}
	if c.Game.Variant == "" {
		c.Game.Variant = "bingo47"
	}
	if c.Game.Store == "" {
		c.Game.Store = StoreMemory
	}
	if c.Game.Events == "" {
		c.Game.Events = EventsNone
	}
	if c.Game.IdleSessionTTL == 0 {
		c.Game.IdleSessionTTL = 30 * time.Minute
	}
}

// Validate checks the backend selections against the sections they need.
func (c *Config) Validate() error {
	switch c.Game.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("game.store is redis but redis.addr is empty")
		}
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("game.store is postgres but postgres.dsn is empty")
		}
	default:
		return fmt.Errorf("unknown game.store %q", c.Game.Store)
	}

	switch c.Game.Events {
	case EventsNone:
	case EventsKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("game.events is kafka but kafka.brokers is empty")
		}
	case EventsAMQP:
		if c.AMQP.URL == "" {
			return fmt.Errorf("game.events is amqp but amqp.url is empty")
		}
	default:
		return fmt.Errorf("unknown game.events %q", c.Game.Events)
	}

	if c.Game.SharedJackpot && c.Redis.Addr == "" {
		return fmt.Errorf("game.shared_jackpot requires redis.addr")
	}
	return nil
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return c.Addr
}

// IsDevelopment returns true if environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsProduction returns true if environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
