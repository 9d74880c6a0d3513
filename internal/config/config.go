package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Provider sources
const (
	SourceAdzuna   = "adzuna"
	SourceDatabase = "database"
	SourceJSearch  = "jsearch"
	// SourceFallback asks Adzuna first and the database when Adzuna fails
	SourceFallback = "adzuna+database"
	// SourceTopUp tops up short Adzuna windows from JSearch
	SourceTopUp = "adzuna+jsearch"
)

// Environment variables that override secrets from the file
const (
	EnvAdzunaAppID      = "ADZUNA_APP_ID"
	EnvAdzunaAppKey     = "ADZUNA_APP_KEY"
	EnvJSearchAPIKey    = "JSEARCH_API_KEY"
	EnvRedisURL         = "REDIS_URL"
	EnvDatabasePassword = "DATABASE_PASSWORD"
	EnvRabbitMQPassword = "RABBITMQ_PASSWORD"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Cache    CacheConfig    `yaml:"cache"`
	Provider ProviderConfig `yaml:"provider"`
	Geocode  GeocodeConfig  `yaml:"geocode"`
	Salary   SalaryConfig   `yaml:"salary"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CacheConfig holds the TTL cache settings. An empty or unreachable redis_url
// selects the in-process cache.
type CacheConfig struct {
	RedisURL         string        `yaml:"redis_url"`
	SearchTTL        time.Duration `yaml:"search_ttl"`
	AggregateTTL     time.Duration `yaml:"aggregate_ttl"`
	CacheEmptySearch bool          `yaml:"cache_empty_search"`
	// SweepSchedule is a cron spec for evicting expired local entries
	SweepSchedule string `yaml:"sweep_schedule"`
}

// ProviderConfig selects and tunes the job source
type ProviderConfig struct {
	Source    string        `yaml:"source"`
	FetchSize int           `yaml:"fetch_size"`
	Adzuna    AdzunaConfig  `yaml:"adzuna"`
	JSearch   JSearchConfig `yaml:"jsearch"`
}

// AdzunaConfig holds Adzuna API settings
type AdzunaConfig struct {
	BaseURL           string        `yaml:"base_url"`
	AppID             string        `yaml:"app_id"`
	AppKey            string        `yaml:"app_key"`
	Country           string        `yaml:"country"`
	ResultsPerPage    int           `yaml:"results_per_page"`
	MaxPages          int           `yaml:"max_pages"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// JSearchConfig holds JSearch (RapidAPI) settings
type JSearchConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Host              string        `yaml:"host"`
	MaxPages          int           `yaml:"max_pages"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// GeocodeConfig holds Nominatim settings
type GeocodeConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BaseURL           string        `yaml:"base_url"`
	UserAgent         string        `yaml:"user_agent"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	// BatchTimeout bounds the whole lookup fan-out of one heat map
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

// SalaryConfig overrides the static currency table (units of EUR per unit of currency)
type SalaryConfig struct {
	CurrencyRates map[string]float64 `yaml:"currency_rates"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds the refresh queue settings
type RabbitMQConfig struct {
	Enabled    bool             `yaml:"enabled"`
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	PrefetchCount int `yaml:"prefetch_count"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// WorkerConfig holds cache warmer configuration
type WorkerConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	JobTimeout      time.Duration `yaml:"job_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	// WarmSchedule is a cron spec; empty disables scheduled warming
	WarmSchedule string        `yaml:"warm_schedule"`
	WarmQueries  []WarmQuery   `yaml:"warm_queries"`
	WarmTimeout  time.Duration `yaml:"warm_timeout"`
}

// WarmQuery is a text/location pair recomputed on every warm run
type WarmQuery struct {
	Text     string `yaml:"text"`
	Location string `yaml:"location"`
}

// Load reads and parses the configuration file, then applies environment overrides
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv(os.LookupEnv)

	return &config, nil
}

// applyEnv overrides secrets with non-empty environment values
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	override := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	override(&c.Provider.Adzuna.AppID, EnvAdzunaAppID)
	override(&c.Provider.Adzuna.AppKey, EnvAdzunaAppKey)
	override(&c.Provider.JSearch.APIKey, EnvJSearchAPIKey)
	override(&c.Cache.RedisURL, EnvRedisURL)
	override(&c.Database.Password, EnvDatabasePassword)
	override(&c.RabbitMQ.Password, EnvRabbitMQPassword)
}

// UsesDatabase reports whether the configured source reads PostgreSQL
func (p ProviderConfig) UsesDatabase() bool {
	return p.Source == SourceDatabase || p.Source == SourceFallback
}

// UsesAdzuna reports whether the configured source calls Adzuna
func (p ProviderConfig) UsesAdzuna() bool {
	return p.Source == SourceAdzuna || p.Source == SourceFallback || p.Source == SourceTopUp
}

// UsesJSearch reports whether the configured source calls JSearch
func (p ProviderConfig) UsesJSearch() bool {
	return p.Source == SourceJSearch || p.Source == SourceTopUp
}

// ValidateAPIConfig checks the settings the API service needs
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if err := c.validateCommon(); err != nil {
		return err
	}

	return nil
}

// ValidateWorkerConfig checks the settings the worker service needs
func (c *Config) ValidateWorkerConfig() error {
	if err := c.validateCommon(); err != nil {
		return err
	}

	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.Worker.JobTimeout <= 0 {
		return fmt.Errorf("worker job_timeout must be greater than 0")
	}

	if c.Worker.ShutdownTimeout <= 0 {
		return fmt.Errorf("worker shutdown_timeout must be greater than 0")
	}

	if c.Worker.WarmSchedule != "" && len(c.Worker.WarmQueries) == 0 {
		return fmt.Errorf("worker warm_queries are required when warm_schedule is set")
	}

	if !c.RabbitMQ.Enabled && c.Worker.WarmSchedule == "" {
		return fmt.Errorf("worker needs rabbitmq or a warm_schedule")
	}

	return nil
}

func (c *Config) validateCommon() error {
	switch c.Provider.Source {
	case SourceAdzuna, SourceJSearch, SourceDatabase, SourceFallback, SourceTopUp:
	default:
		return fmt.Errorf("invalid provider source: %q (must be %s, %s, %s, %s or %s)",
			c.Provider.Source, SourceAdzuna, SourceJSearch, SourceDatabase, SourceFallback, SourceTopUp)
	}

	if c.Provider.FetchSize < 0 {
		return fmt.Errorf("provider fetch_size must not be negative")
	}

	if c.Provider.UsesDatabase() {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}

		if c.Database.Port < MinPort || c.Database.Port > MaxPort {
			return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
		}

		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.Cache.SearchTTL < 0 || c.Cache.AggregateTTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}

	for currency, rate := range c.Salary.CurrencyRates {
		if len(currency) != 3 {
			return fmt.Errorf("invalid currency code: %q", currency)
		}
		if rate <= 0 {
			return fmt.Errorf("currency rate for %s must be greater than 0", currency)
		}
	}

	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.Host == "" {
			return fmt.Errorf("rabbitmq host is required")
		}

		if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
			return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
		}

		if c.RabbitMQ.Exchange.Name == "" {
			return fmt.Errorf("rabbitmq exchange name is required")
		}

		if c.RabbitMQ.Queue.Name == "" {
			return fmt.Errorf("rabbitmq queue name is required")
		}
	}

	return nil
}
