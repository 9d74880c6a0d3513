package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvAdzunaAppID, "")
			t.Setenv(EnvAdzunaAppKey, "")
			t.Setenv(EnvJSearchAPIKey, "")
			t.Setenv(EnvRedisURL, "")

			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			assert.Equal(t, 8080, cfg.Server.Port)
			assert.Equal(t, "market-api-service", cfg.App.Name)
			assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
			assert.Equal(t, 6*time.Hour, cfg.Cache.SearchTTL)
			assert.Equal(t, 24*time.Hour, cfg.Cache.AggregateTTL)
			assert.Equal(t, SourceFallback, cfg.Provider.Source)
			assert.Equal(t, "file-app-id", cfg.Provider.Adzuna.AppID)
			assert.Equal(t, 2.0, cfg.Provider.Adzuna.RequestsPerSecond)
			assert.Equal(t, 5, cfg.Provider.JSearch.MaxPages)
			assert.Equal(t, time.Second, cfg.Geocode.BatchTimeout)
			assert.Equal(t, 0.92, cfg.Salary.CurrencyRates["USD"])
			assert.Equal(t, "market_db", cfg.Database.Database)
			assert.Equal(t, "cache_refresh", cfg.RabbitMQ.Queue.Name)
			assert.Equal(t, 4, cfg.RabbitMQ.Consumer.PrefetchCount)
			assert.Equal(t, 5*time.Second, cfg.Worker.RetryDelay)
			require.Len(t, cfg.Worker.WarmQueries, 2)
			assert.Equal(t, WarmQuery{Text: "data engineer", Location: "Lyon"}, cfg.Worker.WarmQueries[1])
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAdzunaAppID, "env-id")
	t.Setenv(EnvAdzunaAppKey, "  env-key ")
	t.Setenv(EnvJSearchAPIKey, "env-rapidapi-key")
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvDatabasePassword, "env-db-password")

	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "env-id", cfg.Provider.Adzuna.AppID)
	assert.Equal(t, "env-key", cfg.Provider.Adzuna.AppKey)
	assert.Equal(t, "env-rapidapi-key", cfg.Provider.JSearch.APIKey)
	// blank values keep the file setting
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, "env-db-password", cfg.Database.Password)
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Provider: ProviderConfig{Source: SourceAdzuna},
		Worker: WorkerConfig{
			Concurrency:     2,
			JobTimeout:      time.Minute,
			ShutdownTimeout: 30 * time.Second,
			WarmSchedule:    "@hourly",
			WarmQueries:     []WarmQuery{{Text: "golang"}},
		},
	}
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errString string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "port too low", mutate: func(c *Config) { c.Server.Port = 0 }, errString: "invalid server port"},
		{name: "port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, errString: "invalid server port"},
		{name: "unknown source", mutate: func(c *Config) { c.Provider.Source = "indeed" }, errString: "invalid provider source"},
		{name: "negative fetch size", mutate: func(c *Config) { c.Provider.FetchSize = -1 }, errString: "fetch_size"},
		{
			name: "database source needs a host",
			mutate: func(c *Config) {
				c.Provider.Source = SourceDatabase
				c.Database = DatabaseConfig{Port: 5432, Database: "market_db"}
			},
			errString: "database host is required",
		},
		{
			name: "database source needs a name",
			mutate: func(c *Config) {
				c.Provider.Source = SourceFallback
				c.Database = DatabaseConfig{Host: "localhost", Port: 5432}
			},
			errString: "database name is required",
		},
		{
			name:   "adzuna source ignores database",
			mutate: func(c *Config) { c.Database = DatabaseConfig{} },
		},
		{name: "negative ttl", mutate: func(c *Config) { c.Cache.SearchTTL = -time.Second }, errString: "cache ttl"},
		{
			name:      "bad currency code",
			mutate:    func(c *Config) { c.Salary.CurrencyRates = map[string]float64{"EURO": 1} },
			errString: "invalid currency code",
		},
		{
			name:      "non-positive rate",
			mutate:    func(c *Config) { c.Salary.CurrencyRates = map[string]float64{"USD": 0} },
			errString: "must be greater than 0",
		},
		{
			name:      "rabbitmq enabled without host",
			mutate:    func(c *Config) { c.RabbitMQ = RabbitMQConfig{Enabled: true, Port: 5672} },
			errString: "rabbitmq host is required",
		},
		{
			name: "rabbitmq enabled without queue",
			mutate: func(c *Config) {
				c.RabbitMQ = RabbitMQConfig{Enabled: true, Host: "localhost", Port: 5672, Exchange: ExchangeConfig{Name: "market_exchange"}}
			},
			errString: "rabbitmq queue name is required",
		},
		{
			name:   "rabbitmq disabled is not checked",
			mutate: func(c *Config) { c.RabbitMQ = RabbitMQConfig{Host: ""} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()

			if tt.errString != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errString string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "server port is not required", mutate: func(c *Config) { c.Server.Port = 0 }},
		{name: "zero concurrency", mutate: func(c *Config) { c.Worker.Concurrency = 0 }, errString: "worker concurrency"},
		{name: "zero job timeout", mutate: func(c *Config) { c.Worker.JobTimeout = 0 }, errString: "job_timeout"},
		{name: "zero shutdown timeout", mutate: func(c *Config) { c.Worker.ShutdownTimeout = 0 }, errString: "shutdown_timeout"},
		{name: "schedule without queries", mutate: func(c *Config) { c.Worker.WarmQueries = nil }, errString: "warm_queries"},
		{name: "nothing to do", mutate: func(c *Config) { c.Worker.WarmSchedule = "" }, errString: "needs rabbitmq"},
		{name: "invalid provider", mutate: func(c *Config) { c.Provider.Source = "" }, errString: "invalid provider source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateWorkerConfig()

			if tt.errString != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoad_ValidateIntegration(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)

		require.NoError(t, cfg.ValidateAPIConfig())
		require.NoError(t, cfg.ValidateWorkerConfig())
	})

	t.Run("invalid port", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("missing database", func(t *testing.T) {
		cfg, err := Load("testdata/missing_database.yaml")
		require.NoError(t, err)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database name is required")
	})
}

func TestProviderConfig_Uses(t *testing.T) {
	tests := []struct {
		source       string
		wantAdzuna   bool
		wantJSearch  bool
		wantDatabase bool
	}{
		{source: SourceAdzuna, wantAdzuna: true},
		{source: SourceJSearch, wantJSearch: true},
		{source: SourceDatabase, wantDatabase: true},
		{source: SourceFallback, wantAdzuna: true, wantDatabase: true},
		{source: SourceTopUp, wantAdzuna: true, wantJSearch: true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			p := ProviderConfig{Source: tt.source}
			assert.Equal(t, tt.wantAdzuna, p.UsesAdzuna())
			assert.Equal(t, tt.wantJSearch, p.UsesJSearch())
			assert.Equal(t, tt.wantDatabase, p.UsesDatabase())
		})
	}
}
