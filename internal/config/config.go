package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
	} `yaml:"server"`

	BackgroundTasks struct {
		MaxConcurrentTasks int           `yaml:"max_concurrent_tasks" default:"4"`
		QueueSize          int           `yaml:"queue_size" default:"100"`
		TaskTimeout        time.Duration `yaml:"task_timeout" default:"1800s"`
		CleanupInterval    time.Duration `yaml:"cleanup_interval" default:"1h"`
		MaxTaskAge         time.Duration `yaml:"max_task_age" default:"24h"`
	} `yaml:"background_tasks"`

	JobStream struct {
		BaseURL         string        `yaml:"base_url" default:"https://jobstream.api.jobtechdev.se"`
		APIKey          string        `yaml:"api_key"`
		Locale          string        `yaml:"locale" default:"sv"`
		HomeCountry     string        `yaml:"home_country" default:"Sverige"`
		Source          string        `yaml:"source" default:"PLATSBANKEN"`
		RequestTimeout  time.Duration `yaml:"request_timeout" default:"120s"`
		MaxRetries      int           `yaml:"max_retries" default:"5"`
		RetryBaseDelay  time.Duration `yaml:"retry_base_delay" default:"1s"`
		RateLimit       int           `yaml:"rate_limit" default:"60"` // requests per minute
		ColdStartWindow time.Duration `yaml:"cold_start_window" default:"168h"`
	} `yaml:"jobstream"`

	Sync struct {
		CronSpec    string        `yaml:"cron_spec" default:"0 * * * *"`
		Concurrency int           `yaml:"concurrency" default:"10"`
		RunTimeout  time.Duration `yaml:"run_timeout" default:"30m"`
		RunOnStart  bool          `yaml:"run_on_start" default:"true"`
	} `yaml:"sync"`

	Database struct {
		URL            string        `yaml:"url"`
		MaxConns       int           `yaml:"max_conns" default:"10"`
		ConnectTimeout time.Duration `yaml:"connect_timeout" default:"10s"`
	} `yaml:"database"`

	Redis struct {
		URL     string        `yaml:"url" default:"redis://localhost:6379"`
		DB      int           `yaml:"db" default:"0"`
		Timeout time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"redis"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}

	// Set defaults
	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.BackgroundTasks.MaxConcurrentTasks = 4
	config.BackgroundTasks.QueueSize = 100
	config.BackgroundTasks.TaskTimeout = 30 * time.Minute
	config.BackgroundTasks.CleanupInterval = 1 * time.Hour
	config.BackgroundTasks.MaxTaskAge = 24 * time.Hour

	config.JobStream.BaseURL = "https://jobstream.api.jobtechdev.se"
	config.JobStream.Locale = "sv"
	config.JobStream.HomeCountry = "Sverige"
	config.JobStream.Source = "PLATSBANKEN"
	config.JobStream.RequestTimeout = 120 * time.Second
	config.JobStream.MaxRetries = 5
	config.JobStream.RetryBaseDelay = 1 * time.Second
	config.JobStream.RateLimit = 60
	config.JobStream.ColdStartWindow = 7 * 24 * time.Hour

	config.Sync.CronSpec = "0 * * * *"
	config.Sync.Concurrency = 10
	config.Sync.RunTimeout = 30 * time.Minute
	config.Sync.RunOnStart = true

	config.Database.MaxConns = 10
	config.Database.ConnectTimeout = 10 * time.Second

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			// Expand environment variables in the YAML content
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		c.Database.URL = dbURL
	}

	if maxConns := os.Getenv("DATABASE_MAX_CONNS"); maxConns != "" {
		if n, err := strconv.Atoi(maxConns); err == nil {
			c.Database.MaxConns = n
		}
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if baseURL := os.Getenv("JOBSTREAM_BASE_URL"); baseURL != "" {
		c.JobStream.BaseURL = baseURL
	}

	if apiKey := os.Getenv("JOBSTREAM_API_KEY"); apiKey != "" {
		c.JobStream.APIKey = apiKey
	}

	if locale := os.Getenv("JOBSTREAM_LOCALE"); locale != "" {
		c.JobStream.Locale = locale
	}

	if retries := os.Getenv("JOBSTREAM_MAX_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil {
			c.JobStream.MaxRetries = n
		}
	}

	if cronSpec := os.Getenv("SYNC_CRON"); cronSpec != "" {
		c.Sync.CronSpec = cronSpec
	}

	if concurrency := os.Getenv("SYNC_CONCURRENCY"); concurrency != "" {
		if n, err := strconv.Atoi(concurrency); err == nil && n > 0 {
			c.Sync.Concurrency = n
		}
	}

	if runOnStart := os.Getenv("SYNC_RUN_ON_START"); runOnStart != "" {
		c.Sync.RunOnStart = runOnStart == "true" || runOnStart == "1"
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}
}
