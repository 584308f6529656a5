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

	Crawler struct {
		UserAgent         string        `yaml:"user_agent"`
		NavigationTimeout time.Duration `yaml:"navigation_timeout" default:"15s"`
		FallbackTimeout   time.Duration `yaml:"fallback_timeout" default:"30s"`
		MaxRetries        int           `yaml:"max_retries" default:"2"`
		RetryBackoff      time.Duration `yaml:"retry_backoff" default:"500ms"`
		MaxDiscoveredURLs int           `yaml:"max_discovered_urls" default:"200"`
		MaxJobsPerPage    int           `yaml:"max_jobs_per_page" default:"100"`
		RateLimit         int           `yaml:"rate_limit" default:"60"` // requests per minute per domain
		HeadlessMode      bool          `yaml:"headless_mode" default:"true"`
		StealthMode       bool          `yaml:"stealth_mode" default:"true"`
	} `yaml:"crawler"`

	Classifier struct {
		CareerThreshold int `yaml:"career_threshold" default:"6"`
		JobThreshold    int `yaml:"job_threshold" default:"5"`
		StrictBonus     int `yaml:"strict_bonus" default:"2"`
	} `yaml:"classifier"`

	Extractor struct {
		TimeBudget       time.Duration `yaml:"time_budget" default:"60s"`
		TechniqueTimeout time.Duration `yaml:"technique_timeout" default:"8s"`
		MaxScrollRounds  int           `yaml:"max_scroll_rounds" default:"3"`
		MaxPages         int           `yaml:"max_pages" default:"10"`
		MaxModals        int           `yaml:"max_modals" default:"5"`
	} `yaml:"extractor"`

	BrowserPool struct {
		MaxInstances       int           `yaml:"max_instances" default:"5"`
		AcquisitionTimeout time.Duration `yaml:"acquisition_timeout" default:"30s"`
	} `yaml:"browser_pool"`

	Cache struct {
		TTL           time.Duration `yaml:"ttl" default:"1h"`
		SweepInterval time.Duration `yaml:"sweep_interval" default:"10m"`
		RedisEnabled  bool          `yaml:"redis_enabled" default:"false"`
	} `yaml:"cache"`

	Batch struct {
		MaxConcurrency int `yaml:"max_concurrency" default:"4"`
		MaxURLs        int `yaml:"max_urls" default:"50"`
	} `yaml:"batch"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`

	Redis struct {
		URL      string        `yaml:"url" default:"redis://localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" default:"0"`
		Timeout  time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"redis"`
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

	config.Crawler.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	config.Crawler.NavigationTimeout = 15 * time.Second
	config.Crawler.FallbackTimeout = 30 * time.Second
	config.Crawler.MaxRetries = 2
	config.Crawler.RetryBackoff = 500 * time.Millisecond
	config.Crawler.MaxDiscoveredURLs = 200
	config.Crawler.MaxJobsPerPage = 100
	config.Crawler.RateLimit = 60
	config.Crawler.HeadlessMode = true
	config.Crawler.StealthMode = true

	config.Classifier.CareerThreshold = 6
	config.Classifier.JobThreshold = 5
	config.Classifier.StrictBonus = 2

	config.Extractor.TimeBudget = 60 * time.Second
	config.Extractor.TechniqueTimeout = 8 * time.Second
	config.Extractor.MaxScrollRounds = 3
	config.Extractor.MaxPages = 10
	config.Extractor.MaxModals = 5

	config.BrowserPool.MaxInstances = 5
	config.BrowserPool.AcquisitionTimeout = 30 * time.Second

	config.Cache.TTL = time.Hour
	config.Cache.SweepInterval = 10 * time.Minute
	config.Cache.RedisEnabled = false

	config.Batch.MaxConcurrency = 4
	config.Batch.MaxURLs = 50

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
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

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if userAgent := os.Getenv("CRAWLER_USER_AGENT"); userAgent != "" {
		c.Crawler.UserAgent = userAgent
	}

	if navTimeout := os.Getenv("CRAWLER_NAVIGATION_TIMEOUT"); navTimeout != "" {
		if timeout, err := time.ParseDuration(navTimeout); err == nil {
			c.Crawler.NavigationTimeout = timeout
		}
	}

	if maxRetries := os.Getenv("CRAWLER_MAX_RETRIES"); maxRetries != "" {
		if retries, err := strconv.Atoi(maxRetries); err == nil {
			c.Crawler.MaxRetries = retries
		}
	}

	if headless := os.Getenv("CRAWLER_HEADLESS"); headless != "" {
		c.Crawler.HeadlessMode = headless == "true" || headless == "1"
	}

	if budget := os.Getenv("EXTRACTOR_TIME_BUDGET"); budget != "" {
		if d, err := time.ParseDuration(budget); err == nil {
			c.Extractor.TimeBudget = d
		}
	}

	if techTimeout := os.Getenv("EXTRACTOR_TECHNIQUE_TIMEOUT"); techTimeout != "" {
		if d, err := time.ParseDuration(techTimeout); err == nil {
			c.Extractor.TechniqueTimeout = d
		}
	}

	if maxInstances := os.Getenv("BROWSER_POOL_MAX_INSTANCES"); maxInstances != "" {
		if instances, err := strconv.Atoi(maxInstances); err == nil {
			c.BrowserPool.MaxInstances = instances
		}
	}

	if acquisitionTimeout := os.Getenv("BROWSER_POOL_ACQUISITION_TIMEOUT"); acquisitionTimeout != "" {
		if duration, err := time.ParseDuration(acquisitionTimeout); err == nil {
			c.BrowserPool.AcquisitionTimeout = duration
		}
	}

	if ttl := os.Getenv("CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			c.Cache.TTL = d
		}
	}

	if redisEnabled := os.Getenv("CACHE_REDIS_ENABLED"); redisEnabled != "" {
		c.Cache.RedisEnabled = redisEnabled == "true" || redisEnabled == "1"
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	if maxConcurrency := os.Getenv("BATCH_MAX_CONCURRENCY"); maxConcurrency != "" {
		if n, err := strconv.Atoi(maxConcurrency); err == nil {
			c.Batch.MaxConcurrency = n
		}
	}
}
