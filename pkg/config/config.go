package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SlinkyTA/internal/domain/models"
	applogger "SlinkyTA/pkg/logger"
)

type Config struct {
	Environment string            `yaml:"environment" default:"development" validate:"required"`
	Log         applogger.Config  `yaml:"log"`
	Server      ServerConfig      `yaml:"server"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Assets      []models.Asset    `yaml:"assets" validate:"required,min=1,dive"`
	Patterns    []string          `yaml:"patterns" default:"[\"cup and handle\",\"channel\",\"double-bottom\",\"flag\",\"resistance\",\"triangle\"]" validate:"required,min=1"`
	Risk        models.RiskReward `yaml:"risk"`
	Renderer    RendererConfig    `yaml:"renderer"`
	Detector    DetectorConfig    `yaml:"detector"`
	Store       StoreConfig       `yaml:"store"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Redis       RedisConfig       `yaml:"redis"`
}

type ServerConfig struct {
	Enabled         bool          `yaml:"enabled" default:"true"`
	Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

type SchedulerConfig struct {
	Interval     time.Duration `yaml:"interval" default:"1h" validate:"gt=0"`
	PollInterval time.Duration `yaml:"poll_interval" default:"10s" validate:"gt=0"`
	RunOnStart   bool          `yaml:"run_on_start"`
}

type RendererConfig struct {
	ChromePath     string        `yaml:"chrome_path"`
	Headless       bool          `yaml:"headless" default:"true"`
	Width          int           `yaml:"width" default:"1200" validate:"gt=0"`
	Height         int           `yaml:"height" default:"800" validate:"gt=0"`
	LoadDelay      time.Duration `yaml:"load_delay" default:"15s"`
	SettleDelay    time.Duration `yaml:"settle_delay" default:"5s"`
	Timeout        time.Duration `yaml:"timeout" default:"90s" validate:"gt=0"`
	ScreenshotDir  string        `yaml:"screenshot_dir"`
	LabelSelectors []string      `yaml:"label_selectors" default:"[\"[data-name='y-axis-label']\",\".tv-value-axis__label\"]" validate:"required,min=1"`
}

type DetectorConfig struct {
	APIURL    string        `yaml:"api_url" default:"https://serverless.roboflow.com" validate:"required,url"`
	APIKey    string        `yaml:"api_key"`
	ModelID   string        `yaml:"model_id" default:"slinky-crypto-ai-technical-analyst/1" validate:"required"`
	Timeout   time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
	RateLimit struct {
		RPS   float64 `yaml:"rps" default:"1"`
		Burst int     `yaml:"burst" default:"1"`
	} `yaml:"rate_limit"`
	Breaker struct {
		MaxFailures uint32        `yaml:"max_failures" default:"3"`
		OpenTimeout time.Duration `yaml:"open_timeout" default:"5m"`
	} `yaml:"breaker"`
}

type StoreConfig struct {
	Backend    string           `yaml:"backend" default:"postgres" validate:"oneof=postgres clickhouse"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" default:"5"`
	MaxIdleConns    int           `yaml:"max_idle_conns" default:"2"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"30m"`
	QueryTimeout    time.Duration `yaml:"query_timeout" default:"10s"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"slinky"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"slinky.signals"`
	RequiredAcks int           `yaml:"required_acks" default:"-1"`
	Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

type RedisConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Host      string        `yaml:"host" default:"localhost"`
	Port      int           `yaml:"port" default:"6379"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	Prefix    string        `yaml:"prefix" default:"slinky"`
	LatestTTL time.Duration `yaml:"latest_ttl" default:"24h"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file over the default values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the default values. It does not validate.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML, applies .env and environment overrides, then validates.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("ROBOFLOW_API_KEY"); v != "" {
		c.Detector.APIKey = v
	}
	if v := getenv("MODEL_ID"); v != "" {
		c.Detector.ModelID = v
	}
	if v := getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := getenv("POSTGRES_DSN"); v != "" {
		c.Store.Postgres.DSN = v
	}
	if v := getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.Store.ClickHouse.Password = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			host, port = v, ""
		}
		c.Redis.Host = host
		if n, err := strconv.Atoi(port); err == nil {
			c.Redis.Port = n
		}
		c.Redis.Enabled = true
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("CHROME_PATH"); v != "" {
		c.Renderer.ChromePath = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Detector.APIKey == "" {
		return fmt.Errorf("detector.api_key is required")
	}
	if c.Store.Backend == "postgres" && c.Store.Postgres.DSN == "" {
		return fmt.Errorf("store.postgres.dsn is required for the postgres backend")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	seen := make(map[string]struct{}, len(c.Assets))
	for _, a := range c.Assets {
		if _, dup := seen[a.Symbol]; dup {
			return fmt.Errorf("asset %q is listed twice", a.Symbol)
		}
		seen[a.Symbol] = struct{}{}
	}
	return nil
}
