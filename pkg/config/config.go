package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	// CredentialsFile is a dotenv file read before env overrides are applied.
	CredentialsFile string `yaml:"credentials_file" default:"credential.env"`

	Log struct {
		Level      string `yaml:"level" default:"info"`
		Format     string `yaml:"format" default:"json"`
		Output     string `yaml:"output" default:"stdout"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups" default:"5"`
		MaxAgeDays int    `yaml:"max_age_days" default:"30"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"log"`

	Input struct {
		DefinitionsFile string `yaml:"definitions_file" default:"data/spreads.csv"`
	} `yaml:"input"`

	Store struct {
		Backend   string `yaml:"backend" default:"clickhouse"`
		Table     string `yaml:"table" default:"contractMargins"`
		WriteMode string `yaml:"write_mode" default:"replace"`
		BatchSize int    `yaml:"batch_size" default:"2000"`
	} `yaml:"store"`

	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"TradePriceAnalyzer"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"10s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
		Compression      string        `yaml:"compression" default:"lz4"`
	} `yaml:"clickhouse"`

	Postgres struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"5432"`
		Database string `yaml:"database" default:"TradePriceAnalyzer"`
		User     string `yaml:"user" default:"postgres"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"sslmode" default:"disable"`
		MaxConns int32  `yaml:"max_conns" default:"4"`
	} `yaml:"postgres"`

	Expiry struct {
		Source  string `yaml:"source" default:"table"`
		Table   string `yaml:"table" default:"ExpiryMatrix"`
		CSVPath string `yaml:"csv_path"`
	} `yaml:"expiry"`

	MarketData struct {
		Source  string        `yaml:"source" default:"http"`
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		CSVDir  string        `yaml:"csv_dir"`
		Timeout time.Duration `yaml:"timeout" default:"30s"`
		RPS     float64       `yaml:"rps" default:"5"`
		Burst   int           `yaml:"burst" default:"5"`
		Cache   struct {
			Enabled    bool          `yaml:"enabled"`
			TTL        time.Duration `yaml:"ttl" default:"12h"`
			MemorySize int           `yaml:"memory_size" default:"512"`
			Redis      struct {
				Enabled  bool   `yaml:"enabled"`
				Addr     string `yaml:"addr" default:"localhost:6379"`
				Password string `yaml:"password"`
				DB       int    `yaml:"db"`
			} `yaml:"redis"`
		} `yaml:"cache"`
	} `yaml:"marketdata"`

	Fetch struct {
		MaxAttempts int           `yaml:"max_attempts" default:"3"`
		Delay       time.Duration `yaml:"delay" default:"1s"`
	} `yaml:"fetch"`

	Build struct {
		TailDrop      int    `yaml:"tail_drop" default:"5"`
		Coverage      string `yaml:"coverage" default:"lenient"`
		MissingExpiry string `yaml:"missing_expiry" default:"drop"`
		TradingDays   int    `yaml:"trading_days" default:"252"`
		HistogramBins int    `yaml:"histogram_bins" default:"50"`
	} `yaml:"build"`

	Kafka struct {
		Enabled       bool     `yaml:"enabled"`
		Brokers       []string `yaml:"brokers"`
		Topic         string   `yaml:"topic" default:"spread-builds"`
		WarningsTopic string   `yaml:"warnings_topic" default:"spread-warnings"`
		RequiredAcks  int      `yaml:"required_acks" default:"-1"`
		Compression   string   `yaml:"compression" default:"snappy"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
	} `yaml:"kafka"`

	Archive struct {
		Enabled     bool   `yaml:"enabled"`
		Dir         string `yaml:"dir" default:"archive"`
		Compression string `yaml:"compression" default:"snappy"`
		S3          struct {
			Enabled   bool   `yaml:"enabled"`
			Bucket    string `yaml:"bucket"`
			Region    string `yaml:"region" default:"us-east-1"`
			Prefix    string `yaml:"prefix" default:"contract_margins"`
			AccessKey string `yaml:"access_key"`
			SecretKey string `yaml:"secret_key"`
		} `yaml:"s3"`
	} `yaml:"archive"`

	Metrics struct {
		Enabled        bool   `yaml:"enabled"`
		PushgatewayURL string `yaml:"pushgateway_url"`
		Job            string `yaml:"job" default:"rollspread_batch"`
	} `yaml:"metrics"`
}

func parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML, then the credentials dotenv file, and
// overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := parse(b)
	if err != nil {
		return nil, err
	}

	if c.CredentialsFile != "" {
		// variables already set in the environment take precedence
		if err := godotenv.Load(c.CredentialsFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load credentials: %w", err)
		}
	}
	c.ApplyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.Postgres.Host = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.ClickHouse.User = v
		c.Postgres.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
		c.Postgres.Password = v
	}
	if v := os.Getenv("MARKETDATA_URL"); v != "" {
		c.MarketData.BaseURL = v
	}
	if v := os.Getenv("MARKETDATA_API_KEY"); v != "" {
		c.MarketData.APIKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		c.Archive.S3.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		c.Archive.S3.SecretKey = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Store.Backend {
	case "clickhouse", "postgres":
	default:
		return fmt.Errorf("store.backend must be 'clickhouse' or 'postgres', got '%s'", c.Store.Backend)
	}
	switch c.Store.WriteMode {
	case "replace", "append", "replace_instrument":
	default:
		return fmt.Errorf("store.write_mode must be 'replace', 'append' or 'replace_instrument', got '%s'", c.Store.WriteMode)
	}
	if c.Store.Table == "" {
		return fmt.Errorf("store.table is required")
	}
	switch c.Expiry.Source {
	case "table":
		if c.Expiry.Table == "" {
			return fmt.Errorf("expiry.table is required for source 'table'")
		}
	case "csv":
		if c.Expiry.CSVPath == "" {
			return fmt.Errorf("expiry.csv_path is required for source 'csv'")
		}
	case "synthetic":
	default:
		return fmt.Errorf("expiry.source must be 'table', 'csv' or 'synthetic', got '%s'", c.Expiry.Source)
	}
	switch c.MarketData.Source {
	case "http":
		if c.MarketData.BaseURL == "" {
			return fmt.Errorf("marketdata.base_url is required for source 'http'")
		}
	case "csv":
		if c.MarketData.CSVDir == "" {
			return fmt.Errorf("marketdata.csv_dir is required for source 'csv'")
		}
	default:
		return fmt.Errorf("marketdata.source must be 'http' or 'csv', got '%s'", c.MarketData.Source)
	}
	if c.Fetch.MaxAttempts < 1 {
		return fmt.Errorf("fetch.max_attempts must be >= 1")
	}
	if c.Fetch.Delay < 0 {
		return fmt.Errorf("fetch.delay cannot be negative")
	}
	if c.Build.TailDrop < 0 {
		return fmt.Errorf("build.tail_drop cannot be negative")
	}
	if c.Build.Coverage != "strict" && c.Build.Coverage != "lenient" {
		return fmt.Errorf("build.coverage must be 'strict' or 'lenient', got '%s'", c.Build.Coverage)
	}
	if c.Build.MissingExpiry != "drop" && c.Build.MissingExpiry != "today" {
		return fmt.Errorf("build.missing_expiry must be 'drop' or 'today', got '%s'", c.Build.MissingExpiry)
	}
	if c.Build.TradingDays < 1 {
		return fmt.Errorf("build.trading_days must be >= 1")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Archive.S3.Enabled && c.Archive.S3.Bucket == "" {
		return fmt.Errorf("archive.s3.bucket is required when s3 is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.PushgatewayURL == "" {
		return fmt.Errorf("metrics.pushgateway_url is required when metrics are enabled")
	}
	return nil
}
