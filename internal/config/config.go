package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Defaults applied by Load when a value is left out of the file
const (
	DefaultRedisHost          = "localhost"
	DefaultRedisPort          = 6379
	DefaultJobTTL             = time.Hour
	DefaultStreamName         = "jobs_stream"
	DefaultKeyPrefix          = "job:"
	DefaultBlockTimeout       = time.Second
	DefaultBatchSize          = 1
	DefaultRetryDelay         = time.Second
	DefaultRetryMaxDelay      = 30 * time.Second
	DefaultStartPosition      = "$"
	DefaultPollInterval       = 500 * time.Millisecond
	DefaultPollMaxAttempts    = 60
	DefaultAPIBaseURL         = "http://localhost:8000"
	DefaultHTTPClientTimeout  = 10 * time.Second
	DefaultShutdownTimeout    = 10 * time.Second
	DefaultRedisRetryAttempts = 5
	DefaultRedisRetryInterval = 2 * time.Second
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Worker   WorkerConfig   `yaml:"worker"`
	Poller   PollerConfig   `yaml:"poller"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RedisConfig holds the connection settings of the Redis server that
// backs both the job store and the work queue
type RedisConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	PoolSize      int           `yaml:"pool_size"`
	DialTimeout   time.Duration `yaml:"dial_timeout"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JobsConfig holds the shared layout of job records and the queue
type JobsConfig struct {
	TTL       time.Duration `yaml:"ttl"`
	Stream    string        `yaml:"stream"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// WorkerConfig holds worker service configuration
type WorkerConfig struct {
	BatchSize       int64         `yaml:"batch_size"`
	BlockTimeout    time.Duration `yaml:"block_timeout"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	RetryMaxDelay   time.Duration `yaml:"retry_max_delay"`
	JobTimeout      time.Duration `yaml:"job_timeout"`
	SimulatedDelay  time.Duration `yaml:"simulated_delay"`
	StartPosition   string        `yaml:"start_position"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MetricsPort exposes /metrics from the worker when non-zero
	MetricsPort int `yaml:"metrics_port"`
}

// PollerConfig holds result polling settings used by the job client
type PollerConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"`
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

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
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

// Load reads and parses the configuration file, then applies defaults and
// environment overrides
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Redis.Host == "" {
		c.Redis.Host = DefaultRedisHost
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = DefaultRedisPort
	}
	if c.Redis.RetryAttempts == 0 {
		c.Redis.RetryAttempts = DefaultRedisRetryAttempts
	}
	if c.Redis.RetryInterval == 0 {
		c.Redis.RetryInterval = DefaultRedisRetryInterval
	}

	if c.Jobs.TTL == 0 {
		c.Jobs.TTL = DefaultJobTTL
	}
	if c.Jobs.Stream == "" {
		c.Jobs.Stream = DefaultStreamName
	}
	if c.Jobs.KeyPrefix == "" {
		c.Jobs.KeyPrefix = DefaultKeyPrefix
	}

	if c.Worker.BatchSize == 0 {
		c.Worker.BatchSize = DefaultBatchSize
	}
	if c.Worker.BlockTimeout == 0 {
		c.Worker.BlockTimeout = DefaultBlockTimeout
	}
	if c.Worker.RetryDelay == 0 {
		c.Worker.RetryDelay = DefaultRetryDelay
	}
	if c.Worker.RetryMaxDelay == 0 {
		c.Worker.RetryMaxDelay = DefaultRetryMaxDelay
	}
	if c.Worker.StartPosition == "" {
		c.Worker.StartPosition = DefaultStartPosition
	}
	if c.Worker.ShutdownTimeout == 0 {
		c.Worker.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Poller.BaseURL == "" {
		c.Poller.BaseURL = DefaultAPIBaseURL
	}
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.MaxAttempts == 0 {
		c.Poller.MaxAttempts = DefaultPollMaxAttempts
	}
	if c.Poller.HTTPTimeout == 0 {
		c.Poller.HTTPTimeout = DefaultHTTPClientTimeout
	}

	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// applyEnv lets REDIS_HOST and REDIS_PORT override the file
func (c *Config) applyEnv() error {
	if host := os.Getenv("REDIS_HOST"); host != "" {
		c.Redis.Host = host
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid REDIS_PORT %q: %w", port, err)
		}
		c.Redis.Port = p
	}
	return nil
}

func validatePort(name string, port int) error {
	if port < MinPort || port > MaxPort {
		return fmt.Errorf("invalid %s port: %d (must be between %d and %d)", name, port, MinPort, MaxPort)
	}
	return nil
}

func (c *Config) validateRedis() error {
	if c.Redis.Host == "" {
		return fmt.Errorf("redis host is required")
	}
	if err := validatePort("redis", c.Redis.Port); err != nil {
		return err
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis db must not be negative")
	}
	if c.Jobs.TTL <= 0 {
		return fmt.Errorf("jobs ttl must be greater than 0")
	}
	if c.Jobs.Stream == "" {
		return fmt.Errorf("jobs stream is required")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if !c.Database.Enabled {
		return nil
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if err := validatePort("database", c.Database.Port); err != nil {
		return err
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	return nil
}

func (c *Config) validateRabbitMQ() error {
	if !c.RabbitMQ.Enabled {
		return nil
	}
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}
	if err := validatePort("rabbitmq", c.RabbitMQ.Port); err != nil {
		return err
	}
	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}
	return nil
}

// ValidateAPIConfig checks the settings the API service needs
func (c *Config) ValidateAPIConfig() error {
	if err := validatePort("server", c.Server.Port); err != nil {
		return err
	}
	if err := c.validateRedis(); err != nil {
		return err
	}
	return c.validateDatabase()
}

// ValidateWorkerConfig checks the settings the worker service needs
func (c *Config) ValidateWorkerConfig() error {
	if err := c.validateRedis(); err != nil {
		return err
	}

	if c.Worker.BatchSize <= 0 {
		return fmt.Errorf("worker batch_size must be greater than 0")
	}
	if c.Worker.BlockTimeout <= 0 {
		return fmt.Errorf("worker block_timeout must be greater than 0")
	}
	if c.Worker.RetryDelay <= 0 {
		return fmt.Errorf("worker retry_delay must be greater than 0")
	}
	if c.Worker.RetryMaxDelay < c.Worker.RetryDelay {
		return fmt.Errorf("worker retry_max_delay must not be less than retry_delay")
	}
	if c.Worker.JobTimeout < 0 {
		return fmt.Errorf("worker job_timeout must not be negative")
	}
	if c.Worker.SimulatedDelay < 0 {
		return fmt.Errorf("worker simulated_delay must not be negative")
	}
	if c.Worker.MetricsPort != 0 {
		if err := validatePort("worker metrics", c.Worker.MetricsPort); err != nil {
			return err
		}
	}

	return c.validateRabbitMQ()
}

// ValidateClientConfig checks the settings the job client needs
func (c *Config) ValidateClientConfig() error {
	if c.Poller.BaseURL == "" {
		return fmt.Errorf("poller base_url is required")
	}
	if c.Poller.Interval <= 0 {
		return fmt.Errorf("poller interval must be greater than 0")
	}
	if c.Poller.MaxAttempts <= 0 {
		return fmt.Errorf("poller max_attempts must be greater than 0")
	}
	return nil
}
