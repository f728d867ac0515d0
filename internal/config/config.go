package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/uplink-dao/uplink-tweet/internal/errs"
)

type Config struct {
	Instance string // Unique identifier for this dispatcher instance

	PostgresURL string // Connection string for the queue database

	Schedule string // Cron expression for the dispatch cycle

	BatchSize     int           // Jobs fetched per cycle
	MaxRetries    int           // Failures before a job is dead-lettered
	WorkerCount   int           // Concurrent jobs per cycle
	StaleClaimTTL time.Duration // Pending claims older than this revert to ready
	PosterTimeout time.Duration // Cap on each outbound posting call

	AppSecret []byte // 32-byte AES key for stored credentials

	TwitterConsumerKey    string
	TwitterConsumerSecret string

	RabbitMQURL        string
	AnnouncementQueue  string // Queue carrying contest-announced events
	RabbitMQExchange   string
	RabbitMQRoutingKey string

	FrontendHost      string // Front end to revalidate on announcements
	FrontendAPISecret string

	LogLevel  string
	LogFormat string
}

// Option is the functional-options hook for overriding defaults.
type Option func(*Config) error

// New creates a Config with defaults. Only the instance name is required.
func New(instance string, opts ...Option) (*Config, error) {
	cfg := &Config{
		Instance:          instance,
		Schedule:          DefaultSchedule,
		BatchSize:         DefaultBatchSize,
		MaxRetries:        DefaultMaxRetries,
		WorkerCount:       DefaultWorkerCount,
		StaleClaimTTL:     DefaultStaleClaimTTL,
		PosterTimeout:     DefaultPosterTimeout,
		AnnouncementQueue: DefaultAnnouncementQueue,
		RabbitMQExchange:  DefaultExchange,
		LogLevel:          "info",
		LogFormat:         "console",
	}

	validationErrs := &errs.ValidationError{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			validationErrs.Add(err)
		}
	}

	if validationErrs.HasError() {
		return nil, validationErrs
	}
	return cfg, nil
}

func WithPostgresURL(url string) Option {
	return func(c *Config) error {
		if url == "" {
			return errors.New("postgres: connection URL is required")
		}
		c.PostgresURL = url
		return nil
	}
}

func WithSchedule(expression string) Option {
	return func(c *Config) error {
		if expression == "" {
			return errors.New("schedule expression is required")
		}
		c.Schedule = expression
		return nil
	}
}

func WithBatchSize(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return errors.New("batch size must be positive")
		}
		c.BatchSize = n
		return nil
	}
}

func WithWorkerCount(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return errors.New("worker count must be positive")
		}
		c.WorkerCount = n
		return nil
	}
}

func WithStaleClaimTTL(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return errors.New("stale claim TTL must be positive")
		}
		c.StaleClaimTTL = d
		return nil
	}
}

func WithPosterTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return errors.New("poster timeout must be positive")
		}
		c.PosterTimeout = d
		return nil
	}
}

func WithAppSecret(hexKey string) Option {
	return func(c *Config) error {
		key, err := hex.DecodeString(hexKey)
		if err != nil {
			return fmt.Errorf("app secret: not a hex string: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("app secret: need 32 bytes, got %d", len(key))
		}
		c.AppSecret = key
		return nil
	}
}

func WithTwitterConsumer(key, secret string) Option {
	return func(c *Config) error {
		if key == "" || secret == "" {
			return errors.New("twitter consumer key and secret are required")
		}
		c.TwitterConsumerKey = key
		c.TwitterConsumerSecret = secret
		return nil
	}
}

func WithRabbitMQ(url, exchange, queue, routingKey string) Option {
	return func(c *Config) error {
		if url == "" {
			return errors.New("rabbitmq: URL is required")
		}
		c.RabbitMQURL = url
		if exchange != "" {
			c.RabbitMQExchange = exchange
		}
		if queue != "" {
			c.AnnouncementQueue = queue
		}
		if routingKey != "" {
			c.RabbitMQRoutingKey = routingKey
		} else {
			c.RabbitMQRoutingKey = c.AnnouncementQueue
		}
		return nil
	}
}

func WithFrontend(host, apiSecret string) Option {
	return func(c *Config) error {
		if host == "" || apiSecret == "" {
			return errors.New("frontend host and API secret are required")
		}
		c.FrontendHost = host
		c.FrontendAPISecret = apiSecret
		return nil
	}
}

func WithLogging(level, format string) Option {
	return func(c *Config) error {
		c.LogLevel = level
		c.LogFormat = format
		return nil
	}
}

// FromEnv builds the full option list from environment variables. Main
// loads .env first, mirroring how the rest of the platform configures
// itself.
func FromEnv() []Option {
	opts := []Option{
		WithPostgresURL(os.Getenv("DATABASE_URL")),
		WithAppSecret(os.Getenv("APP_SECRET")),
		WithTwitterConsumer(os.Getenv("TWITTER_CONSUMER_KEY"), os.Getenv("TWITTER_CONSUMER_SECRET")),
		WithRabbitMQ(os.Getenv("RABBITMQ_URL"), os.Getenv("RABBITMQ_EXCHANGE"),
			os.Getenv("ANNOUNCEMENT_QUEUE"), os.Getenv("RABBITMQ_ROUTING_KEY")),
		WithFrontend(os.Getenv("FRONTEND_HOST"), os.Getenv("FRONTEND_API_SECRET")),
	}

	if schedule := os.Getenv("DISPATCH_SCHEDULE"); schedule != "" {
		opts = append(opts, WithSchedule(schedule))
	}
	if workers := os.Getenv("WORKER_COUNT"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			opts = append(opts, WithWorkerCount(n))
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		opts = append(opts, WithLogging(level, os.Getenv("LOG_FORMAT")))
	}

	return opts
}
