// Package config loads settings shared by the worker, the gateway and
// the starter.
//
// Values are layered, later sources winning:
//   - built-in defaults
//   - the YAML file named by --config (or STOREFRONT_CONFIG)
//   - environment variables
//   - command line flags that were explicitly set
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTaskQueue = "storefront-queue"
	DefaultBuildID   = "1.0.0"

	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds every tunable of the storefront processes
type Config struct {
	TemporalAddress string `yaml:"temporal_address"`
	Namespace       string `yaml:"namespace"`
	TaskQueue       string `yaml:"task_queue"`
	BuildID         string `yaml:"build_id"`

	// EncryptionKey is the hex-encoded 32-byte payload key. When empty a
	// key is generated per process, which only works for local runs.
	EncryptionKey string `yaml:"encryption_key"`

	Store         string        `yaml:"store"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	StoreTTL      time.Duration `yaml:"store_ttl"`

	HTTPAddr    string        `yaml:"http_addr"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	SearchLatency time.Duration `yaml:"search_latency"`
	DomainPrice   string        `yaml:"domain_price"`

	SuggestionsURL   string `yaml:"suggestions_url"`
	SuggestionsKey   string `yaml:"suggestions_key"`
	SuggestionsModel string `yaml:"suggestions_model"`

	LogLevel       string `yaml:"log_level"`
	LogDevelopment bool   `yaml:"log_development"`

	// Args holds the positional arguments left after flag parsing
	Args []string `yaml:"-"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		TemporalAddress:  "localhost:7233",
		Namespace:        "default",
		TaskQueue:        DefaultTaskQueue,
		BuildID:          DefaultBuildID,
		Store:            StoreRedis,
		RedisAddr:        "localhost:6379",
		StoreTTL:         30 * 24 * time.Hour,
		HTTPAddr:         ":8080",
		IdleTimeout:      30 * time.Minute,
		SearchLatency:    500 * time.Millisecond,
		DomainPrice:      "49,99",
		SuggestionsURL:   "https://generativelanguage.googleapis.com",
		SuggestionsModel: "gemini-2.5-flash",
		LogLevel:         "info",
	}
}

// Load builds the configuration for the named command from args
// (without the program name). pflag.ErrHelp is returned when -h was given.
func Load(name string, args []string) (*Config, error) {
	// First pass only discovers --config; values are applied in order below.
	var path string
	pre := newFlagSet(name, Default(), &path)
	if err := pre.Parse(args); err != nil {
		return nil, err
	}
	if path == "" {
		path = os.Getenv("STOREFRONT_CONFIG")
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	// Bound to the layered values, so only flags present in args override.
	flags := newFlagSet(name, cfg, &path)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	cfg.Args = flags.Args()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the processes cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.TemporalAddress == "" {
		errs = append(errs, errors.New("temporal address is required"))
	}
	if c.TaskQueue == "" {
		errs = append(errs, errors.New("task queue is required"))
	}
	switch c.Store {
	case StoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis address is required for the redis store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreRedis, StoreMemory))
	}
	if c.IdleTimeout <= 0 {
		errs = append(errs, errors.New("idle timeout must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	strs := map[string]*string{
		"TEMPORAL_ADDRESS":   &c.TemporalAddress,
		"TEMPORAL_NAMESPACE": &c.Namespace,
		"TASK_QUEUE":         &c.TaskQueue,
		"BUILD_ID":           &c.BuildID,
		"ENCRYPTION_KEY":     &c.EncryptionKey,
		"STORE":              &c.Store,
		"REDIS_ADDR":         &c.RedisAddr,
		"REDIS_PASSWORD":     &c.RedisPassword,
		"HTTP_ADDR":          &c.HTTPAddr,
		"DOMAIN_PRICE":       &c.DomainPrice,
		"SUGGESTIONS_URL":    &c.SuggestionsURL,
		"SUGGESTIONS_KEY":    &c.SuggestionsKey,
		"SUGGESTIONS_MODEL":  &c.SuggestionsModel,
		"LOG_LEVEL":          &c.LogLevel,
	}
	for env, dst := range strs {
		if v, ok := os.LookupEnv(env); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"STORE_TTL":      &c.StoreTTL,
		"IDLE_TIMEOUT":   &c.IdleTimeout,
		"SEARCH_LATENCY": &c.SearchLatency,
	}
	for env, dst := range durations {
		v, ok := os.LookupEnv(env)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
		*dst = d
	}

	if v, ok := os.LookupEnv("REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		c.RedisDB = db
	}
	if v, ok := os.LookupEnv("LOG_DEVELOPMENT"); ok {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LOG_DEVELOPMENT: %w", err)
		}
		c.LogDevelopment = dev
	}
	return nil
}

func newFlagSet(name string, c *Config, path *string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVar(path, "config", *path, "path to a YAML config file")
	fs.StringVar(&c.TemporalAddress, "temporal-address", c.TemporalAddress, "Temporal frontend host:port")
	fs.StringVar(&c.Namespace, "namespace", c.Namespace, "Temporal namespace")
	fs.StringVar(&c.TaskQueue, "task-queue", c.TaskQueue, "task queue for storefront workflows")
	fs.StringVar(&c.BuildID, "build-id", c.BuildID, "worker build ID")
	fs.StringVar(&c.EncryptionKey, "encryption-key", c.EncryptionKey, "hex-encoded 32-byte payload encryption key")
	fs.StringVar(&c.Store, "store", c.Store, "durable store backend (redis or memory)")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "Redis host:port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")
	fs.DurationVar(&c.StoreTTL, "store-ttl", c.StoreTTL, "expiry of stored carts and e-mails (0 keeps them)")
	fs.StringVar(&c.HTTPAddr, "http-addr", c.HTTPAddr, "gateway listen address")
	fs.DurationVar(&c.IdleTimeout, "idle-timeout", c.IdleTimeout, "close a session after this long without events")
	fs.DurationVar(&c.SearchLatency, "search-latency", c.SearchLatency, "simulated registry latency")
	fs.StringVar(&c.DomainPrice, "domain-price", c.DomainPrice, "price quoted for available domains")
	fs.StringVar(&c.SuggestionsURL, "suggestions-url", c.SuggestionsURL, "base URL of the suggestion API")
	fs.StringVar(&c.SuggestionsKey, "suggestions-key", c.SuggestionsKey, "API key for the suggestion API")
	fs.StringVar(&c.SuggestionsModel, "suggestions-model", c.SuggestionsModel, "model used for suggestions")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&c.LogDevelopment, "log-development", c.LogDevelopment, "human-readable console logs")
	return fs
}
