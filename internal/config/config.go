package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	SourceHTTP     = "http"
	SourceFile     = "file"
	SourcePostgres = "postgres"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Port             string
	DatabaseHost     string
	DatabasePort     string
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	LogFile          string

	// Source selects where catalog documents come from.
	Source        string
	SourceBaseURL string
	SourceDir     string
	SourceTimeout time.Duration

	CacheBackend string
	CacheTTL     time.Duration
	Coalesce     bool

	WhatsAppNumber string
	PublicBaseURL  string
}

// SetDefaults registers every key so AutomaticEnv can resolve it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.file", "app.log")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db", "")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")

	v.SetDefault("catalog.source", SourceFile)
	v.SetDefault("catalog.base_url", "")
	v.SetDefault("catalog.dir", "data")
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("catalog.cache", CacheMemory)
	v.SetDefault("catalog.ttl", 5*time.Minute)
	v.SetDefault("catalog.coalesce", true)
	v.SetDefault("catalog.whatsapp_number", "8637358934")
	v.SetDefault("catalog.public_base_url", "http://localhost:3000")
}

// NewViper returns a viper instance reading defaults, then configFile (or
// catalog.yaml in the working directory when configFile is empty), then the
// environment. Keys map to variables by upper-casing and replacing dots, so
// app.port is APP_PORT and catalog.base_url is CATALOG_BASE_URL.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("catalog")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicitly named file has to exist, the default one is optional
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

func Load(configFile string) (*Config, error) {
	v, err := NewViper(configFile)
	if err != nil {
		return nil, err
	}
	return LoadFrom(v)
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:             v.GetString("app.port"),
		DatabaseHost:     v.GetString("postgres.host"),
		DatabasePort:     v.GetString("postgres.port"),
		DatabaseUser:     v.GetString("postgres.user"),
		DatabasePassword: v.GetString("postgres.password"),
		DatabaseName:     v.GetString("postgres.db"),
		RedisHost:        v.GetString("redis.host"),
		RedisPort:        v.GetString("redis.port"),
		RedisPassword:    v.GetString("redis.password"),
		LogFile:          v.GetString("log.file"),

		Source:        strings.ToLower(v.GetString("catalog.source")),
		SourceBaseURL: v.GetString("catalog.base_url"),
		SourceDir:     v.GetString("catalog.dir"),
		SourceTimeout: v.GetDuration("catalog.timeout"),

		CacheBackend: strings.ToLower(v.GetString("catalog.cache")),
		CacheTTL:     v.GetDuration("catalog.ttl"),
		Coalesce:     v.GetBool("catalog.coalesce"),

		WhatsAppNumber: v.GetString("catalog.whatsapp_number"),
		PublicBaseURL:  v.GetString("catalog.public_base_url"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var problems []string
	if c.Port == "" {
		problems = append(problems, "app.port is empty")
	}
	switch c.Source {
	case SourceHTTP:
		if c.SourceBaseURL == "" {
			problems = append(problems, "catalog.base_url is required for the http source")
		}
	case SourceFile:
		if c.SourceDir == "" {
			problems = append(problems, "catalog.dir is required for the file source")
		}
	case SourcePostgres:
		if c.DatabaseName == "" || c.DatabaseUser == "" {
			problems = append(problems, "postgres.db and postgres.user are required for the postgres source")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown catalog.source %q", c.Source))
	}
	switch c.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.RedisHost == "" {
			problems = append(problems, "redis.host is required for the redis cache")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown catalog.cache %q", c.CacheBackend))
	}
	if c.CacheTTL <= 0 {
		problems = append(problems, "catalog.ttl must be positive")
	}
	if c.SourceTimeout <= 0 {
		problems = append(problems, "catalog.timeout must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DatabaseHost, c.DatabasePort, c.DatabaseUser, c.DatabasePassword, c.DatabaseName)
}
