package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "EVENTAGENT"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Session   SessionConfig   `mapstructure:"session"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	Planner   PlannerConfig   `mapstructure:"planner"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr" validate:"required"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LLMConfig struct {
	// Provider is eino (tool calling through eino-ext), openai (JSON mode
	// through go-openai) or local (keyword matching only).
	Provider string        `mapstructure:"provider" validate:"oneof=eino openai local"`
	APIKey   string        `mapstructure:"api_key" validate:"required_unless=Provider local"`
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
	// Rephrase lets the model phrase assistant replies instead of templates.
	Rephrase bool   `mapstructure:"rephrase"`
	Language string `mapstructure:"language"`
}

type SessionConfig struct {
	Store        string        `mapstructure:"store" validate:"oneof=memory redis"`
	TTL          time.Duration `mapstructure:"ttl" validate:"gte=0"`
	HistoryLimit int           `mapstructure:"history_limit" validate:"gte=0"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

type CatalogConfig struct {
	// Path to a catalog YAML file; empty uses the embedded catalog.
	Path string `mapstructure:"path"`
}

type NormalizeConfig struct {
	BirthdayDefault string `mapstructure:"birthday_default" validate:"required"`
}

type PlannerConfig struct {
	// Required overrides the catalog's required key order.
	Required []string `mapstructure:"required"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("llm.provider", "local")
	v.SetDefault("llm.timeout", 15*time.Second)
	v.SetDefault("llm.language", "English")
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.history_limit", 20)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("normalize.birthday_default", "birthday-adult")
}

// Load reads .env, an optional config.yaml and EVENTAGENT_* environment
// variables, in increasing precedence.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	return load(v)
}

// LoadFile is Load with an explicit config file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Session.Store == "redis" && cfg.Redis.Address == "" {
		return nil, errors.New("invalid configuration: redis.address is required for the redis session store")
	}
	return &cfg, nil
}
