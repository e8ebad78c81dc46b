package config

import (
	"fmt"
	"time"

	"github.com/personachat/personachat/internal/domain"
	"github.com/spf13/viper"
)

// Config holds all configuration for the chat service
type Config struct {
	Server    ServerConfig         `mapstructure:"server"`
	Admin     AdminConfig          `mapstructure:"admin"`
	Database  DatabaseConfig       `mapstructure:"database"`
	Knowledge KnowledgeConfig      `mapstructure:"knowledge"`
	Persona   domain.PersonaConfig `mapstructure:"persona"`
	LLM       LLMConfig            `mapstructure:"llm"`
	Chat      ChatConfig           `mapstructure:"chat"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

// AdminConfig holds admin authentication configuration
type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// DatabaseConfig holds session store configuration. An empty path selects
// the in-memory store instead of SQLite.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// KnowledgeConfig holds knowledge base configuration
type KnowledgeConfig struct {
	Path string `mapstructure:"path"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	BaseURL string      `mapstructure:"base_url"`
	APIKey  string      `mapstructure:"api_key"`
	Model   string      `mapstructure:"model"`
	Retry   RetryConfig `mapstructure:"retry"`
}

// RetryConfig holds the retry/backoff policy for the LLM client
type RetryConfig struct {
	MaxRateLimitAttempts int           `mapstructure:"max_rate_limit_attempts"`
	MaxTransientAttempts int           `mapstructure:"max_transient_attempts"`
	BaseDelay            time.Duration `mapstructure:"base_delay"`
	MaxDelay             time.Duration `mapstructure:"max_delay"`
}

// ChatConfig holds chat pipeline tuning
type ChatConfig struct {
	TopK             int           `mapstructure:"top_k"`
	HistoryWindow    int           `mapstructure:"history_window"`
	PromptBudget     int           `mapstructure:"prompt_budget"`
	MaxMessageLength int           `mapstructure:"max_message_length"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("PERSONACHAT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")

	v.SetDefault("admin.api_key", "")

	v.SetDefault("database.path", "./data/personachat.db")
	v.SetDefault("knowledge.path", "./data/knowledge.json")

	v.SetDefault("persona.name", "Assistant")
	v.SetDefault("persona.instructions",
		"You are a helpful assistant answering questions about the site owner's work, projects and background. Answer from the provided background facts; say so when you don't know.")

	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.retry.max_rate_limit_attempts", 4)
	v.SetDefault("llm.retry.max_transient_attempts", 2)
	v.SetDefault("llm.retry.base_delay", "500ms")
	v.SetDefault("llm.retry.max_delay", "8s")

	v.SetDefault("chat.top_k", 5)
	v.SetDefault("chat.history_window", 10)
	v.SetDefault("chat.prompt_budget", 8000)
	v.SetDefault("chat.max_message_length", 2000)
	v.SetDefault("chat.request_timeout", "60s")
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
