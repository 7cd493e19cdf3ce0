package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported AI providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all configuration for the application.
// Mapstructure tags are used to map environment variables and config file keys.
type Config struct {
	// Server Configuration
	ServerAddress string `mapstructure:"SERVER_ADDRESS"` // e.g., ":8080"
	AppEnv        string `mapstructure:"APP_ENV"`        // "production" switches gin to release mode

	// AI Configuration
	AIProvider        string        `mapstructure:"AI_PROVIDER"`        // "gemini" or "openai"
	GenerationTimeout time.Duration `mapstructure:"GENERATION_TIMEOUT"` // upper bound for one generation call

	GeminiAPIKey   string `mapstructure:"GEMINI_API_KEY"`  // falls back to API_KEY
	APIKey         string `mapstructure:"API_KEY"`         // legacy name of the Gemini key
	GeminiModel    string `mapstructure:"GEMINI_MODEL"`    // e.g., "gemini-3-pro-preview"
	ThinkingBudget int32  `mapstructure:"THINKING_BUDGET"` // thinking tokens granted to Gemini

	OpenAIKey     string `mapstructure:"OPENAI_API_KEY"`  // API key for OpenAI
	OpenAIModel   string `mapstructure:"OPENAI_MODEL"`    // e.g., "gpt-4o"
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"` // optional OpenAI-compatible gateway
}

// GeminiKey returns the configured Gemini key, preferring GEMINI_API_KEY.
func (c Config) GeminiKey() string {
	if c.GeminiAPIKey != "" {
		return c.GeminiAPIKey
	}
	return c.APIKey
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("AI_PROVIDER", ProviderGemini)
	v.SetDefault("GENERATION_TIMEOUT", 5*time.Minute)
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-3-pro-preview")
	v.SetDefault("THINKING_BUDGET", 10000)
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o")
	v.SetDefault("OPENAI_BASE_URL", "")
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)     // Path to look for the config file in
	v.SetConfigName("config") // Name of config file (without extension)
	v.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	setDefaults(v)
	v.AutomaticEnv() // Read environment variables that match keys

	err = v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Println("Config file ('config.yaml') not found in specified path, relying solely on environment variables.")
		} else {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.Printf("Using configuration file: %s", v.ConfigFileUsed())
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.AIProvider = strings.ToLower(strings.TrimSpace(config.AIProvider))
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	config.warnMissing()

	return config, nil
}

// Validate rejects settings the application cannot start with. A missing API
// key is not one of them: the provider reports it on the first call.
func (c Config) Validate() error {
	switch c.AIProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q (want %q or %q)", c.AIProvider, ProviderGemini, ProviderOpenAI)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive, got %s", c.GenerationTimeout)
	}
	if c.ThinkingBudget < 0 {
		return fmt.Errorf("THINKING_BUDGET must not be negative, got %d", c.ThinkingBudget)
	}
	return nil
}

func (c Config) warnMissing() {
	switch c.AIProvider {
	case ProviderGemini:
		if c.GeminiKey() == "" {
			log.Println("WARN: GEMINI_API_KEY (or API_KEY) is not set; generation requests will fail.")
		}
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			log.Println("WARN: OPENAI_API_KEY is not set; generation requests will fail.")
		}
	}
}
