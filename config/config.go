package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Cloudinary CloudinaryConfig
	Vision     VisionConfig
	Analysis   AnalysisConfig
	RateLimit  RateLimitConfig
	Client     ClientConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
}

// CloudinaryConfig holds media store credentials
type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
	BaseURL   string `mapstructure:"base_url"`
}

// VisionConfig holds vision model configuration
type VisionConfig struct {
	Provider  string        `mapstructure:"provider"` // "openai", "gemini" or "ollama"
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	BaseURL   string        `mapstructure:"base_url"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// AnalysisConfig controls how model replies are interpreted
type AnalysisConfig struct {
	StrictParse bool `mapstructure:"strict_parse"`
}

// RateLimitConfig holds rate limiting configuration (requests per minute)
type RateLimitConfig struct {
	PerIP   int `mapstructure:"per_ip"`
	Upload  int `mapstructure:"upload"`
	Analyze int `mapstructure:"analyze"`
}

// ClientConfig holds configuration for the terminal scanner
type ClientConfig struct {
	GatewayURL    string        `mapstructure:"gateway_url"`
	CameraCommand string        `mapstructure:"camera_command"`
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	LogFile       string        `mapstructure:"log_file"`
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// providerKeyEnv maps a vision provider to the conventional env var holding its key
var providerKeyEnv = map[string]string{
	ProviderOpenAI: "OPENAI_API_KEY",
	ProviderGemini: "GEMINI_API_KEY",
}

// envAliases lets the server pick up the provider SDKs' conventional variable names
var envAliases = map[string][]string{
	"cloudinary.cloud_name": {"CLOUDINARY_CLOUD_NAME"},
	"cloudinary.api_key":    {"CLOUDINARY_API_KEY"},
	"cloudinary.api_secret": {"CLOUDINARY_API_SECRET"},
}

// Load loads server configuration from .env, environment variables and config files
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadClient loads configuration for the terminal scanner, which needs no provider secrets
func LoadClient() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if cfg.Client.GatewayURL == "" {
		return nil, fmt.Errorf("invalid configuration: client gateway URL is required (set ORGANICAI_CLIENT_GATEWAY_URL)")
	}

	return cfg, nil
}

func load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/organicai/")

	v.SetEnvPrefix("ORGANICAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// The vision key falls back to the provider's own variable (OPENAI_API_KEY, GEMINI_API_KEY)
	if config.Vision.APIKey == "" {
		if name, ok := providerKeyEnv[config.Vision.Provider]; ok {
			v.MustBindEnv("vision.provider_key", name)
			config.Vision.APIKey = v.GetString("vision.provider_key")
		}
	}

	return &config, nil
}

// loadEnvFile loads ./.env without overriding variables already set
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// bindEnv registers every known key so Unmarshal sees env-only values
func bindEnv(v *viper.Viper) error {
	for _, key := range v.AllKeys() {
		names := []string{key}
		if aliases, ok := envAliases[key]; ok {
			envName := "ORGANICAI_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
			names = append(names, envName)
			names = append(names, aliases...)
		}
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_body_bytes", 20<<20)

	// Cloudinary defaults
	v.SetDefault("cloudinary.cloud_name", "")
	v.SetDefault("cloudinary.api_key", "")
	v.SetDefault("cloudinary.api_secret", "")
	v.SetDefault("cloudinary.folder", "organic-ai")
	v.SetDefault("cloudinary.base_url", "https://api.cloudinary.com")

	// Vision defaults
	v.SetDefault("vision.provider", ProviderOpenAI)
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.model", "")
	v.SetDefault("vision.base_url", "")
	v.SetDefault("vision.max_tokens", 1000)
	v.SetDefault("vision.timeout", "0s")

	v.SetDefault("analysis.strict_parse", false)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.upload", 500)
	v.SetDefault("ratelimit.analyze", 500)

	// Client defaults
	v.SetDefault("client.gateway_url", "http://localhost:8080")
	v.SetDefault("client.camera_command", "ffmpeg -loglevel error -f v4l2 -i /dev/video0 -frames:v 1 -f image2pipe -vcodec mjpeg -")
	v.SetDefault("client.frame_interval", "250ms")
	v.SetDefault("client.log_file", "scanner.log")
}

// validate validates the server configuration
func validate(config *Config) error {
	c := config.Cloudinary
	if c.CloudName == "" || c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("Cloudinary cloud name, API key and API secret are required (set CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET)")
	}

	switch config.Vision.Provider {
	case ProviderOpenAI, ProviderGemini:
		if config.Vision.APIKey == "" {
			return fmt.Errorf("vision API key is required for provider %q (set %s)", config.Vision.Provider, providerKeyEnv[config.Vision.Provider])
		}
	case ProviderOllama:
		// local server, no key
	default:
		return fmt.Errorf("vision provider must be 'openai', 'gemini' or 'ollama', got: %s", config.Vision.Provider)
	}

	if config.Vision.MaxTokens <= 0 {
		return fmt.Errorf("vision max tokens must be positive, got: %d", config.Vision.MaxTokens)
	}

	return nil
}
