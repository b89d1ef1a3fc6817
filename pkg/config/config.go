package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PathEnv names the optional YAML config file.
const PathEnv = "REVELIO_CONFIG"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	GigaChat GigaChatConfig `yaml:"gigachat"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	JWT      JWTConfig      `yaml:"jwt"`
	Logger   LoggerConfig   `yaml:"logger"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	BodyLimit    int           `yaml:"bodyLimit"`
}

// LLMConfig selects the completion backend and how the enrichment pipeline
// drives it.
type LLMConfig struct {
	Provider  string        `yaml:"provider"`
	Timeout   time.Duration `yaml:"timeout"`
	GroupSize int           `yaml:"groupSize"`
}

type OllamaConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Model   string `yaml:"model"`
}

type GigaChatConfig struct {
	APIKey             string `yaml:"apiKey"`
	Scope              string `yaml:"scope"`
	Model              string `yaml:"model"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
}

type GeminiConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// JWTConfig enables bearer auth on the API when SecretKey is non-empty.
type JWTConfig struct {
	SecretKey  string        `yaml:"secretKey"`
	Expiration time.Duration `yaml:"expiration"`
}

const (
	ProviderOllama   = "ollama"
	ProviderGigaChat = "gigachat"
	ProviderGemini   = "gemini"
)

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			BodyLimit:    10 * 1024 * 1024,
		},
		LLM: LLMConfig{
			Provider:  ProviderOllama,
			Timeout:   30 * time.Second,
			GroupSize: 4,
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "llama3:8b",
		},
		GigaChat: GigaChatConfig{
			Scope:              "GIGACHAT_API_PERS",
			Model:              "GigaChat",
			InsecureSkipVerify: true,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		JWT: JWTConfig{
			Expiration: 24 * time.Hour,
		},
		Logger: LoggerConfig{
			Level: "info",
		},
	}
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work too (Docker/K8s)
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	cfg := Default()

	if path := os.Getenv(PathEnv); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvSeconds("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvSeconds("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.BodyLimit = getEnvInt("SERVER_BODY_LIMIT", cfg.Server.BodyLimit)

	cfg.LLM.Provider = getEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.Timeout = getEnvSeconds("LLM_TIMEOUT", cfg.LLM.Timeout)
	cfg.LLM.GroupSize = getEnvInt("LLM_GROUP_SIZE", cfg.LLM.GroupSize)

	cfg.Ollama.BaseURL = getEnv("OLLAMA_BASE_URL", cfg.Ollama.BaseURL)
	cfg.Ollama.Model = getEnv("OLLAMA_MODEL", cfg.Ollama.Model)

	cfg.GigaChat.APIKey = getEnv("GIGACHAT_API_KEY", cfg.GigaChat.APIKey)
	cfg.GigaChat.Scope = getEnv("GIGACHAT_SCOPE", cfg.GigaChat.Scope)
	cfg.GigaChat.Model = getEnv("GIGACHAT_MODEL", cfg.GigaChat.Model)
	if v := os.Getenv("GIGACHAT_INSECURE_SKIP_VERIFY"); v != "" {
		cfg.GigaChat.InsecureSkipVerify = v == "true"
	}

	cfg.Gemini.APIKey = getEnv("GEMINI_API_KEY", cfg.Gemini.APIKey)
	cfg.Gemini.Model = getEnv("GEMINI_MODEL", cfg.Gemini.Model)

	cfg.JWT.SecretKey = getEnv("JWT_SECRET_KEY", cfg.JWT.SecretKey)
	if hours := getEnvInt("JWT_EXPIRATION_HOURS", 0); hours > 0 {
		cfg.JWT.Expiration = time.Duration(hours) * time.Hour
	}

	cfg.Logger.Level = getEnv("LOG_LEVEL", cfg.Logger.Level)
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOllama:
		if c.Ollama.BaseURL == "" || c.Ollama.Model == "" {
			return fmt.Errorf("ollama provider requires base URL and model")
		}
	case ProviderGigaChat:
		if c.GigaChat.APIKey == "" {
			return fmt.Errorf("gigachat provider requires GIGACHAT_API_KEY")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("gemini provider requires GEMINI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown LLM provider %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM timeout must be positive")
	}
	return nil
}

// AuthEnabled reports whether API routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWT.SecretKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	seconds, err := strconv.Atoi(os.Getenv(key))
	if err != nil || seconds <= 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}
