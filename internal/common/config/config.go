package config

import "time"

// Config is the application configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Session     SessionConfig     `mapstructure:"session"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Checkpoint  CheckpointConfig  `mapstructure:"checkpoint"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Retrieval   RetrievalConfig   `mapstructure:"retrieval"`
	Generator   GeneratorConfig   `mapstructure:"generator"`
	Transcriber TranscriberConfig `mapstructure:"transcriber"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type SessionConfig struct {
	ID string `mapstructure:"id"`
}

// CatalogConfig selects where the product catalog is read from: "file" or "sql".
type CatalogConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
}

// CheckpointConfig selects the cart/inventory checkpoint backend: "file", "redis" or "sql".
type CheckpointConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Driver         string `mapstructure:"driver"` // mysql | sqlite
	DSN            string `mapstructure:"dsn"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
}

type RedisConfig struct {
	Address        string `mapstructure:"address"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	KeyPrefix      string `mapstructure:"key_prefix"`
	IdempotencyTTL int    `mapstructure:"idempotency_ttl"` // milliseconds
}

type RetrievalConfig struct {
	Provider string  `mapstructure:"provider"` // trigram | ollama | genai
	TopK     int     `mapstructure:"top_k"`
	MinScore float64 `mapstructure:"min_score"`
	Timeout  int     `mapstructure:"timeout"` // milliseconds

	Ollama OllamaConfig `mapstructure:"ollama"`
	GenAI  GenAIConfig  `mapstructure:"genai"`
}

type GeneratorConfig struct {
	Provider string `mapstructure:"provider"` // none | ollama | genai
	Timeout  int    `mapstructure:"timeout"`  // milliseconds

	Ollama OllamaConfig `mapstructure:"ollama"`
	GenAI  GenAIConfig  `mapstructure:"genai"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

type GenAIConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	TaskType string `mapstructure:"task_type"`
}

type TranscriberConfig struct {
	WhisperCLI string `mapstructure:"whisper_cli"`
	ModelPath  string `mapstructure:"model_path"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
}

type HTTPConfig struct {
	Address string `mapstructure:"address"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
