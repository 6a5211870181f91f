package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "POS"

// Load reads config.yaml (and config.<env>.yaml when present) from the usual
// locations, overlays POS_* environment variables and applies defaults.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("POS_APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName("config." + env)
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	return v
}

// bindEnvKeys registers every key so AutomaticEnv also applies when the key
// is absent from the yaml files.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"app.name", "app.environment",
		"session.id",
		"catalog.source", "catalog.path",
		"checkpoint.backend", "checkpoint.path",
		"database.driver", "database.dsn",
		"redis.address", "redis.password", "redis.db", "redis.key_prefix", "redis.idempotency_ttl",
		"retrieval.provider", "retrieval.top_k", "retrieval.min_score", "retrieval.timeout",
		"retrieval.ollama.endpoint", "retrieval.ollama.model",
		"retrieval.genai.api_key", "retrieval.genai.model", "retrieval.genai.task_type",
		"generator.provider", "generator.timeout",
		"generator.ollama.endpoint", "generator.ollama.model",
		"generator.genai.api_key", "generator.genai.model",
		"transcriber.whisper_cli", "transcriber.model_path", "transcriber.timeout",
		"http.address",
		"logging.level", "logging.format",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	paths := []string{".env", "../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "voice-pos"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Session.ID == "" {
		cfg.Session.ID = "default"
	}

	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = "file"
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "data/inventory.json"
	}
	if cfg.Checkpoint.Backend == "" {
		cfg.Checkpoint.Backend = "file"
	}
	if cfg.Checkpoint.Path == "" {
		cfg.Checkpoint.Path = "cart_cache.json"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "file:pos.db?_pragma=busy_timeout(5000)"
	}
	if cfg.Database.MaxConnections == 0 {
		cfg.Database.MaxConnections = 10
	}
	if cfg.Database.MaxIdle == 0 {
		cfg.Database.MaxIdle = 2
	}

	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "pos:"
	}
	if cfg.Redis.IdempotencyTTL == 0 {
		cfg.Redis.IdempotencyTTL = 24 * 60 * 60 * 1000
	}

	if cfg.Retrieval.Provider == "" {
		cfg.Retrieval.Provider = "trigram"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.Timeout == 0 {
		cfg.Retrieval.Timeout = 5000
	}
	if cfg.Retrieval.Ollama.Endpoint == "" {
		cfg.Retrieval.Ollama.Endpoint = "http://localhost:11434"
	}
	if cfg.Retrieval.Ollama.Model == "" {
		cfg.Retrieval.Ollama.Model = "all-minilm"
	}
	if cfg.Retrieval.GenAI.Model == "" {
		cfg.Retrieval.GenAI.Model = "gemini-embedding-001"
	}

	if cfg.Generator.Provider == "" {
		cfg.Generator.Provider = "none"
	}
	if cfg.Generator.Timeout == 0 {
		cfg.Generator.Timeout = 30000
	}
	if cfg.Generator.Ollama.Endpoint == "" {
		cfg.Generator.Ollama.Endpoint = "http://localhost:11434"
	}
	if cfg.Generator.Ollama.Model == "" {
		cfg.Generator.Ollama.Model = "gemma3:1b"
	}
	if cfg.Generator.GenAI.Model == "" {
		cfg.Generator.GenAI.Model = "gemini-2.0-flash"
	}

	if cfg.Transcriber.WhisperCLI == "" {
		cfg.Transcriber.WhisperCLI = "whisper-cli"
	}
	if cfg.Transcriber.Timeout == 0 {
		cfg.Transcriber.Timeout = 120000
	}

	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Catalog.Source {
	case "file", "sql":
	default:
		return fmt.Errorf("catalog.source must be file or sql, got %q", cfg.Catalog.Source)
	}

	switch cfg.Checkpoint.Backend {
	case "file", "redis", "sql":
	default:
		return fmt.Errorf("checkpoint.backend must be file, redis or sql, got %q", cfg.Checkpoint.Backend)
	}

	switch cfg.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("database.driver must be mysql or sqlite, got %q", cfg.Database.Driver)
	}
	if (cfg.Catalog.Source == "sql" || cfg.Checkpoint.Backend == "sql") && cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required when the sql backend is used")
	}

	switch cfg.Retrieval.Provider {
	case "trigram", "ollama":
	case "genai":
		if cfg.Retrieval.GenAI.APIKey == "" {
			return fmt.Errorf("retrieval.genai.api_key is required for the genai provider")
		}
	default:
		return fmt.Errorf("unsupported retrieval.provider %q", cfg.Retrieval.Provider)
	}
	if cfg.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval.top_k must be positive")
	}
	if cfg.Retrieval.MinScore < -1 || cfg.Retrieval.MinScore > 1 {
		return fmt.Errorf("retrieval.min_score must be within [-1, 1]")
	}

	switch cfg.Generator.Provider {
	case "none", "ollama":
	case "genai":
		if cfg.Generator.GenAI.APIKey == "" {
			return fmt.Errorf("generator.genai.api_key is required for the genai provider")
		}
	default:
		return fmt.Errorf("unsupported generator.provider %q", cfg.Generator.Provider)
	}

	return nil
}
