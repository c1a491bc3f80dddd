package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a loaded configuration cannot be used.
var ErrInvalid = errors.New("invalid config")

const (
	ResponderRules = "rules"
	ResponderLLM   = "llm"

	MemoryInMemory = "memory"
	MemoryRedis    = "redis"
)

// Config represents runtime configuration for the service and the widget client.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config" yaml:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases" yaml:"databases"`
	Redis       RedisConfig               `json:"redis" yaml:"redis"`
	Providers   map[string]ProviderConfig `json:"providers" yaml:"providers"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	Model   string `json:"model" yaml:"model"`
	APIKey  string `json:"api_key" yaml:"api_key"`
}

type BasicConfig struct {
	ServerAddress     string `json:"server_address" yaml:"server_address"`
	BackendURL        string `json:"backend_url" yaml:"backend_url"`
	Responder         string `json:"responder" yaml:"responder"`
	Provider          string `json:"provider" yaml:"provider"`
	Model             string `json:"model" yaml:"model"`
	WebSearch         bool   `json:"web_search" yaml:"web_search"`
	MemoryBackend     string `json:"memory_backend" yaml:"memory_backend"`
	MinWorkers        int    `json:"min_workers" yaml:"min_workers"`
	MaxWorkers        int    `json:"max_workers" yaml:"max_workers"`
	QueueSize         int    `json:"queue_size" yaml:"queue_size"`
	WorkerIdleTimeout int    `json:"worker_idle_timeout" yaml:"worker_idle_timeout"` // seconds
	LogLevel          string `json:"log_level" yaml:"log_level"`
	LogFormat         string `json:"log_format" yaml:"log_format"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn" yaml:"dsn"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DBName   string `json:"db_name" yaml:"db_name"`
	Params   string `json:"params" yaml:"params"`
}

type RedisConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// Default returns a configuration that runs without any file: rule-based
// responder, in-process name memory, local server.
func Default() *Config {
	return &Config{
		BasicConfig: BasicConfig{
			ServerAddress:     ":5000",
			BackendURL:        "http://127.0.0.1:5000",
			Responder:         ResponderRules,
			MemoryBackend:     MemoryInMemory,
			MinWorkers:        1,
			MaxWorkers:        8,
			QueueSize:         64,
			WorkerIdleTimeout: 30,
			LogLevel:          "info",
			LogFormat:         "text",
		},
		Databases: map[string]DatabaseConfig{},
		Providers: map[string]ProviderConfig{},
	}
}

// Load reads configuration from the provided path. An empty path falls back to
// MOODCHAT_CONFIG, then to config.json when present, then to defaults.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
// MOODCHAT_* environment variables (optionally from a .env file) win over the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("MOODCHAT_CONFIG")
	}
	explicit := path != ""
	if path == "" {
		path = "config.json"
	}

	cfg := Default()
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	switch {
	case err == nil:
		if err := decode(absPath, data, cfg); err != nil {
			return nil, err
		}
		resolveSQLitePath(cfg, filepath.Dir(absPath))
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no file, defaults only
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode config: %w", err)
		}
	}
	return nil
}

// relative sqlite DSNs are resolved against the config file directory
func resolveSQLitePath(cfg *Config, dir string) {
	for _, name := range []string{"sqlite", "sqlite3"} {
		db, ok := cfg.Databases[name]
		if !ok || db.DSN == "" || db.DSN == ":memory:" || strings.HasPrefix(db.DSN, "file:") {
			continue
		}
		if !filepath.IsAbs(db.DSN) {
			db.DSN = filepath.Join(dir, db.DSN)
			cfg.Databases[name] = db
		}
	}
}

func applyEnv(cfg *Config) {
	b := &cfg.BasicConfig
	setString(&b.ServerAddress, "MOODCHAT_ADDR")
	setString(&b.BackendURL, "MOODCHAT_BACKEND_URL")
	setString(&b.Responder, "MOODCHAT_RESPONDER")
	setString(&b.Provider, "MOODCHAT_PROVIDER")
	setString(&b.Model, "MOODCHAT_MODEL")
	setString(&b.MemoryBackend, "MOODCHAT_MEMORY")
	setString(&b.LogLevel, "MOODCHAT_LOG_LEVEL")
	setString(&b.LogFormat, "MOODCHAT_LOG_FORMAT")
	setInt(&b.MaxWorkers, "MOODCHAT_MAX_WORKERS")
	setInt(&b.QueueSize, "MOODCHAT_QUEUE_SIZE")
	if v, err := strconv.ParseBool(os.Getenv("MOODCHAT_WEB_SEARCH")); err == nil {
		b.WebSearch = v
	}

	setString(&cfg.Redis.Host, "MOODCHAT_REDIS_HOST")
	setInt(&cfg.Redis.Port, "MOODCHAT_REDIS_PORT")
	setString(&cfg.Redis.Password, "MOODCHAT_REDIS_PASSWORD")

	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	// provider keys may come from the usual vendor variables
	for _, name := range []string{"openai", "claude", "gemini"} {
		envKey := strings.ToUpper(name) + "_API_KEY"
		key := os.Getenv(envKey)
		if key == "" {
			continue
		}
		p := cfg.Providers[name]
		if p.APIKey == "" {
			p.APIKey = key
			cfg.Providers[name] = p
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}

// Validate checks the cross-field constraints.
func (c *Config) Validate() error {
	b := c.BasicConfig
	switch b.Responder {
	case ResponderRules:
	case ResponderLLM:
		if b.Provider == "" {
			return fmt.Errorf("%w: provider is required for the llm responder", ErrInvalid)
		}
		if _, ok := c.Providers[b.Provider]; !ok {
			return fmt.Errorf("%w: provider %s not configured", ErrInvalid, b.Provider)
		}
	default:
		return fmt.Errorf("%w: unknown responder %q", ErrInvalid, b.Responder)
	}

	switch strings.ToLower(b.MemoryBackend) {
	case MemoryInMemory, MemoryRedis:
	case "sqlite", "sqlite3", "mysql":
		if _, ok := c.Databases[b.MemoryBackend]; !ok {
			return fmt.Errorf("%w: database config for %s not found", ErrInvalid, b.MemoryBackend)
		}
	default:
		return fmt.Errorf("%w: unknown memory backend %q", ErrInvalid, b.MemoryBackend)
	}

	if b.MaxWorkers <= 0 {
		return fmt.Errorf("%w: max_workers must be positive", ErrInvalid)
	}
	return nil
}
