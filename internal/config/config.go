package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ScopeGlobal = "global"
	ScopePost   = "post"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"server"`
	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`
	Board struct {
		// ValidatePostID отклоняет комментарии к несуществующим постам
		ValidatePostID bool `yaml:"validate_post_id"`
	} `yaml:"board"`
	Ranking struct {
		Scope string `yaml:"scope"`
	} `yaml:"ranking"`
	Expand struct {
		Synthesize   bool `yaml:"synthesize"`
		Placeholders int  `yaml:"placeholders"`
	} `yaml:"expand"`
	Monitor struct {
		Push   bool `yaml:"push"`
		Buffer int  `yaml:"buffer"`
	} `yaml:"monitor"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = "50053"
	cfg.Ranking.Scope = ScopeGlobal
	cfg.Expand.Synthesize = true
	cfg.Expand.Placeholders = 2
	cfg.Monitor.Push = true
	cfg.Monitor.Buffer = 16
	return cfg
}

// Addr - адрес для net.Listen
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// Load читает YAML поверх значений по умолчанию, затем .env и переменные окружения.
// Отсутствующий файл конфигурации не считается ошибкой.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("config file not found, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("BOARD_HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := os.LookupEnv("BOARD_PORT"); ok {
		cfg.Server.Port = v
	}
	if v, ok := os.LookupEnv("BOARD_POSTGRES_DSN"); ok {
		cfg.Postgres.DSN = v
	}
}

func (c *Config) Validate() error {
	if _, err := strconv.ParseUint(c.Server.Port, 10, 16); err != nil {
		return fmt.Errorf("invalid server port %q", c.Server.Port)
	}
	if c.Ranking.Scope != ScopeGlobal && c.Ranking.Scope != ScopePost {
		return fmt.Errorf("invalid ranking scope %q", c.Ranking.Scope)
	}
	if c.Expand.Placeholders < 0 {
		return fmt.Errorf("expand.placeholders must not be negative")
	}
	if c.Monitor.Buffer < 0 {
		return fmt.Errorf("monitor.buffer must not be negative")
	}
	return nil
}
