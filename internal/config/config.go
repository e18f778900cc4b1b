package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DBConfig         `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Bot        BotConfig        `yaml:"bot"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Exports    ExportConfig     `yaml:"exports"`

	// Администраторы: им доступна выгрузка /export.
	AdminIDs    []int64 `yaml:"admin_ids"`
	CatalogPath string  `yaml:"catalog_path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
	// Таймаут long polling, секунд.
	Timeout int `yaml:"timeout"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	// Время жизни незавершённого выбора.
	DraftTTLMinutes int `yaml:"draft_ttl_minutes"`
}

func (c RedisConfig) DraftTTL() time.Duration {
	return time.Duration(c.DraftTTLMinutes) * time.Minute
}

type BotConfig struct {
	MaxWorkers    int     `yaml:"max_workers"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
	// Часовой пояс, в котором считается «сегодня».
	Timezone string `yaml:"timezone"`
}

// Location загружает часовой пояс бота; при ошибке возвращает локальный пояс сервера.
func (c BotConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type MonitoringConfig struct {
	PrometheusPort int `yaml:"prometheus_port"`
	HealthGRPCPort int `yaml:"health_grpc_port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ExportConfig struct {
	// Сколько дней назад и вперёд от сегодняшнего попадает в выгрузку.
	DaysBack    int `yaml:"days_back"`
	DaysForward int `yaml:"days_forward"`
}

var ErrMissingToken = errors.New("telegram bot token is not set")

// Load читает .env (если есть), YAML-файл с подстановкой переменных окружения
// и поверх применяет переменные окружения. Файл конфигурации необязателен.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			// Предварительная замена переменных окружения в YAML
			expanded := []byte(os.ExpandEnv(string(data)))
			if err := yaml.Unmarshal(expanded, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", configPath, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", configPath, err)
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Telegram.BotToken = getEnv("BOT_TOKEN", c.Telegram.BotToken)
	if admin := getEnvInt64("ADMIN_TG_ID", 0); admin != 0 && !c.IsAdmin(admin) {
		c.AdminIDs = append(c.AdminIDs, admin)
	}
	c.Redis.Address = getEnv("REDIS_ADDR", c.Redis.Address)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.App.Environment = getEnv("APP_ENV", c.App.Environment)
	c.CatalogPath = getEnv("CATALOG_PATH", c.CatalogPath)
	c.Database.applyEnv()
}

func (c *Config) setDefaults() {
	if c.App.Name == "" {
		c.App.Name = "bbq-bot"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.Telegram.Timeout <= 0 {
		c.Telegram.Timeout = 60
	}
	if c.Redis.DraftTTLMinutes <= 0 {
		c.Redis.DraftTTLMinutes = 60
	}
	if c.Bot.MaxWorkers <= 0 {
		c.Bot.MaxWorkers = 32
	}
	if c.Bot.RatePerSecond <= 0 {
		c.Bot.RatePerSecond = 3
	}
	if c.Bot.Burst <= 0 {
		c.Bot.Burst = 5
	}
	if c.Bot.Timezone == "" {
		c.Bot.Timezone = "Europe/Moscow"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Exports.DaysBack <= 0 {
		c.Exports.DaysBack = 30
	}
	if c.Exports.DaysForward <= 0 {
		c.Exports.DaysForward = 90
	}
	c.Database.setDefaults()
}

func (c *Config) validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return ErrMissingToken
	}
	return c.Database.validate()
}

func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
