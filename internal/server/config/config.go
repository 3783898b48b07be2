package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config содержит настройки сервера. Заполняется из env-переменных
// и/или конфиг-файла app.env.
type Config struct {
	ListenAddr      string        `mapstructure:"LISTEN_ADDR"`
	DBPath          string        `mapstructure:"DB_PATH"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	VerifyThreshold float64       `mapstructure:"VERIFY_THRESHOLD"`
	RateLimit       int           `mapstructure:"RATE_LIMIT"`
	RateWindow      time.Duration `mapstructure:"RATE_WINDOW"`
	SendGridAPIKey  string        `mapstructure:"SENDGRID_API_KEY"`
	SenderEmail     string        `mapstructure:"SENDER_EMAIL"`
	AdminAPIKey     string        `mapstructure:"ADMIN_API_KEY"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
}

// LoadConfig читает конфигурацию из файла app.env в path и окружения.
// Окружение имеет приоритет над файлом.
func LoadConfig(path string) (Config, error) {
	viper.SetDefault("LISTEN_ADDR", ":8080")
	viper.SetDefault("DB_PATH", "devicebind.db")
	viper.SetDefault("ACCESS_TOKEN_TTL", 15*time.Minute)
	viper.SetDefault("REFRESH_TOKEN_TTL", 30*24*time.Hour)
	viper.SetDefault("VERIFY_THRESHOLD", 0.95)
	viper.SetDefault("RATE_LIMIT", 100)
	viper.SetDefault("RATE_WINDOW", time.Minute)
	viper.SetDefault("LOG_LEVEL", "info")

	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	// Явно биндим переменные, чтобы viper видел их и без конфиг-файла
	for _, key := range []string{
		"LISTEN_ADDR", "DB_PATH", "JWT_SECRET",
		"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"VERIFY_THRESHOLD", "RATE_LIMIT", "RATE_WINDOW",
		"SENDGRID_API_KEY", "SENDER_EMAIL", "ADMIN_API_KEY",
		"LOG_LEVEL",
	} {
		if err := viper.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("failed to bind env %s: %w", key, err)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// Файла может не быть - тогда работаем только на ENV
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate проверяет обязательные поля и диапазоны
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.VerifyThreshold <= 0 || c.VerifyThreshold > 1 {
		return fmt.Errorf("VERIFY_THRESHOLD must be in (0, 1], got %v", c.VerifyThreshold)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL must exceed ACCESS_TOKEN_TTL")
	}
	return nil
}
