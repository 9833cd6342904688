package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию бота прогнозов.
type Config struct {
	// Токен Telegram-бота (обязательный)
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	BotDebug bool   `envconfig:"BOT_DEBUG" default:"false"`

	// Настройки генератора прогнозов
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	ModelName     string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	GenTimeout    int    `envconfig:"GENERATION_TIMEOUT_SECONDS" default:"120"`
	GenMaxRetries int    `envconfig:"GENERATION_MAX_RETRIES" default:"3"`

	// Настройки логирования
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"console"`

	// Файл аналитики использования
	AnalyticsFile string `envconfig:"ANALYTICS_FILE" default:"analytics.csv"`

	// Настройки отправки: пауза между частями длинного сообщения
	SendPartDelay time.Duration `envconfig:"SEND_PART_DELAY" default:"300ms"`
	PollTimeout   int           `envconfig:"POLL_TIMEOUT_SECONDS" default:"30"`
}

// Load загружает конфигурацию из переменных окружения.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации бота: %w", err)
	}

	log.Printf("Конфигурация бота загружена:")
	log.Printf("  Bot Token: [ЗАГРУЖЕН]")
	log.Printf("  OpenAI API Key: [ЗАГРУЖЕН]")
	log.Printf("  Model: %s", cfg.ModelName)
	if cfg.OpenAIBaseURL != "" {
		log.Printf("  Base URL: %s", cfg.OpenAIBaseURL)
	}
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  Analytics File: %s", cfg.AnalyticsFile)
	log.Printf("  Send Part Delay: %v", cfg.SendPartDelay)

	return &cfg, nil
}
