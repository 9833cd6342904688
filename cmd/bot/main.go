package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"forecast-bot/internal/ai"
	"forecast-bot/internal/analytics"
	"forecast-bot/internal/bot"
	"forecast-bot/internal/config"
	"forecast-bot/internal/logger"
	"forecast-bot/internal/session"
)

func main() {
	_ = godotenv.Load()
	log.Println("Запуск бота прогнозов...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer zl.Sync()
	zl.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	recorder, err := analytics.NewRecorder(cfg.AnalyticsFile, zl)
	if err != nil {
		zl.Fatal("Не удалось инициализировать файл аналитики", zap.Error(err))
	}

	generator, err := ai.New(ai.Config{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		ModelName:  cfg.ModelName,
		Timeout:    cfg.GenTimeout,
		MaxRetries: cfg.GenMaxRetries,
	}, zl)
	if err != nil {
		zl.Fatal("Не удалось создать клиент генератора прогнозов", zap.Error(err))
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		zl.Fatal("Не удалось подключиться к Telegram Bot API", zap.Error(err))
	}
	api.Debug = cfg.BotDebug
	zl.Info("Бот авторизован", zap.String("username", api.Self.UserName))

	store := session.NewStore()
	controller := bot.NewController(store, generator, recorder, bot.NewTelegramSender(api), zl, cfg.SendPartDelay)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zl.Info("🚀 Бот запущен...")
	bot.Run(ctx, api, controller, cfg.PollTimeout, zl)
	zl.Info("Бот остановлен")
}
