package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Системные промпты генератора. Анкета пользователя передается дословно,
// без ограничения длины: слишком длинный ввод проявится только как ошибка API.
const (
	predictionSystemPrompt = "Ты — опытный футуролог и лайф-коуч. На основе анкеты пользователя составь подробный, тёплый и конкретный прогноз его жизни через 5 лет, если он продолжит идти текущим путём. Пиши во втором лице, дружелюбно, с конкретными деталями: карьера, отношения, здоровье, финансы, мечты. Не упоминай, что ты ИИ. Ответ — связный текст без списков вопросов."

	futureSystemPrompt = "Ты — опытный футуролог и лайф-коуч. Пользователь уже получил прогноз своей жизни на 5 лет вперёд. Теперь назови ровно 3 ключевых события, которые могут произойти в его жизни через 5 лет, если он НЕ изменит свой текущий путь. Опирайся на анкету и предыдущий прогноз. Пиши во втором лице, конкретно и честно, каждое событие — отдельным абзацем с номером. Не упоминай, что ты ИИ."
)

// Client — клиент генератора прогнозов поверх API нейросети.
type Client struct {
	client     *openai.Client
	modelName  string
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
}

// Config содержит конфигурацию клиента генератора.
type Config struct {
	APIKey     string
	BaseURL    string
	ModelName  string
	Timeout    int
	MaxRetries int
}

// New создает новый экземпляр клиента генератора прогнозов.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("не указан API ключ генератора прогнозов")
	}

	if cfg.ModelName == "" {
		cfg.ModelName = openai.GPT4oMini
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 120
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:     openai.NewClientWithConfig(config),
		modelName:  cfg.ModelName,
		timeout:    time.Duration(cfg.Timeout) * time.Second,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}, nil
}

// GeneratePrediction генерирует прогноз жизни на 5 лет по анкете пользователя.
func (c *Client) GeneratePrediction(ctx context.Context, questionnaire string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: predictionSystemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: questionnaire,
		},
	}
	return c.complete(ctx, messages, "prediction")
}

// GenerateFuture генерирует «3 ключевых события» — платное продолжение прогноза.
// Предыдущий прогноз (если есть) передается как контекст ассистента.
func (c *Client) GenerateFuture(ctx context.Context, questionnaire, previous string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: futureSystemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: questionnaire,
		},
	}
	if previous != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: previous,
		})
	}
	return c.complete(ctx, messages, "future")
}

// complete выполняет запрос к API с ограниченным числом повторов.
func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessage, mode string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	attempts := 0
	for attempts < c.maxRetries {
		attempts++

		req := openai.ChatCompletionRequest{
			Model:       c.modelName,
			Messages:    messages,
			Temperature: 0.8,
			MaxTokens:   1500,
			TopP:        0.95,
		}

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			c.logger.Error("Ошибка при вызове CreateChatCompletion",
				zap.String("mode", mode), zap.Int("attempt", attempts), zap.Error(err))
			if attempts >= c.maxRetries {
				return "", fmt.Errorf("ошибка генерации после %d попыток: %w", attempts, err)
			}
			time.Sleep(time.Duration(attempts) * time.Second)
			continue
		}

		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			c.logger.Warn("Пустой ответ от API", zap.String("mode", mode), zap.Int("attempt", attempts))
			if attempts >= c.maxRetries {
				return "", errors.New("пустой ответ от API после нескольких попыток")
			}
			time.Sleep(time.Duration(attempts) * time.Second)
			continue
		}

		return resp.Choices[0].Message.Content, nil
	}

	return "", errors.New("не удалось получить ответ от API после нескольких попыток")
}
