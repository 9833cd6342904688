package bot

import (
	"context"

	"forecast-bot/internal/analytics"
)

// User — инициатор входящего события.
type User struct {
	ID          int64
	DisplayName string
}

// Generator — генератор прогнозов (внешний коллаборатор).
type Generator interface {
	// GeneratePrediction генерирует прогноз на 5 лет по тексту анкеты.
	GeneratePrediction(ctx context.Context, questionnaire string) (string, error)
	// GenerateFuture генерирует «3 ключевых события» с учётом предыдущего прогноза.
	GenerateFuture(ctx context.Context, questionnaire, previous string) (string, error)
}

// Recorder — учет использования бота (внешний коллаборатор).
type Recorder interface {
	Record(userID int64, displayName string, d analytics.Delta, usageMinutes float64) error
}

// Button — кнопка inline-клавиатуры.
type Button struct {
	Text   string
	Action string
}

// Sender — исходящие действия в чат-транспорт. Абстрагирован от Telegram,
// чтобы контроллер можно было тестировать без сети.
type Sender interface {
	// SendText отправляет сообщение и возвращает его идентификатор.
	SendText(userID int64, text string) (int, error)
	// SendTextWithKeyboard отправляет сообщение с inline-кнопками.
	SendTextWithKeyboard(userID int64, text string, buttons []Button) error
	// DeleteMessage удаляет сообщение (best-effort).
	DeleteMessage(userID int64, messageID int) error
	// SendInvoice выставляет счет на оплату.
	SendInvoice(userID int64, title, description, payload, currency string, amount int) error
	// AnswerPreCheckout подтверждает или отклоняет запрос на оплату.
	AnswerPreCheckout(queryID string, ok bool) error
	// AnswerCallback отвечает на нажатие inline-кнопки (снимает "часики").
	AnswerCallback(callbackID string, text string) error
}
