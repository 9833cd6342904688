package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"forecast-bot/internal/analytics"
	"forecast-bot/internal/session"
)

// Controller — контроллер диалога. Маршрутизирует входящие события
// (команды, текст, кнопки, оплаты) по фазам сценария и гарантирует,
// что платная разблокировка выполняется не более одного раза на событие.
type Controller struct {
	sessions  *session.Store
	gen       Generator
	rec       Recorder
	out       Sender
	logger    *zap.Logger
	partDelay time.Duration
}

// NewController создает контроллер диалога.
func NewController(sessions *session.Store, gen Generator, rec Recorder, out Sender, logger *zap.Logger, partDelay time.Duration) *Controller {
	return &Controller{
		sessions:  sessions,
		gen:       gen,
		rec:       rec,
		out:       out,
		logger:    logger,
		partDelay: partDelay,
	}
}

// HandleStart обрабатывает команду /start: приветствие, шаблон анкеты,
// сброс времени старта сессии и учет запуска.
func (c *Controller) HandleStart(ctx context.Context, user User) {
	c.logger.Info("Пользователь запустил бота", zap.Int64("userID", user.ID))
	c.sessions.Begin(user.ID)
	c.send(user.ID, msgGreeting)
	c.send(user.ID, msgQuestionnaire)
	c.recordUsage(user, analytics.Delta{Start: 1})
}

// HandleText обрабатывает произвольное текстовое сообщение: заполненную
// анкету, секретную фразу тестовой покупки либо нераспознанный ввод.
func (c *Controller) HandleText(ctx context.Context, user User, text string, messageID int) {
	switch {
	case isQuestionnaire(text):
		c.handleQuestionnaire(ctx, user, text)
	case text == secretPurchasePhrase:
		c.logger.Info("Секретная покупка", zap.Int64("userID", user.ID))
		c.unlockFuture(ctx, user, fmt.Sprintf("secret:%d:%d", user.ID, messageID))
	default:
		c.logger.Warn("Сообщение не распознано как анкета", zap.Int64("userID", user.ID))
		c.send(user.ID, msgNotRecognized)
	}
}

// handleQuestionnaire сохраняет анкету дословно и генерирует прогноз.
func (c *Controller) handleQuestionnaire(ctx context.Context, user User, text string) {
	c.logger.Info("Получена анкета", zap.Int64("userID", user.ID))
	c.sessions.SetQuestionnaire(user.ID, text)

	noticeID, err := c.out.SendText(user.ID, msgAnalyzing)
	if err != nil {
		c.logger.Warn("Не удалось отправить уведомление о прогрессе", zap.Int64("userID", user.ID), zap.Error(err))
	}

	result, err := c.gen.GeneratePrediction(ctx, text)
	if err != nil {
		c.logger.Error("Ошибка при генерации прогноза", zap.Int64("userID", user.ID), zap.Error(err))
		c.send(user.ID, msgGenerationError)
		return
	}
	c.sessions.SetPrediction(user.ID, result)

	// Сообщение о прогрессе больше не нужно; неудача удаления не прерывает сценарий
	if noticeID != 0 {
		if err := c.out.DeleteMessage(user.ID, noticeID); err != nil {
			c.logger.Warn("Не удалось удалить сообщение о прогрессе", zap.Int64("userID", user.ID), zap.Error(err))
		}
	}

	c.sendLong(user.ID, msgPredictionHeader+result)
	c.logger.Info("Прогноз успешно отправлен", zap.Int64("userID", user.ID))
	c.recordUsage(user, analytics.Delta{Forecast: 1})

	buttons := []Button{
		{Text: btnUnlockText, Action: actionLearnScenarios},
		{Text: btnShareText, Action: actionSharePrediction},
		{Text: btnRetryText, Action: actionTryAgain},
	}
	if err := c.out.SendTextWithKeyboard(user.ID, msgUnlockOffer, buttons); err != nil {
		c.logger.Warn("Не удалось отправить предложение разблокировки", zap.Int64("userID", user.ID), zap.Error(err))
	}
}

// HandleCallback обрабатывает нажатие inline-кнопки.
func (c *Controller) HandleCallback(ctx context.Context, user User, callbackID, action string) {
	defer func() {
		if err := c.out.AnswerCallback(callbackID, ""); err != nil {
			c.logger.Warn("Не удалось ответить на callback", zap.String("callbackID", callbackID), zap.Error(err))
		}
	}()

	switch action {
	case actionLearnScenarios:
		c.logger.Info("Пользователь нажал на кнопку 'Узнать про сценарии'", zap.Int64("userID", user.ID))
		c.send(user.ID, msgPayExplainer)
		if err := c.out.SendInvoice(user.ID, invoiceTitle, invoiceDescription, invoicePayload, invoiceCurrency, invoiceAmount); err != nil {
			c.logger.Error("Ошибка при отправке счёта", zap.Int64("userID", user.ID), zap.Error(err))
			c.send(user.ID, msgInvoiceError)
			return
		}
		c.logger.Info("Счёт на 1 звезду отправлен", zap.Int64("userID", user.ID))
	case actionSharePrediction:
		sess, ok := c.sessions.Get(user.ID)
		if !ok || sess.LastPrediction == "" {
			c.send(user.ID, msgNoQuestionnaire)
			return
		}
		c.sendLong(user.ID, msgPredictionHeader+sess.LastPrediction+msgShareFooter)
	case actionTryAgain:
		c.logger.Info("Пользователь начал заново", zap.Int64("userID", user.ID))
		c.sessions.Reset(user.ID)
		c.send(user.ID, msgQuestionnaire)
	default:
		c.logger.Warn("Неизвестное действие кнопки", zap.String("action", action))
	}
}

// HandlePreCheckout подтверждает запрос на оплату.
func (c *Controller) HandlePreCheckout(ctx context.Context, queryID string) {
	c.logger.Info("Получен pre_checkout_query", zap.String("queryID", queryID))
	if err := c.out.AnswerPreCheckout(queryID, true); err != nil {
		c.logger.Error("Не удалось подтвердить pre_checkout_query", zap.String("queryID", queryID), zap.Error(err))
	}
}

// HandlePayment обрабатывает успешную оплату. Идентификатор платежа
// служит токеном идемпотентности: Telegram может доставить событие повторно.
func (c *Controller) HandlePayment(ctx context.Context, user User, payload, chargeID string) {
	c.logger.Info("Получена успешная оплата", zap.String("payload", payload), zap.Int64("userID", user.ID))
	if payload != invoicePayload {
		c.logger.Error("Неизвестный payload оплаты, требуется внимание оператора",
			zap.String("payload", payload), zap.Int64("userID", user.ID))
		c.send(user.ID, msgPaymentUnknown)
		return
	}
	c.unlockFuture(ctx, user, "payment:"+chargeID)
}

// HandleTestPayment обрабатывает команду /testpay — тестовый путь разблокировки.
func (c *Controller) HandleTestPayment(ctx context.Context, user User, messageID int) {
	c.logger.Info("Тестовая оплата", zap.Int64("userID", user.ID))
	c.unlockFuture(ctx, user, fmt.Sprintf("testpay:%d:%d", user.ID, messageID))
}

// unlockFuture — единая операция платной разблокировки. Все три пути
// (оплата, команда /testpay, секретная фраза) сходятся сюда: токен
// потребляется не более одного раза, без анкеты генерация не выполняется.
func (c *Controller) unlockFuture(ctx context.Context, user User, token string) {
	if !c.sessions.MarkProcessed(token) {
		c.logger.Info("Повторное событие разблокировки, игнорируем",
			zap.Int64("userID", user.ID), zap.String("token", token))
		c.send(user.ID, msgAlreadyProcessed)
		return
	}

	sess, ok := c.sessions.Get(user.ID)
	if !ok || sess.Questionnaire == "" {
		c.logger.Warn("Анкета не найдена", zap.Int64("userID", user.ID))
		c.send(user.ID, msgNoQuestionnaire)
		return
	}

	c.send(user.ID, msgPaymentSuccess)

	future, err := c.gen.GenerateFuture(ctx, sess.Questionnaire, sess.LastPrediction)
	if err != nil {
		c.logger.Error("Ошибка при генерации событий", zap.Int64("userID", user.ID), zap.Error(err))
		c.send(user.ID, msgFutureError)
		return
	}

	c.sendLong(user.ID, msgFutureHeader+future)
	c.send(user.ID, msgTryAnother)
	c.logger.Info("3 события успешно отправлены", zap.Int64("userID", user.ID))
	c.recordUsage(user, analytics.Delta{Forecast: 1, Payment: 1})
}

// send отправляет короткое сообщение; ошибка отправки только логируется.
func (c *Controller) send(userID int64, text string) {
	if _, err := c.out.SendText(userID, text); err != nil {
		c.logger.Warn("Не удалось отправить сообщение", zap.Int64("userID", userID), zap.Error(err))
	}
}

// sendLong отправляет текст частями не длиннее лимита транспорта,
// с паузой между частями ради ограничений на частоту отправки.
func (c *Controller) sendLong(userID int64, text string) {
	for i, part := range splitMessage(text, messageLimit) {
		if i > 0 && c.partDelay > 0 {
			time.Sleep(c.partDelay)
		}
		c.send(userID, part)
	}
}

// recordUsage обновляет статистику использования; сбой учета не прерывает сценарий.
func (c *Controller) recordUsage(user User, d analytics.Delta) {
	minutes := c.sessions.ConsumeElapsed(user.ID)
	if err := c.rec.Record(user.ID, user.DisplayName, d, minutes); err != nil {
		c.logger.Warn("Не удалось обновить статистику использования",
			zap.Int64("userID", user.ID), zap.Error(err))
	}
}

// isQuestionnaire проверяет, что сообщение похоже на заполненную анкету:
// достаточно присутствия двух обязательных меток в любом месте текста.
// Структурного разбора остальных полей намеренно нет.
func isQuestionnaire(text string) bool {
	return strings.Contains(text, formMarkerAge) && strings.Contains(text, formMarkerCountry)
}
