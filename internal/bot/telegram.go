package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramSender — реализация Sender поверх Telegram Bot API.
type TelegramSender struct {
	api *tgbotapi.BotAPI
}

// NewTelegramSender создает отправителя поверх подключенного Telegram-бота.
func NewTelegramSender(api *tgbotapi.BotAPI) *TelegramSender {
	return &TelegramSender{api: api}
}

func (t *TelegramSender) SendText(userID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (t *TelegramSender) SendTextWithKeyboard(userID int64, text string, buttons []Button) error {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Action),
		))
	}
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err := t.api.Send(msg)
	return err
}

func (t *TelegramSender) DeleteMessage(userID int64, messageID int) error {
	_, err := t.api.Request(tgbotapi.NewDeleteMessage(userID, messageID))
	return err
}

func (t *TelegramSender) SendInvoice(userID int64, title, description, payload, currency string, amount int) error {
	// Для Telegram Stars (XTR) токен платежного провайдера не нужен
	invoice := tgbotapi.NewInvoice(userID, title, description, payload, "", "", currency,
		[]tgbotapi.LabeledPrice{{Label: "Прогноз", Amount: amount}})
	_, err := t.api.Request(invoice)
	return err
}

func (t *TelegramSender) AnswerPreCheckout(queryID string, ok bool) error {
	_, err := t.api.Request(tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: queryID,
		OK:                 ok,
	})
	return err
}

func (t *TelegramSender) AnswerCallback(callbackID string, text string) error {
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

// Run запускает цикл long polling и раздает обновления контроллеру
// до отмены контекста. Каждое обновление обрабатывается в своей горутине:
// медленный вызов генератора одного пользователя не блокирует остальных.
func Run(ctx context.Context, api *tgbotapi.BotAPI, c *Controller, pollTimeout int, logger *zap.Logger) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go dispatch(ctx, c, update, logger)
		}
	}
}

// dispatch переводит обновление Telegram во входящее событие контроллера.
func dispatch(ctx context.Context, c *Controller, update tgbotapi.Update, logger *zap.Logger) {
	switch {
	case update.PreCheckoutQuery != nil:
		c.HandlePreCheckout(ctx, update.PreCheckoutQuery.ID)

	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		c.HandleCallback(ctx, userFrom(cb.From), cb.ID, cb.Data)

	case update.Message != nil:
		msg := update.Message
		user := User{ID: msg.Chat.ID, DisplayName: displayName(msg.From)}
		switch {
		case msg.SuccessfulPayment != nil:
			c.HandlePayment(ctx, user, msg.SuccessfulPayment.InvoicePayload, msg.SuccessfulPayment.TelegramPaymentChargeID)
		case msg.IsCommand() && msg.Command() == "start":
			c.HandleStart(ctx, user)
		case msg.IsCommand() && msg.Command() == "testpay":
			c.HandleTestPayment(ctx, user, msg.MessageID)
		case msg.IsCommand():
			logger.Info("Необработанная команда", zap.String("command", msg.Command()), zap.Int64("userID", user.ID))
			c.send(user.ID, msgNotRecognized)
		case msg.Text != "":
			c.HandleText(ctx, user, msg.Text, msg.MessageID)
		default:
			logger.Info("Необработанное сообщение", zap.Int64("userID", user.ID))
		}
	}
}

func userFrom(u *tgbotapi.User) User {
	if u == nil {
		return User{}
	}
	return User{ID: u.ID, DisplayName: displayName(u)}
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		name = u.UserName
	}
	return name
}
