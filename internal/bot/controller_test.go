package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"forecast-bot/internal/analytics"
	"forecast-bot/internal/session"
)

// mockGenerator — мок генератора прогнозов.
type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GeneratePrediction(ctx context.Context, questionnaire string) (string, error) {
	args := m.Called(ctx, questionnaire)
	return args.String(0), args.Error(1)
}

func (m *mockGenerator) GenerateFuture(ctx context.Context, questionnaire, previous string) (string, error) {
	args := m.Called(ctx, questionnaire, previous)
	return args.String(0), args.Error(1)
}

// fakeRecorder накапливает записанные дельты.
type fakeRecorder struct {
	mu     sync.Mutex
	deltas []analytics.Delta
	err    error
}

func (f *fakeRecorder) Record(userID int64, displayName string, d analytics.Delta, usageMinutes float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deltas = append(f.deltas, d)
	return f.err
}

func (f *fakeRecorder) totals() analytics.Delta {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total analytics.Delta
	for _, d := range f.deltas {
		total.Start += d.Start
		total.Forecast += d.Forecast
		total.Payment += d.Payment
	}
	return total
}

// fakeSender записывает исходящие действия вместо отправки в Telegram.
type fakeSender struct {
	mu            sync.Mutex
	texts         []string
	keyboards     []string
	buttons       [][]Button
	deleted       []int
	invoices      int
	precheckouts  []string
	callbacks     []string
	invoiceErr    error
	nextMessageID int
}

func (f *fakeSender) SendText(userID int64, text string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.nextMessageID++
	return f.nextMessageID, nil
}

func (f *fakeSender) SendTextWithKeyboard(userID int64, text string, buttons []Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyboards = append(f.keyboards, text)
	f.buttons = append(f.buttons, buttons)
	return nil
}

func (f *fakeSender) DeleteMessage(userID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeSender) SendInvoice(userID int64, title, description, payload, currency string, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invoiceErr != nil {
		return f.invoiceErr
	}
	f.invoices++
	return nil
}

func (f *fakeSender) AnswerPreCheckout(queryID string, ok bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.precheckouts = append(f.precheckouts, queryID)
	return nil
}

func (f *fakeSender) AnswerCallback(callbackID string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, callbackID)
	return nil
}

// countContains возвращает количество отправленных сообщений, содержащих подстроку.
func (f *fakeSender) countContains(sub string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, text := range f.texts {
		if strings.Contains(text, sub) {
			n++
		}
	}
	return n
}

func newTestController(t *testing.T) (*Controller, *mockGenerator, *fakeRecorder, *fakeSender, *session.Store) {
	t.Helper()
	gen := new(mockGenerator)
	rec := &fakeRecorder{}
	out := &fakeSender{}
	store := session.NewStore()
	c := NewController(store, gen, rec, out, zap.NewNop(), 0)
	return c, gen, rec, out, store
}

const validForm = "Мой возраст: 30, Страна, где я живу: X, Мечта: мир"

var testUser = User{ID: 123, DisplayName: "Иван"}

func TestHandleStart(t *testing.T) {
	c, _, rec, out, store := newTestController(t)

	c.HandleStart(context.Background(), testUser)

	require.Len(t, out.texts, 2)
	assert.Contains(t, out.texts[0], "УЗНАЙ, ЧТО ЖДЁТ ТЕБЯ ЧЕРЕЗ 5 ЛЕТ")
	assert.Contains(t, out.texts[1], "Мой возраст")
	assert.Equal(t, analytics.Delta{Start: 1}, rec.totals())

	_, ok := store.Get(testUser.ID)
	assert.True(t, ok, "после /start должна существовать сессия")
}

func TestHandleStart_CounterMonotonic(t *testing.T) {
	c, _, rec, _, _ := newTestController(t)

	for i := 0; i < 5; i++ {
		c.HandleStart(context.Background(), testUser)
	}

	assert.Equal(t, 5, rec.totals().Start)
}

func TestQuestionnaireAcceptance(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		accepted bool
	}{
		{"обе метки по порядку", "Мой возраст: 25\nСтрана, где я живу: Россия", true},
		{"обе метки в обратном порядке", "Страна, где я живу: Чили... Мой возраст: 40", true},
		{"метки внутри произвольного текста", "бла бла Мой возраст бла Страна, где я живу бла", true},
		{"нет метки страны", "Мой возраст: 25, живу где-то", false},
		{"нет метки возраста", "Страна, где я живу: Россия", false},
		{"пустое сообщение", "", false},
		{"другой регистр", "мой возраст: 25, страна, где я живу: Россия", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.accepted, isQuestionnaire(tc.text))
		})
	}
}

func TestHandleText_Questionnaire_Success(t *testing.T) {
	c, gen, rec, out, store := newTestController(t)
	gen.On("GeneratePrediction", mock.Anything, validForm).Return("<narrative A>", nil).Once()

	c.HandleText(context.Background(), testUser, validForm, 1)

	// Анкета сохранена дословно, прогноз сохранен
	sess, ok := store.Get(testUser.ID)
	require.True(t, ok)
	assert.Equal(t, validForm, sess.Questionnaire)
	assert.Equal(t, "<narrative A>", sess.LastPrediction)

	// Уведомление о прогрессе удалено (best-effort)
	assert.Equal(t, []int{1}, out.deleted)

	// Прогноз отправлен один раз, предложение разблокировки с кнопками
	assert.Equal(t, 1, out.countContains("<narrative A>"))
	require.Len(t, out.keyboards, 1)
	require.Len(t, out.buttons[0], 3)
	assert.Equal(t, actionLearnScenarios, out.buttons[0][0].Action)

	assert.Equal(t, analytics.Delta{Forecast: 1}, rec.totals())
	gen.AssertExpectations(t)
}

func TestHandleText_Questionnaire_GeneratorFailure(t *testing.T) {
	c, gen, rec, out, _ := newTestController(t)
	gen.On("GeneratePrediction", mock.Anything, validForm).Return("", errors.New("upstream rejected")).Once()

	c.HandleText(context.Background(), testUser, validForm, 1)

	assert.Equal(t, 1, out.countContains("Произошла ошибка при генерации прогноза"))
	assert.Empty(t, out.keyboards, "при ошибке генерации кнопки не отправляются")
	assert.Equal(t, analytics.Delta{}, rec.totals(), "неудачная генерация не учитывается")
	gen.AssertExpectations(t)
}

func TestHandleText_Rejected_DoesNotOverwriteStoredForm(t *testing.T) {
	c, gen, _, out, store := newTestController(t)
	gen.On("GeneratePrediction", mock.Anything, validForm).Return("<narrative A>", nil).Once()

	c.HandleText(context.Background(), testUser, validForm, 1)
	c.HandleText(context.Background(), testUser, "просто текст без анкеты", 2)

	assert.Equal(t, 1, out.countContains("Кажется, ты отправил что-то не то"))
	sess, _ := store.Get(testUser.ID)
	assert.Equal(t, validForm, sess.Questionnaire, "отклоненное сообщение не затирает анкету")
	gen.AssertNumberOfCalls(t, "GeneratePrediction", 1)
}

func TestUnlockFuture_Idempotent(t *testing.T) {
	c, gen, rec, out, store := newTestController(t)
	store.Begin(testUser.ID)
	store.SetQuestionnaire(testUser.ID, validForm)
	store.SetPrediction(testUser.ID, "<narrative A>")
	gen.On("GenerateFuture", mock.Anything, validForm, "<narrative A>").Return("<narrative B>", nil).Once()

	c.unlockFuture(context.Background(), testUser, "tok1")
	c.unlockFuture(context.Background(), testUser, "tok1")

	// Ровно одна генерация и одна отправка будущего; второй вызов — только подтверждение
	gen.AssertNumberOfCalls(t, "GenerateFuture", 1)
	assert.Equal(t, 1, out.countContains("<narrative B>"))
	assert.Equal(t, 1, out.countContains("Этот запрос уже обрабатывается"))
	assert.Equal(t, analytics.Delta{Forecast: 1, Payment: 1}, rec.totals())
}

func TestUnlockFuture_DifferentTokens(t *testing.T) {
	c, gen, _, out, store := newTestController(t)
	store.Begin(testUser.ID)
	store.SetQuestionnaire(testUser.ID, validForm)
	gen.On("GenerateFuture", mock.Anything, validForm, "").Return("<narrative B>", nil).Twice()

	c.unlockFuture(context.Background(), testUser, "tok1")
	c.unlockFuture(context.Background(), testUser, "tok2")

	gen.AssertNumberOfCalls(t, "GenerateFuture", 2)
	assert.Equal(t, 2, out.countContains("<narrative B>"))
}

func TestUnlockFuture_NoQuestionnaire(t *testing.T) {
	c, gen, rec, out, _ := newTestController(t)

	c.unlockFuture(context.Background(), testUser, "tok1")

	assert.Equal(t, 1, out.countContains("Сначала заполни анкету"))
	gen.AssertNumberOfCalls(t, "GenerateFuture", 0)
	assert.Equal(t, analytics.Delta{}, rec.totals())
}

func TestUnlockFuture_GeneratorFailure(t *testing.T) {
	c, gen, rec, out, store := newTestController(t)
	store.Begin(testUser.ID)
	store.SetQuestionnaire(testUser.ID, validForm)
	gen.On("GenerateFuture", mock.Anything, validForm, "").Return("", errors.New("timeout")).Once()

	c.unlockFuture(context.Background(), testUser, "tok1")

	assert.Equal(t, 1, out.countContains("Произошла ошибка при генерации событий"))
	assert.Equal(t, analytics.Delta{}, rec.totals(), "оплата не учитывается при неудачной генерации")
}

func TestHandlePayment_UnknownPayload(t *testing.T) {
	c, gen, _, out, store := newTestController(t)
	store.Begin(testUser.ID)
	store.SetQuestionnaire(testUser.ID, validForm)

	c.HandlePayment(context.Background(), testUser, "some_other_product", "charge1")

	assert.Equal(t, 1, out.countContains("Произошла ошибка при обработке оплаты"))
	gen.AssertNumberOfCalls(t, "GenerateFuture", 0)
}

func TestHandlePayment_NoQuestionnaire(t *testing.T) {
	c, gen, _, out, _ := newTestController(t)

	c.HandlePayment(context.Background(), testUser, invoicePayload, "charge1")

	assert.Equal(t, 1, out.countContains("Сначала заполни анкету"))
	gen.AssertNumberOfCalls(t, "GenerateFuture", 0)
}

func TestHandleText_SecretPhrase(t *testing.T) {
	c, gen, _, out, store := newTestController(t)
	store.Begin(testUser.ID)
	store.SetQuestionnaire(testUser.ID, validForm)
	gen.On("GenerateFuture", mock.Anything, validForm, "").Return("<narrative B>", nil).Twice()

	// Каждое сообщение с секретной фразой — отдельное событие разблокировки
	c.HandleText(context.Background(), testUser, secretPurchasePhrase, 10)
	c.HandleText(context.Background(), testUser, secretPurchasePhrase, 11)

	gen.AssertNumberOfCalls(t, "GenerateFuture", 2)
	assert.Equal(t, 2, out.countContains("<narrative B>"))
}

func TestHandleCallback_LearnScenarios(t *testing.T) {
	c, _, _, out, _ := newTestController(t)

	c.HandleCallback(context.Background(), testUser, "cb1", actionLearnScenarios)

	assert.Equal(t, 1, out.countContains("нужно оплатить 1 звезду"))
	assert.Equal(t, 1, out.invoices)
	assert.Equal(t, []string{"cb1"}, out.callbacks, "callback всегда получает ответ")
}

func TestHandleCallback_InvoiceFailure(t *testing.T) {
	c, _, _, out, _ := newTestController(t)
	out.invoiceErr = errors.New("invoice rejected")

	c.HandleCallback(context.Background(), testUser, "cb1", actionLearnScenarios)

	assert.Equal(t, 1, out.countContains("Произошла ошибка при создании счёта"))
	assert.Equal(t, []string{"cb1"}, out.callbacks)
}

func TestHandleCallback_TryAgain(t *testing.T) {
	c, _, _, out, store := newTestController(t)
	store.Begin(testUser.ID)
	store.SetQuestionnaire(testUser.ID, validForm)
	store.SetPrediction(testUser.ID, "<narrative A>")

	c.HandleCallback(context.Background(), testUser, "cb1", actionTryAgain)

	sess, _ := store.Get(testUser.ID)
	assert.Empty(t, sess.Questionnaire)
	assert.Empty(t, sess.LastPrediction)
	assert.Equal(t, 1, out.countContains("Вот анкета"))
}

func TestHandleCallback_SharePrediction(t *testing.T) {
	c, _, _, out, store := newTestController(t)

	t.Run("без прогноза", func(t *testing.T) {
		c.HandleCallback(context.Background(), testUser, "cb1", actionSharePrediction)
		assert.Equal(t, 1, out.countContains("Сначала заполни анкету"))
	})

	t.Run("с прогнозом", func(t *testing.T) {
		store.Begin(testUser.ID)
		store.SetPrediction(testUser.ID, "<narrative A>")
		c.HandleCallback(context.Background(), testUser, "cb2", actionSharePrediction)
		assert.Equal(t, 1, out.countContains("<narrative A>"))
		assert.Equal(t, 1, out.countContains("Поделись ботом с друзьями"))
	})
}

func TestHandlePreCheckout(t *testing.T) {
	c, _, _, out, _ := newTestController(t)

	c.HandlePreCheckout(context.Background(), "pcq1")

	assert.Equal(t, []string{"pcq1"}, out.precheckouts)
}

// TestEndToEndScenario — сквозной сценарий: /start → анкета → прогноз →
// разблокировка по токену → повторный токен дает только подтверждение.
func TestEndToEndScenario(t *testing.T) {
	c, gen, rec, out, _ := newTestController(t)
	ctx := context.Background()
	form := "Мой возраст: 30, Страна, где я живу: X, Мечта: объездить мир"

	gen.On("GeneratePrediction", mock.Anything, form).Return("<narrative A>", nil).Once()
	gen.On("GenerateFuture", mock.Anything, form, "<narrative A>").Return("<narrative B>", nil).Once()

	c.HandleStart(ctx, testUser)
	assert.Equal(t, 1, out.countContains("Вот анкета"))

	c.HandleText(ctx, testUser, form, 1)
	assert.Equal(t, 1, out.countContains("<narrative A>"))
	require.Len(t, out.keyboards, 1, "после прогноза приходит предложение разблокировки")

	c.HandlePayment(ctx, testUser, invoicePayload, "tok1")
	assert.Equal(t, 1, out.countContains("<narrative B>"))

	// Повторная доставка того же события оплаты
	c.HandlePayment(ctx, testUser, invoicePayload, "tok1")
	assert.Equal(t, 1, out.countContains("<narrative B>"), "повторный токен не дает второй генерации")
	assert.Equal(t, 1, out.countContains("Этот запрос уже обрабатывается"))

	gen.AssertNumberOfCalls(t, "GeneratePrediction", 1)
	gen.AssertNumberOfCalls(t, "GenerateFuture", 1)
	assert.Equal(t, analytics.Delta{Start: 1, Forecast: 2, Payment: 1}, rec.totals())
}
