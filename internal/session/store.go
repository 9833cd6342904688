package session

import (
	"sync"
	"time"
)

// Session хранит состояние диалога одного пользователя.
// Данные живут только в памяти процесса и теряются при перезапуске.
type Session struct {
	// Questionnaire — заполненная анкета, как её прислал пользователь
	Questionnaire string
	// LastPrediction — последний сгенерированный прогноз
	LastPrediction string
	// StartedAt — момент последнего /start
	StartedAt time.Time
	// lastEventAt — момент последнего учтённого события (для подсчёта минут)
	lastEventAt time.Time
}

// Store — потокобезопасное хранилище сессий и обработанных токенов подтверждения.
// Токены никогда не вытесняются в рамках жизни процесса: это принятое
// ограничение, рост множества ограничен временем жизни процесса.
type Store struct {
	mu        sync.Mutex
	sessions  map[int64]*Session
	processed map[string]struct{}
	now       func() time.Time
}

// NewStore создает пустое хранилище сессий.
func NewStore() *Store {
	return &Store{
		sessions:  make(map[int64]*Session),
		processed: make(map[string]struct{}),
		now:       time.Now,
	}
}

// NewStoreWithClock создает хранилище с подменяемыми часами (для тестов).
func NewStoreWithClock(now func() time.Time) *Store {
	s := NewStore()
	s.now = now
	return s
}

// Begin создает сессию пользователя или сбрасывает время старта существующей.
func (s *Store) Begin(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{}
		s.sessions[userID] = sess
	}
	sess.StartedAt = s.now()
	sess.lastEventAt = sess.StartedAt
}

// Get возвращает копию сессии пользователя.
func (s *Store) Get(userID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// SetQuestionnaire сохраняет текст анкеты дословно.
func (s *Store) SetQuestionnaire(userID int64, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(userID).Questionnaire = text
}

// SetPrediction сохраняет последний сгенерированный прогноз.
func (s *Store) SetPrediction(userID int64, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(userID).LastPrediction = text
}

// Reset очищает анкету и прогноз, сохраняя время старта сессии.
func (s *Store) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return
	}
	sess.Questionnaire = ""
	sess.LastPrediction = ""
}

// MarkProcessed отмечает токен подтверждения как обработанный.
// Возвращает false, если токен уже был обработан ранее — это защита
// от повторной доставки одного и того же события оплаты.
func (s *Store) MarkProcessed(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.processed[token]; seen {
		return false
	}
	s.processed[token] = struct{}{}
	return true
}

// ConsumeElapsed возвращает количество минут с последнего учтённого события
// и сдвигает отметку на текущий момент. Для пользователя без сессии — 0.
func (s *Store) ConsumeElapsed(userID int64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return 0
	}
	now := s.now()
	if sess.lastEventAt.IsZero() {
		sess.lastEventAt = now
		return 0
	}
	minutes := now.Sub(sess.lastEventAt).Minutes()
	sess.lastEventAt = now
	if minutes < 0 {
		return 0
	}
	return minutes
}

// ensure должен вызываться под мьютексом.
func (s *Store) ensure(userID int64) *Session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{StartedAt: s.now(), lastEventAt: s.now()}
		s.sessions[userID] = sess
	}
	return sess
}
