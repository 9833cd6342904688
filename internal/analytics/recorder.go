package analytics

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// csvHeader повторяет раскладку исходного файла аналитики.
// Ключ строки — Логин (userID), имя пользователя перезаписывается последним увиденным.
var csvHeader = []string{
	"Имя пользователя",
	"Логин",
	"Нажатия /start",
	"Сгенерированные прогнозы",
	"Оплаты",
	"Время использования (мин)",
	"Последнее обновление",
}

const timeLayout = "2006-01-02 15:04:05"

// Delta — приращения счетчиков использования за одно событие.
type Delta struct {
	Start    int
	Forecast int
	Payment  int
}

// Recorder ведет учет использования бота в CSV-файле.
// Файл перечитывается и перезаписывается целиком на каждое обновление:
// объемы данных небольшие, а формат должен оставаться читаемым в табличном виде.
type Recorder struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder создает рекордер и при необходимости инициализирует файл заголовком.
func NewRecorder(path string, logger *zap.Logger) (*Recorder, error) {
	r := &Recorder{path: path, logger: logger, now: time.Now}
	if err := r.ensureFile(); err != nil {
		return nil, err
	}
	return r, nil
}

// Record добавляет приращения счетчиков и минуты использования к строке пользователя.
// Строка создается с нулями, если пользователя в файле еще нет. Счетчики
// только растут; минуты накапливаются. Имя пользователя обновляется каждый раз.
func (r *Recorder) Record(userID int64, displayName string, d Delta, usageMinutes float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.readAll()
	if err != nil {
		return err
	}

	key := strconv.FormatInt(userID, 10)
	idx := -1
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) >= 2 && rows[i][1] == key {
			idx = i
			break
		}
	}

	startCount, forecastCount, paymentCount := d.Start, d.Forecast, d.Payment
	minutes := usageMinutes
	if idx >= 0 {
		row := rows[idx]
		startCount += atoiSafe(row[2])
		forecastCount += atoiSafe(row[3])
		paymentCount += atoiSafe(row[4])
		minutes += atofSafe(row[5])
	}

	newRow := []string{
		displayName,
		key,
		strconv.Itoa(startCount),
		strconv.Itoa(forecastCount),
		strconv.Itoa(paymentCount),
		strconv.FormatFloat(minutes, 'f', 2, 64),
		r.now().Format(timeLayout),
	}

	if idx >= 0 {
		rows[idx] = newRow
	} else {
		rows = append(rows, newRow)
	}

	if err := r.writeAll(rows); err != nil {
		return err
	}

	r.logger.Debug("Статистика использования обновлена",
		zap.Int64("userID", userID),
		zap.Int("startCount", startCount),
		zap.Int("forecastCount", forecastCount),
		zap.Int("paymentCount", paymentCount),
	)
	return nil
}

// ensureFile создает CSV-файл с заголовком, если его еще нет.
func (r *Recorder) ensureFile() error {
	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("не удалось проверить файл аналитики %s: %w", r.path, err)
	}
	return r.writeAll([][]string{csvHeader})
}

func (r *Recorder) readAll() ([][]string, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return [][]string{csvHeader}, nil
		}
		return nil, fmt.Errorf("не удалось открыть файл аналитики %s: %w", r.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл аналитики %s: %w", r.path, err)
	}
	if len(rows) == 0 {
		rows = [][]string{csvHeader}
	}
	return rows, nil
}

func (r *Recorder) writeAll(rows [][]string) error {
	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("не удалось записать файл аналитики %s: %w", r.path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("не удалось записать строки аналитики: %w", err)
	}
	writer.Flush()
	return writer.Error()
}

func atoiSafe(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func atofSafe(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
