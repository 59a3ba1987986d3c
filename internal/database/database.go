package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"gridcalc/internal/models"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"
)

const createdAtLayout = "02.01.2006 15:04:05"

// Journal хранит последние обработанные запросы в памяти процесса.
// База ":memory:" живет, пока открыто ее единственное соединение.
type Journal struct {
	db    *sql.DB
	limit int

	mu sync.Mutex
}

// Open создает журнал, который хранит не больше limit записей
func Open(limit int) (*Journal, error) {
	if limit < 1 {
		return nil, fmt.Errorf("размер журнала должен быть больше нуля: %d", limit)
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть базу данных: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	j := &Journal{db: db, limit: limit}
	if err := j.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) createTables() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS requests (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			session_id TEXT NOT NULL,
			request TEXT NOT NULL,
			status TEXT NOT NULL,
			result TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы requests: %w", err)
	}
	return nil
}

// Save добавляет запись и удаляет самые старые сверх лимита.
// Пустые ID и CreatedAt заполняются.
func (j *Journal) Save(ctx context.Context, entry *models.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt == "" {
		entry.CreatedAt = time.Now().Format(createdAtLayout)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO requests (id, session_id, request, status, result, elapsed_ms, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		entry.ID, entry.SessionID, entry.Request, entry.Status, entry.Result, entry.ElapsedMs, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения запроса: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM requests WHERE seq <= (SELECT MAX(seq) FROM requests) - ?", j.limit)
	if err != nil {
		return fmt.Errorf("ошибка очистки журнала: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка сохранения запроса: %w", err)
	}
	return nil
}

// Recent возвращает не больше limit последних записей, новые первыми
func (j *Journal) Recent(ctx context.Context, limit int) ([]models.Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT id, session_id, request, status, result, elapsed_ms, created_at FROM requests ORDER BY seq DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения журнала: %w", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Request, &e.Status, &e.Result, &e.ElapsedMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения записи журнала: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала: %w", err)
	}

	return entries, nil
}

func (j *Journal) Limit() int {
	return j.limit
}

func (j *Journal) Close() error {
	return j.db.Close()
}
