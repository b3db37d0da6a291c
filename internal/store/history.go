package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("record not found")

type HistoryStore struct {
	DB *sql.DB
}

// NewHistoryStore opens the SQLite database at dbPath. ":memory:" keeps
// everything in-process; the pool is pinned to one connection so every
// query sees the same in-memory database.
func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	queries := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id TEXT,
			role TEXT,
			content TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			task TEXT,
			status TEXT,
			confidence REAL,
			plan_json TEXT,
			history_json TEXT,
			created_at DATETIME
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	return &HistoryStore{DB: db}, nil
}

func (h *HistoryStore) Close() error {
	return h.DB.Close()
}

func (h *HistoryStore) AddMessage(chatID string, role string, content string) error {
	query := `INSERT INTO messages (chat_id, role, content) VALUES (?, ?, ?)`
	_, err := h.DB.Exec(query, chatID, role, content)
	return err
}

// GetHistory returns the last limit messages for chatID, oldest first.
func (h *HistoryStore) GetHistory(chatID string, limit int) ([]Message, error) {
	query := `SELECT role, content, timestamp FROM messages WHERE chat_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := h.DB.Query(query, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		history = append(history, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to get chronological order
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	return history, nil
}

func (h *HistoryStore) ClearHistory(chatID string) error {
	_, err := h.DB.Exec(`DELETE FROM messages WHERE chat_id = ?`, chatID)
	return err
}

// SavePlan archives a finished planning session. A record without an ID
// gets a fresh one; saving an existing ID replaces it.
func (h *HistoryStore) SavePlan(rec PlanRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	query := `INSERT OR REPLACE INTO plans (id, task, status, confidence, plan_json, history_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := h.DB.Exec(query, rec.ID, rec.Task, rec.Status, rec.Confidence, string(rec.Plan), string(rec.History), rec.CreatedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("save plan: %w", err)
	}
	return rec.ID, nil
}

func (h *HistoryStore) GetPlan(id string) (*PlanRecord, error) {
	query := `SELECT id, task, status, confidence, plan_json, history_json, created_at FROM plans WHERE id = ?`
	rec, err := scanPlan(h.DB.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// ListPlans returns the most recent plans first.
func (h *HistoryStore) ListPlans(limit int) ([]PlanRecord, error) {
	query := `SELECT id, task, status, confidence, plan_json, history_json, created_at FROM plans ORDER BY created_at DESC LIMIT ?`
	rows, err := h.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlanRecord
	for rows.Next() {
		rec, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner) (*PlanRecord, error) {
	var rec PlanRecord
	var plan, history string
	if err := s.Scan(&rec.ID, &rec.Task, &rec.Status, &rec.Confidence, &plan, &history, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Plan = []byte(plan)
	rec.History = []byte(history)
	return &rec, nil
}
