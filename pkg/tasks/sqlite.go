package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS task_owners (
	owner TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS tasks (
	owner       TEXT NOT NULL,
	id          TEXT NOT NULL,
	position    INTEGER NOT NULL,
	description TEXT NOT NULL,
	client      TEXT NOT NULL DEFAULT '',
	order_id    TEXT NOT NULL DEFAULT '',
	priority    TEXT NOT NULL,
	status      TEXT NOT NULL,
	type        TEXT NOT NULL DEFAULT '',
	due_date    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (owner, id)
);
CREATE INDEX IF NOT EXISTS idx_tasks_owner_position ON tasks(owner, position);
`

// SQLiteStore persists tasks in a SQLite database. Owners are seeded once;
// deleting every task does not bring the seed back.
type SQLiteStore struct {
	db   *sql.DB
	seed []Task
	mu   sync.Mutex
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral store.
func OpenSQLite(ctx context.Context, path string, seed []Task) (*SQLiteStore, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("tasks: open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("tasks: apply schema: %w", err)
	}
	return &SQLiteStore{db: db, seed: append([]Task(nil), seed...)}, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// List returns the owner's tasks ordered by position.
func (s *SQLiteStore) List(ctx context.Context, owner string) ([]Task, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSeeded(ctx, owner); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, client, order_id, priority, status, type, due_date
		FROM tasks WHERE owner = ? ORDER BY position`, owner)
	if err != nil {
		return nil, fmt.Errorf("tasks: list: %w", err)
	}
	defer rows.Close()

	out := []Task{}
	for rows.Next() {
		var t Task
		var priority, status, typ string
		if err := rows.Scan(&t.ID, &t.Description, &t.Client, &t.OrderID, &priority, &status, &typ, &t.DueDate); err != nil {
			return nil, fmt.Errorf("tasks: scan: %w", err)
		}
		t.Priority = Priority(priority)
		t.Status = Status(status)
		t.Type = Type(typ)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tasks: list: %w", err)
	}
	return out, nil
}

// Create appends a task for the owner.
func (s *SQLiteStore) Create(ctx context.Context, owner string, task Task) (Task, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return Task{}, err
	}
	task, err = normalizeTask(task)
	if err != nil {
		return Task{}, err
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if err := s.ensureSeeded(ctx, owner); err != nil {
		return Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := insertTask(ctx, s.db, owner, task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// Toggle flips the task status.
func (s *SQLiteStore) Toggle(ctx context.Context, owner, id string) (Task, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return Task{}, err
	}
	if err := s.ensureSeeded(ctx, owner); err != nil {
		return Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var t Task
	var priority, status, typ string
	err = s.db.QueryRowContext(ctx, `
		SELECT id, description, client, order_id, priority, status, type, due_date
		FROM tasks WHERE owner = ? AND id = ?`, owner, id).
		Scan(&t.ID, &t.Description, &t.Client, &t.OrderID, &priority, &status, &typ, &t.DueDate)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("tasks: load %s: %w", id, err)
	}
	t.Priority = Priority(priority)
	t.Status = Status(status)
	t.Type = Type(typ)
	t = t.Toggled()
	if _, err := s.db.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE owner = ? AND id = ?`, string(t.Status), owner, id); err != nil {
		return Task{}, fmt.Errorf("tasks: toggle %s: %w", id, err)
	}
	return t, nil
}

// Delete removes the task.
func (s *SQLiteStore) Delete(ctx context.Context, owner, id string) error {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return err
	}
	if err := s.ensureSeeded(ctx, owner); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("tasks: delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ensureSeeded(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("tasks: begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO task_owners(owner) VALUES (?)`, owner)
	if err != nil {
		return fmt.Errorf("tasks: register owner: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return tx.Commit()
	}
	for _, task := range s.seed {
		if err := insertTask(ctx, tx, owner, task); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTask(ctx context.Context, db execer, owner string, t Task) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks(owner, id, position, description, client, order_id, priority, status, type, due_date)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM tasks WHERE owner = ?), ?, ?, ?, ?, ?, ?, ?)`,
		owner, t.ID, owner, t.Description, t.Client, t.OrderID, string(t.Priority), string(t.Status), string(t.Type), t.DueDate)
	if err != nil {
		return fmt.Errorf("tasks: insert %s: %w", t.ID, err)
	}
	return nil
}
