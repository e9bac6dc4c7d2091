package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/umbrasol/umbrasol/internal/types"
)

// AddTask inserts a new pending task and returns its generated ID.
// Mirrors OmegaMemory.add_task, with a UUID primary key instead of an
// autoincrement integer since tasks must be addressable across a restart
// without a surviving in-memory sequence.
func (s *Store) AddTask(ctx context.Context, request string) (string, error) {
	id := uuid.New().String()
	_, err := s.Exec(ctx,
		`INSERT INTO tasks (id, request, status) VALUES (?, ?, ?)`,
		id, request, types.TaskPending)
	if err != nil {
		return "", fmt.Errorf("store: add task: %w", err)
	}
	return id, nil
}

// UpdateTaskCheckpoint mirrors OmegaMemory.update_task_checkpoint: records
// the task's current status and a free-form checkpoint string (the
// Orchestrator writes the final summary or error text).
func (s *Store) UpdateTaskCheckpoint(ctx context.Context, taskID string, status types.TaskStatus, checkpoint string) error {
	_, err := s.Exec(ctx,
		`UPDATE tasks SET status = ?, checkpoint = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, checkpoint, taskID)
	if err != nil {
		return fmt.Errorf("store: update checkpoint: %w", err)
	}
	return nil
}

// GetPendingTasks mirrors OmegaMemory.get_pending_tasks: every task whose
// status is neither completed nor failed, for crash-recovery resume.
func (s *Store) GetPendingTasks(ctx context.Context) ([]types.Task, error) {
	rows, err := s.Query(ctx,
		`SELECT id, request, status, checkpoint, created_at, updated_at FROM tasks
		 WHERE status != ? AND status != ? ORDER BY created_at ASC`,
		types.TaskCompleted, types.TaskFailed)
	if err != nil {
		return nil, fmt.Errorf("store: get pending tasks: %w", err)
	}
	defer rows.Close()

	var out []types.Task
	for rows.Next() {
		var t types.Task
		var checkpoint sql.NullString
		if err := rows.Scan(&t.ID, &t.Request, &t.Status, &checkpoint, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan task: %w", err)
		}
		t.Checkpoint = checkpoint.String
		out = append(out, t)
	}
	return out, rows.Err()
}

// LogAction mirrors OmegaMemory.log_action, widened with a task_id and
// tool column so the audit trail can be filtered per task.
func (s *Store) LogAction(ctx context.Context, taskID string, tool types.Tool, command, result string, risk types.Risk) error {
	_, err := s.Exec(ctx,
		`INSERT INTO audit (task_id, tool, command, risk, result) VALUES (?, ?, ?, ?, ?)`,
		taskID, tool, command, risk, result)
	if err != nil {
		return fmt.Errorf("store: log action: %w", err)
	}
	return nil
}

// RecentAudit returns the most recent n audit rows, newest first — used by
// the health monitor and any future reporting surface.
func (s *Store) RecentAudit(ctx context.Context, n int) ([]types.AuditEntry, error) {
	rows, err := s.Query(ctx,
		`SELECT id, task_id, tool, command, risk, result, timestamp FROM audit
		 ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent audit: %w", err)
	}
	defer rows.Close()

	var out []types.AuditEntry
	for rows.Next() {
		var e types.AuditEntry
		var taskID sql.NullString
		if err := rows.Scan(&e.ID, &taskID, &e.Tool, &e.Command, &e.Risk, &e.Result, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("store: scan audit: %w", err)
		}
		e.TaskID = taskID.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// SavePreference mirrors OmegaMemory.save_preference's upsert.
func (s *Store) SavePreference(ctx context.Context, key, value, category string) error {
	_, err := s.Exec(ctx,
		`INSERT INTO knowledge (key, value, category) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value, category)
	if err != nil {
		return fmt.Errorf("store: save preference: %w", err)
	}
	return nil
}

// GetPreference mirrors OmegaMemory.get_preference.
func (s *Store) GetPreference(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.QueryRow(ctx, `SELECT value FROM knowledge WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get preference: %w", err)
	}
	return value, true, nil
}
