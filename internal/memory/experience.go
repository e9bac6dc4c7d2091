package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/umbrasol/umbrasol/internal/store"
	"github.com/umbrasol/umbrasol/internal/types"
)

// Experience is the chronic-memory lesson store (Layer 7): it records
// whether a given request text previously succeeded or failed with a
// given tool/action, and surfaces that lesson the next time the same
// request text is seen. Grounded on
// original_source/core/experience.py's ExperienceManager.
type Experience struct {
	store *store.Store
}

func NewExperience(s *store.Store) *Experience {
	return &Experience{store: s}
}

// TaskKey reproduces ExperienceManager's task_key exactly: lowercased,
// trimmed request text.
func TaskKey(request string) string {
	return strings.ToLower(strings.TrimSpace(request))
}

// SaveLesson records a lesson for request — success if errMsg is empty,
// a recorded failure otherwise. Mirrors ExperienceManager.save_lesson.
func (e *Experience) SaveLesson(ctx context.Context, request string, tool types.Tool, action, errMsg string) error {
	lesson := types.Lesson{
		Tool:    tool,
		Action:  action,
		Error:   errMsg,
		Success: errMsg == "",
	}
	raw, err := json.Marshal(lesson)
	if err != nil {
		return err
	}
	key := TaskKey(request)
	_, err = e.store.Exec(ctx,
		`INSERT INTO experience (task_key, lesson) VALUES (?, ?)
		 ON CONFLICT(task_key) DO UPDATE SET lesson = excluded.lesson, updated_at = CURRENT_TIMESTAMP`,
		key, string(raw))
	return err
}

// GetRelevantLesson retrieves the most recent lesson for request, if any.
// Mirrors ExperienceManager.get_relevant_lesson.
func (e *Experience) GetRelevantLesson(ctx context.Context, request string) (types.Lesson, bool, error) {
	key := TaskKey(request)
	var raw string
	err := e.store.QueryRow(ctx, `SELECT lesson FROM experience WHERE task_key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return types.Lesson{}, false, nil
	}
	if err != nil {
		return types.Lesson{}, false, err
	}
	var lesson types.Lesson
	if err := json.Unmarshal([]byte(raw), &lesson); err != nil {
		return types.Lesson{}, false, nil
	}
	return lesson, true, nil
}
