package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/umbrasol/umbrasol/internal/store"
)

// Habit is the subconscious-loop habit learner (Layer 4): it records
// "when [time-slot] in [app] -> user did [command]" counts and can
// predict a likely next action once a count crosses a threshold.
// Grounded on original_source/core/habit.py's HabitManager.
type Habit struct {
	store *store.Store
}

func NewHabit(s *store.Store) *Habit {
	return &Habit{store: s}
}

const defaultPredictThreshold = 3

// TimeSlot reproduces HabitManager._get_time_slot exactly: 05:00-11:59
// Morning, 12:00-16:59 Afternoon, 17:00-21:59 Evening, else Night.
func TimeSlot(t time.Time) string {
	h := t.Hour()
	switch {
	case h >= 5 && h < 12:
		return "Morning"
	case h >= 12 && h < 17:
		return "Afternoon"
	case h >= 17 && h < 22:
		return "Evening"
	default:
		return "Night"
	}
}

// AppName reproduces HabitManager's active-window parsing: split on "-"
// and take the last token (the whole title if there's no dash), trimmed
// and capped at 20 runes; "Unknown" if the title is empty.
func AppName(activeWindow string) string {
	if activeWindow == "" {
		return "Unknown"
	}
	parts := strings.Split(activeWindow, "-")
	r := []rune(strings.TrimSpace(parts[len(parts)-1]))
	if len(r) > 20 {
		r = r[:20]
	}
	return string(r)
}

// ContextKey builds the "<slot>|<app>" key habits are stored under.
func ContextKey(now time.Time, activeWindow string) string {
	return TimeSlot(now) + "|" + AppName(activeWindow)
}

func (h *Habit) counts(ctx context.Context, contextKey string) (map[string]int, error) {
	var raw string
	err := h.store.QueryRow(ctx, `SELECT counts FROM habits WHERE context = ?`, contextKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		return map[string]int{}, nil
	}
	return counts, nil
}

// Learn records that command was executed in the given context, bumping
// its count by one. Mirrors HabitManager.learn.
func (h *Habit) Learn(ctx context.Context, now time.Time, activeWindow, command string) error {
	key := ContextKey(now, activeWindow)
	counts, err := h.counts(ctx, key)
	if err != nil {
		return err
	}
	counts[command]++
	raw, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	_, err = h.store.Exec(ctx,
		`INSERT INTO habits (context, counts) VALUES (?, ?)
		 ON CONFLICT(context) DO UPDATE SET counts = excluded.counts, updated_at = CURRENT_TIMESTAMP`,
		key, string(raw))
	return err
}

// Predict returns the most frequent command recorded for this context and
// its count, if that count meets defaultPredictThreshold. Mirrors
// HabitManager.predict. Currently unused by the Orchestrator's main
// pipeline (spec §4.5 keeps heuristics ahead of habit suggestion — see
// SPEC_FULL.md §10's "Speculative routing" supplemented-feature note) but kept
// available for a future auto-suggestion surface.
func (h *Habit) Predict(ctx context.Context, now time.Time, activeWindow string) (string, int, error) {
	key := ContextKey(now, activeWindow)
	counts, err := h.counts(ctx, key)
	if err != nil {
		return "", 0, err
	}
	var bestCmd string
	var bestCount int
	for cmd, count := range counts {
		if count > bestCount {
			bestCmd, bestCount = cmd, count
		}
	}
	if bestCount >= defaultPredictThreshold {
		return bestCmd, bestCount, nil
	}
	return "", 0, nil
}
