package memory

import (
	"context"
	"testing"
	"time"

	"github.com/umbrasol/umbrasol/internal/store"
	"github.com/umbrasol/umbrasol/internal/types"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCache_GetMissThenSetThenHit(t *testing.T) {
	c := NewCache(openTestStore(t))
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "check my battery"); err != nil || ok {
		t.Fatalf("Get on empty cache: ok=%v err=%v, want ok=false", ok, err)
	}

	if err := c.Set(ctx, "check my battery", types.ToolPhysical, ""); err != nil {
		t.Fatalf("Set: %v", err)
	}

	action, ok, err := c.Get(ctx, "check my battery")
	if err != nil || !ok {
		t.Fatalf("Get after Set: ok=%v err=%v, want ok=true", ok, err)
	}
	if action.Tool != types.ToolPhysical {
		t.Errorf("action.Tool = %q, want physical", action.Tool)
	}
}

func TestCache_FingerprintIsCaseAndWhitespaceInsensitive(t *testing.T) {
	if Fingerprint("  Check My Battery  ") != Fingerprint("check my battery") {
		t.Error("expected fingerprints to match after normalization")
	}
}

func TestCache_SetOverwritesPreviousAction(t *testing.T) {
	c := NewCache(openTestStore(t))
	ctx := context.Background()

	_ = c.Set(ctx, "do the thing", types.ToolStats, "cpu")
	_ = c.Set(ctx, "do the thing", types.ToolShell, "echo hi")

	action, ok, err := c.Get(ctx, "do the thing")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if action.Tool != types.ToolShell || action.Cmd != "echo hi" {
		t.Errorf("action = %+v, want the most recent Set", action)
	}
}

func TestTimeSlot_Buckets(t *testing.T) {
	cases := map[int]string{
		6:  "Morning",
		13: "Afternoon",
		19: "Evening",
		23: "Night",
		2:  "Night",
	}
	for hour, want := range cases {
		ts := time.Date(2026, 1, 1, hour, 0, 0, 0, time.UTC)
		if got := TimeSlot(ts); got != want {
			t.Errorf("TimeSlot(hour=%d) = %q, want %q", hour, got, want)
		}
	}
}

func TestAppName_SplitsOnDash(t *testing.T) {
	if got := AppName("document.txt - Visual Studio Code"); got != "Visual Studio Code" {
		t.Errorf("AppName = %q, want %q", got, "Visual Studio Code")
	}
}

func TestAppName_EmptyFallsBackToUnknown(t *testing.T) {
	if got := AppName(""); got != "Unknown" {
		t.Errorf("AppName(\"\") = %q, want Unknown", got)
	}
}

func TestHabit_LearnThenPredictBelowThreshold(t *testing.T) {
	h := NewHabit(openTestStore(t))
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	if err := h.Learn(ctx, now, "Firefox", "open tabs"); err != nil {
		t.Fatalf("Learn: %v", err)
	}
	cmd, count, err := h.Predict(ctx, now, "Firefox")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if cmd != "" || count != 0 {
		t.Errorf("Predict below threshold = (%q, %d), want (\"\", 0)", cmd, count)
	}
}

func TestHabit_PredictReturnsCommandOnceThresholdMet(t *testing.T) {
	h := NewHabit(openTestStore(t))
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < defaultPredictThreshold; i++ {
		if err := h.Learn(ctx, now, "Firefox", "open tabs"); err != nil {
			t.Fatalf("Learn: %v", err)
		}
	}
	cmd, count, err := h.Predict(ctx, now, "Firefox")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if cmd != "open tabs" || count != defaultPredictThreshold {
		t.Errorf("Predict = (%q, %d), want (\"open tabs\", %d)", cmd, count, defaultPredictThreshold)
	}
}

func TestExperience_SaveThenGetLesson(t *testing.T) {
	e := NewExperience(openTestStore(t))
	ctx := context.Background()

	if err := e.SaveLesson(ctx, "Restart Nginx", types.ToolShell, "systemctl restart nginx", ""); err != nil {
		t.Fatalf("SaveLesson: %v", err)
	}
	lesson, ok, err := e.GetRelevantLesson(ctx, "restart nginx")
	if err != nil || !ok {
		t.Fatalf("GetRelevantLesson: ok=%v err=%v", ok, err)
	}
	if !lesson.Success {
		t.Error("expected a successful lesson")
	}
}

func TestExperience_FailedLessonRecordsError(t *testing.T) {
	e := NewExperience(openTestStore(t))
	ctx := context.Background()

	if err := e.SaveLesson(ctx, "delete tmp", types.ToolShell, "rm -rf /tmp/x", "permission denied"); err != nil {
		t.Fatalf("SaveLesson: %v", err)
	}
	lesson, ok, err := e.GetRelevantLesson(ctx, "delete tmp")
	if err != nil || !ok {
		t.Fatalf("GetRelevantLesson: ok=%v err=%v", ok, err)
	}
	if lesson.Success || lesson.Error != "permission denied" {
		t.Errorf("lesson = %+v, want a failure with the recorded error", lesson)
	}
}

func TestExperience_GetRelevantLesson_MissReturnsFalse(t *testing.T) {
	e := NewExperience(openTestStore(t))
	ctx := context.Background()

	if _, ok, err := e.GetRelevantLesson(ctx, "never asked before"); err != nil || ok {
		t.Fatalf("GetRelevantLesson: ok=%v err=%v, want ok=false", ok, err)
	}
}
