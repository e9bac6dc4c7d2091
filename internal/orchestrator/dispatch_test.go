package orchestrator

import (
	"testing"

	"github.com/umbrasol/umbrasol/internal/types"
)

func TestDispatchTable_CoversEverySafeTool(t *testing.T) {
	for tool := range types.SAFE_TOOLS {
		if _, ok := dispatchTable[tool]; !ok {
			t.Errorf("no dispatchTable entry for safe tool %q", tool)
		}
	}
}

func TestParseXY_CommaSeparated(t *testing.T) {
	x, y, err := parseXY("100,200")
	if err != nil {
		t.Fatalf("parseXY error: %v", err)
	}
	if x != 100 || y != 200 {
		t.Errorf("parseXY = (%d,%d), want (100,200)", x, y)
	}
}

func TestParseXY_SpaceSeparated(t *testing.T) {
	x, y, err := parseXY("50 75")
	if err != nil {
		t.Fatalf("parseXY error: %v", err)
	}
	if x != 50 || y != 75 {
		t.Errorf("parseXY = (%d,%d), want (50,75)", x, y)
	}
}

func TestParseXY_BadInput(t *testing.T) {
	if _, _, err := parseXY("not-a-coordinate"); err == nil {
		t.Error("expected error for malformed coordinate string")
	}
}

func TestParseTwoFields_Comma(t *testing.T) {
	a, b, err := parseTwoFields("eth0,down")
	if err != nil {
		t.Fatalf("parseTwoFields error: %v", err)
	}
	if a != "eth0" || b != "down" {
		t.Errorf("parseTwoFields = (%q,%q), want (eth0,down)", a, b)
	}
}

func TestParseTwoFields_Space(t *testing.T) {
	a, b, err := parseTwoFields("nginx restart")
	if err != nil {
		t.Fatalf("parseTwoFields error: %v", err)
	}
	if a != "nginx" || b != "restart" {
		t.Errorf("parseTwoFields = (%q,%q), want (nginx,restart)", a, b)
	}
}

func TestParseTwoFields_SingleFieldErrors(t *testing.T) {
	if _, _, err := parseTwoFields("onlyone"); err == nil {
		t.Error("expected error for single-field input")
	}
}

func TestFormatMap_SortsKeys(t *testing.T) {
	m := map[string]any{"cpu": 10, "ram": 20, "disk": 30}
	got, err := formatMap(m, nil)
	if err != nil {
		t.Fatalf("formatMap error: %v", err)
	}
	wantOrder := []string{"cpu", "disk", "ram"}
	pos := 0
	for _, want := range wantOrder {
		idx := indexOf(got, want)
		if idx < pos {
			t.Errorf("formatMap did not sort keys; expected %q after position %d, got %q", want, pos, got)
		}
		pos = idx
	}
}

func TestFormatMap_PropagatesError(t *testing.T) {
	_, err := formatMap(nil, errTest)
	if err != errTest {
		t.Errorf("formatMap did not propagate underlying error")
	}
}

var errTest = errSentinel("boom")

type errSentinel string

func (e errSentinel) Error() string { return string(e) }

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
