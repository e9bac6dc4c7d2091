package ui

import (
	"strings"
	"testing"

	"github.com/umbrasol/umbrasol/internal/types"
)

// --- eventDetail: UICacheHit / UIHeuristicHit ---

func TestEventDetail_CacheHit_ShowsToolAndCommand(t *testing.T) {
	ev := types.UIEvent{Kind: types.UICacheHit, Tool: types.ToolStats, Command: "cpu"}
	got := eventDetail(ev)
	if !strings.Contains(got, "stats") || !strings.Contains(got, "cpu") {
		t.Errorf("expected tool and command in detail, got %q", got)
	}
}

func TestEventDetail_HeuristicHit_EmptyWhenNoTool(t *testing.T) {
	ev := types.UIEvent{Kind: types.UIHeuristicHit}
	if got := eventDetail(ev); got != "" {
		t.Errorf("expected empty detail with no tool, got %q", got)
	}
}

// --- eventDetail: UIReasoning / UITalk / UISynthesis ---

func TestEventDetail_Talk_ClipsLongText(t *testing.T) {
	long := strings.Repeat("a", 100)
	ev := types.UIEvent{Kind: types.UITalk, Text: long}
	got := eventDetail(ev)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected clipped talk text to end with …, got %q", got)
	}
}

func TestEventDetail_Reasoning_ShortTextUnchanged(t *testing.T) {
	ev := types.UIEvent{Kind: types.UIReasoning, Text: "short"}
	if got := eventDetail(ev); got != "short" {
		t.Errorf("eventDetail = %q, want %q", got, "short")
	}
}

// --- eventDetail: UIDispatch ---

func TestEventDetail_Dispatch_ShowsToolRiskResult(t *testing.T) {
	ev := types.UIEvent{Kind: types.UIDispatch, Tool: types.ToolShell, Risk: types.RiskLow, Command: "ls", Result: "file1\nfile2"}
	got := eventDetail(ev)
	for _, want := range []string{"shell", "LOW"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in dispatch detail, got %q", want, got)
		}
	}
}

// --- eventDetail: UIRetry ---

func TestEventDetail_Retry_ShowsAttemptNumber(t *testing.T) {
	ev := types.UIEvent{Kind: types.UIRetry, Attempt: 2, Text: "exit status 1"}
	got := eventDetail(ev)
	if !strings.Contains(got, "attempt 2") {
		t.Errorf("expected 'attempt 2' in retry detail, got %q", got)
	}
}

// --- eventDetail: unknown kind ---

func TestEventDetail_UnknownKind(t *testing.T) {
	got := eventDetail(types.UIEvent{Kind: "unknown_kind"})
	if got != "" {
		t.Errorf("expected empty string for unknown kind, got %q", got)
	}
}

// --- dynamicStatus ---

func TestDynamicStatus_Dispatch_ShowsToolAndCommand(t *testing.T) {
	ev := types.UIEvent{Kind: types.UIDispatch, Tool: types.ToolLs, Command: "/home"}
	got := dynamicStatus(ev)
	if !strings.Contains(got, "ls") || !strings.Contains(got, "/home") {
		t.Errorf("expected tool/command in dynamicStatus, got %q", got)
	}
}

func TestDynamicStatus_Retry_ShowsAttemptNumber(t *testing.T) {
	ev := types.UIEvent{Kind: types.UIRetry, Attempt: 1, Text: "bad command"}
	got := dynamicStatus(ev)
	if !strings.Contains(got, "retry 1") {
		t.Errorf("expected 'retry 1' in dynamicStatus, got %q", got)
	}
}

func TestDynamicStatus_FallsBackToStaticLabel(t *testing.T) {
	ev := types.UIEvent{Kind: types.UICacheHit}
	got := dynamicStatus(ev)
	if !strings.Contains(got, "cache hit") {
		t.Errorf("expected static cache-hit label, got %q", got)
	}
}

func TestDynamicStatus_UnknownKindReturnsEmpty(t *testing.T) {
	got := dynamicStatus(types.UIEvent{Kind: "unknown_kind"})
	if got != "" {
		t.Errorf("expected empty string for unknown kind, got %q", got)
	}
}

// --- runeWidth ---

func TestRuneWidth_ASCIIIsOneColumn(t *testing.T) {
	for _, r := range "abcdefghijklmnopqrstuvwxyz0123456789 !@#" {
		if got := runeWidth(r); got != 1 {
			t.Errorf("runeWidth(%q) = %d, want 1", r, got)
		}
	}
}

func TestRuneWidth_CJKUnifiedIdeographsAreTwoColumns(t *testing.T) {
	for _, r := range "重新执行命令文件" {
		if got := runeWidth(r); got != 2 {
			t.Errorf("runeWidth(%q U+%04X) = %d, want 2", r, r, got)
		}
	}
}

func TestRuneWidth_HangulSyllablesAreTwoColumns(t *testing.T) {
	for _, r := range "한글" {
		if got := runeWidth(r); got != 2 {
			t.Errorf("runeWidth(%q U+%04X) = %d, want 2", r, r, got)
		}
	}
}

// --- clipCols ---

func TestClipCols_UnchangedWhenWithinLimit(t *testing.T) {
	s := "hello"
	if got := clipCols(s, 10); got != s {
		t.Errorf("clipCols(%q, 10) = %q, want unchanged", s, got)
	}
}

func TestClipCols_TruncatesAtRuneBoundaryForCJK(t *testing.T) {
	// "重新执行命令" = 6 CJK runes = 12 cols; clip to 8 cols → 4 runes + "…"
	s := "重新执行命令"
	got := clipCols(s, 8)
	runes := []rune(got)
	if runes[len(runes)-1] != '…' {
		t.Errorf("clipCols CJK: expected trailing …, got %q", got)
	}
	content := string(runes[:len(runes)-1])
	cols := 0
	for _, r := range content {
		cols += runeWidth(r)
	}
	if cols > 8 {
		t.Errorf("clipCols CJK: content is %d cols, want ≤ 8", cols)
	}
}

func TestClipCols_AppendsEllipsisOnlyWhenTrimmed(t *testing.T) {
	short := "ok"
	if got := clipCols(short, 10); strings.Contains(got, "…") {
		t.Errorf("clipCols: unexpected … in unchanged result %q", got)
	}
	long := strings.Repeat("a", 20)
	if got := clipCols(long, 10); !strings.HasSuffix(got, "…") {
		t.Errorf("clipCols: expected … suffix for truncated result, got %q", got)
	}
}

// --- dynamicStatus: CJK retry text stays within a bounded status line ---

func TestDynamicStatus_Retry_CJKFitsWithinOneLine(t *testing.T) {
	allCJK := strings.Repeat("重", 30) // 30 runes × 2 cols = 60 cols if unclipped
	ev := types.UIEvent{Kind: types.UIRetry, Attempt: 1, Text: allCJK}
	got := dynamicStatus(ev)

	cols := 0
	for _, r := range got {
		cols += runeWidth(r)
	}
	if cols > 70 {
		t.Errorf("dynamicStatus CJK: status is %d visual cols, want ≤ 70 (got %q)", cols, got)
	}
}
