package soul

import (
	"testing"

	"github.com/umbrasol/umbrasol/internal/types"
)

func collect(ch <-chan types.StreamEvent) []types.StreamEvent {
	var events []types.StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func streamChunks(chunks ...string) <-chan string {
	ch := make(chan string, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch
}

func TestParse_ThinkSayActSegmentsEmitInOrder(t *testing.T) {
	events := collect(Parse(streamChunks("THINK: checking battery\nSAY: let me check\nACT: physical,\n")))

	var kinds []types.StreamEventKind
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}

	foundReasoning, foundTalk, foundAction, foundDone := false, false, false, false
	for _, k := range kinds {
		switch k {
		case types.EventReasoning:
			foundReasoning = true
		case types.EventTalk:
			foundTalk = true
		case types.EventAction:
			foundAction = true
		case types.EventDone:
			foundDone = true
		}
	}
	if !foundReasoning || !foundTalk || !foundAction || !foundDone {
		t.Errorf("expected reasoning, talk, action, and done events; got kinds %v", kinds)
	}
}

func TestParse_ActionToolAndCommandParsed(t *testing.T) {
	events := collect(Parse(streamChunks("ACT: shell, ls -la\n")))
	var action types.Action
	found := false
	for _, ev := range events {
		if ev.Kind == types.EventAction {
			action = ev.Action
			found = true
		}
	}
	if !found {
		t.Fatal("expected an action event")
	}
	if action.Tool != types.ToolShell || action.Cmd != "ls -la" {
		t.Errorf("action = %+v, want {shell, ls -la}", action)
	}
}

func TestParse_NoActLineProducesNoActionEvent(t *testing.T) {
	events := collect(Parse(streamChunks("SAY: just chatting, no tool needed\n")))
	for _, ev := range events {
		if ev.Kind == types.EventAction {
			t.Error("expected no action event when no ACT: line appears")
		}
	}
}

func TestParse_ErrorChunkEmitsErrorEventAndStops(t *testing.T) {
	events := collect(Parse(streamChunks("SAY: partial\n", "ERROR: stream timed out")))
	// The talk delta of the first chunk is streamed before ERROR: arrives;
	// the error event must be the only event from that point on.
	errAt := -1
	for i, ev := range events {
		if ev.Kind == types.EventError {
			errAt = i
			break
		}
	}
	if errAt < 0 {
		t.Fatalf("expected an error event, got %+v", events)
	}
	if len(events)-errAt != 1 {
		t.Errorf("expected exactly one event after ERROR:, got %d: %+v", len(events)-errAt, events[errAt:])
	}
}

func TestParse_MultipleActLinesProduceMultipleActions(t *testing.T) {
	events := collect(Parse(streamChunks("ACT: stats,\nACT: physical,\n")))
	var actions []types.Action
	for _, ev := range events {
		if ev.Kind == types.EventAction {
			actions = append(actions, ev.Action)
		}
	}
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d: %+v", len(actions), actions)
	}
}

func TestNormalizeTool_ExactMatch(t *testing.T) {
	if got := NormalizeTool("shell"); got != types.ToolShell {
		t.Errorf("NormalizeTool(shell) = %q, want shell", got)
	}
}

func TestNormalizeTool_FuzzyMatch(t *testing.T) {
	if got := NormalizeTool("shell_exec"); got != types.ToolShell {
		t.Errorf("NormalizeTool(shell_exec) = %q, want shell", got)
	}
}

func TestNormalizeTool_UnknownFallsBackToStats(t *testing.T) {
	if got := NormalizeTool("banana"); got != types.ToolStats {
		t.Errorf("NormalizeTool(banana) = %q, want stats", got)
	}
}

func TestKeywordFallback_MatchesKnownIntent(t *testing.T) {
	actions := KeywordFallback("please check my battery level")
	if len(actions) != 1 {
		t.Fatalf("expected exactly one keyword fallback match, got %d: %+v", len(actions), actions)
	}
	if actions[0].Tool != types.ToolPhysical {
		t.Errorf("tool = %q, want physical", actions[0].Tool)
	}
}

func TestKeywordFallback_NoMatchForUnrelatedText(t *testing.T) {
	if actions := KeywordFallback("tell me a joke about cats"); len(actions) != 0 {
		t.Errorf("expected no keyword fallback match, got %+v", actions)
	}
}

func TestKeywordFallback_MultipleIntentsPreserveDiscoveryOrder(t *testing.T) {
	actions := KeywordFallback("check my battery then list files")
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d: %+v", len(actions), actions)
	}
	if actions[0].Tool != types.ToolPhysical || actions[1].Tool != types.ToolLs {
		t.Errorf("actions = %+v, want [physical, ls] in that order", actions)
	}
}

func TestKeywordFallback_DedupesRepeatedTool(t *testing.T) {
	actions := KeywordFallback("list the files and show me the file listing")
	if len(actions) != 1 {
		t.Errorf("expected a single deduped ls action, got %d: %+v", len(actions), actions)
	}
}

func TestKeywordFallback_LsExtractsPathAfterIn(t *testing.T) {
	actions := KeywordFallback("list files in the reports folder")
	if len(actions) != 1 || actions[0].Tool != types.ToolLs {
		t.Fatalf("expected a single ls action, got %+v", actions)
	}
	if actions[0].Cmd != "reports" {
		t.Errorf("cmd = %q, want %q", actions[0].Cmd, "reports")
	}
}

func TestKeywordFallback_NetStripsLeadingVerb(t *testing.T) {
	actions := KeywordFallback("search for the weather in Tokyo")
	if len(actions) != 1 || actions[0].Tool != types.ToolNet {
		t.Fatalf("expected a single net action, got %+v", actions)
	}
	if actions[0].Cmd != "weather in Tokyo" {
		t.Errorf("cmd = %q, want %q", actions[0].Cmd, "weather in Tokyo")
	}
}
