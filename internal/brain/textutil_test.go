package brain

import "testing"

func TestStripThinkBlocks_RemovesSingleBlock(t *testing.T) {
	in := "<think>pondering</think>the answer is 42"
	if got := StripThinkBlocks(in); got != "the answer is 42" {
		t.Errorf("StripThinkBlocks = %q, want %q", got, "the answer is 42")
	}
}

func TestStripThinkBlocks_RemovesMultipleBlocks(t *testing.T) {
	in := "<think>a</think>first<think>b</think>second"
	if got := StripThinkBlocks(in); got != "firstsecond" {
		t.Errorf("StripThinkBlocks = %q, want %q", got, "firstsecond")
	}
}

func TestStripThinkBlocks_UnterminatedBlockTruncates(t *testing.T) {
	in := "before<think>never closes"
	if got := StripThinkBlocks(in); got != "before" {
		t.Errorf("StripThinkBlocks = %q, want %q", got, "before")
	}
}

func TestStripThinkBlocks_NoBlocksUnchanged(t *testing.T) {
	in := "plain text response"
	if got := StripThinkBlocks(in); got != in {
		t.Errorf("StripThinkBlocks = %q, want unchanged", got)
	}
}

func TestStripFences_RemovesCodeFence(t *testing.T) {
	in := "```json\n{\"tool\":\"shell\"}\n```"
	if got := StripFences(in); got != `{"tool":"shell"}` {
		t.Errorf("StripFences = %q, want %q", got, `{"tool":"shell"}`)
	}
}

func TestStripFences_RemovesThinkBlockThenFence(t *testing.T) {
	in := "<think>reasoning</think>```\nACT: shell, ls\n```"
	if got := StripFences(in); got != "ACT: shell, ls" {
		t.Errorf("StripFences = %q, want %q", got, "ACT: shell, ls")
	}
}

func TestStripFences_NoFenceUnchanged(t *testing.T) {
	in := "SAY: just talking"
	if got := StripFences(in); got != in {
		t.Errorf("StripFences = %q, want unchanged", got)
	}
}
