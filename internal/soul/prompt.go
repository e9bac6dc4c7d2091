package soul

import (
	"fmt"
	"strings"

	"github.com/umbrasol/umbrasol/internal/types"
)

// Identity reproduces execute_task_stream's identity string, parameterized
// on the configured system name instead of the hardcoded "Umbrasol".
func Identity(systemName string) string {
	return fmt.Sprintf(
		"You are %s, a highly capable local assistant running directly on this machine. "+
			"You possess independent reasoning, logical depth, and a helpful personality. "+
			"You are NOT a scripted bot. You think freely and articulately.",
		systemName,
	)
}

// BuildPrompt assembles the user-turn prompt handed to the brain: active
// window context, a relevant past lesson if one failed, the request
// itself, and the THINK:/SAY:/ACT: directive. Grounded on
// execute_task_stream's prompt string, widened with a THINK: segment
// (the original has only ACTION:/TALK:) per spec §4.4.
func BuildPrompt(request, activeWindow string, lesson types.Lesson, hasLesson bool, errorContext string) string {
	var sb strings.Builder
	sb.WriteString("Context: [Active Window: ")
	sb.WriteString(activeWindow)
	sb.WriteString("]\n")

	if hasLesson && !lesson.Success {
		sb.WriteString(fmt.Sprintf("XP: Previous attempt failed with '%s'\n", lesson.Error))
	}
	if errorContext != "" {
		sb.WriteString(errorContext)
		sb.WriteString("\n")
	}

	sb.WriteString("User: ")
	sb.WriteString(request)
	sb.WriteString("\n\n")
	sb.WriteString("DIRECTIVE:\n")
	sb.WriteString("1. You may optionally begin with 'THINK: ' to show brief reasoning.\n")
	sb.WriteString("2. If the user wants a system action (stats, battery, files, window, gui control), emit one or more lines 'ACT: tool,cmd'.\n")
	sb.WriteString("3. For conversation with no action, respond with 'SAY: ' followed by natural, flowing prose.\n")
	sb.WriteString("CRITICAL: no markdown symbols (**, #, _, *). No numbered or bulleted lists. " +
		"Do not say 'AI:' or 'Human:'. Speak as a human would.\n")
	return sb.String()
}

// SynthesisPrompt builds the result-aware second pass's user turn: given
// the action that was dispatched and its result, ask the brain for a
// short natural-language summary (SAY:-only, no further actions).
func SynthesisPrompt(request string, action types.Action, result string) string {
	return fmt.Sprintf(
		"User asked: %s\nYou ran %s(%s) and got: %s\n\n"+
			"Respond with a single 'SAY: ' line summarizing the result naturally. Do not emit any ACT: lines.",
		request, action.Tool, action.Cmd, result)
}
