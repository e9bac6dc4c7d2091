package soul

import (
	"context"

	"github.com/umbrasol/umbrasol/internal/brain"
	"github.com/umbrasol/umbrasol/internal/types"
)

// Think runs the main decision pass: streams the brain's response to
// BuildPrompt and segments it into StreamEvents via Parse.
func Think(ctx context.Context, client *brain.Client, systemName, request, activeWindow string, lesson types.Lesson, hasLesson bool, errorContext string, opts brain.Options) <-chan types.StreamEvent {
	identity := Identity(systemName)
	prompt := BuildPrompt(request, activeWindow, lesson, hasLesson, errorContext)
	chunks, err := client.Stream(ctx, identity, prompt, opts)
	if err != nil {
		out := make(chan types.StreamEvent, 1)
		out <- types.StreamEvent{Kind: types.EventError, Text: err.Error()}
		close(out)
		return out
	}
	return Parse(chunks)
}

// Synthesize runs the result-aware second pass: given the action that was
// dispatched and its result, prompt for a short SAY-only summary and
// return the Parse stream of the reply (the caller keeps its talk events).
func Synthesize(ctx context.Context, client *brain.Client, systemName, request string, action types.Action, result string, opts brain.Options) <-chan types.StreamEvent {
	identity := Identity(systemName)
	prompt := SynthesisPrompt(request, action, result)
	chunks, err := client.Stream(ctx, identity, prompt, opts)
	if err != nil {
		out := make(chan types.StreamEvent, 1)
		out <- types.StreamEvent{Kind: types.EventError, Text: err.Error()}
		close(out)
		return out
	}
	return Parse(chunks)
}
