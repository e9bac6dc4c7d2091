// Package orchestrator is the Request Orchestrator (C7): the single
// entrypoint that turns one user request into a sensed-context lookup,
// a layered decision (cache, then heuristic, then brain), a dispatched
// action with self-correction, and durable learning. Grounded on
// original_source/core/umbrasol.py's UmbrasolCore.execute, with the
// retry-loop/circuit-breaker shape borrowed from the teacher's
// internal/roles/executor package.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/umbrasol/umbrasol/internal/bus"
	"github.com/umbrasol/umbrasol/internal/brain"
	"github.com/umbrasol/umbrasol/internal/config"
	"github.com/umbrasol/umbrasol/internal/hands"
	"github.com/umbrasol/umbrasol/internal/internet"
	"github.com/umbrasol/umbrasol/internal/memory"
	"github.com/umbrasol/umbrasol/internal/safety"
	"github.com/umbrasol/umbrasol/internal/soul"
	"github.com/umbrasol/umbrasol/internal/store"
	"github.com/umbrasol/umbrasol/internal/tasklog"
	"github.com/umbrasol/umbrasol/internal/types"
)

// Orchestrator owns every collaborator the request pipeline needs and
// bounds how many requests may run concurrently.
type Orchestrator struct {
	cfg config.Config

	store *store.Store
	hands hands.Hands
	brain *brain.Client
	net   *internet.Collaborator

	cache *memory.Cache
	habit *memory.Habit
	exp   *memory.Experience
	snap  *safety.Snapshotter

	bus  *bus.Bus
	logs *tasklog.Registry

	sem chan struct{}

	voiceEnabled bool
}

// New assembles an Orchestrator from its already-constructed
// collaborators. Config.MaxConcurrentTasks sizes the dispatch semaphore.
func New(cfg config.Config, st *store.Store, h hands.Hands, brainClient *brain.Client, net *internet.Collaborator, b *bus.Bus, logs *tasklog.Registry, snap *safety.Snapshotter) *Orchestrator {
	return &Orchestrator{
		cfg:   cfg,
		store: st,
		hands: h,
		brain: brainClient,
		net:   net,
		cache: memory.NewCache(st),
		habit: memory.NewHabit(st),
		exp:   memory.NewExperience(st),
		snap:  snap,
		bus:   b,
		logs:  logs,
		sem:   make(chan struct{}, cfg.MaxConcurrentTasks),
	}
}

// SetVoice toggles whether talk and synthesis text is spoken aloud,
// sentence by sentence as it streams, through Hands.GuiSpeak, mirroring
// the --voice CLI flag.
func (o *Orchestrator) SetVoice(enabled bool) {
	o.voiceEnabled = enabled
}

// Execute runs the full request lifecycle for one user utterance and
// returns a short human-readable summary. Bounded by the dispatch
// semaphore, held for the whole request: if MaxConcurrentTasks requests
// are already running, this call blocks until a slot frees up.
func (o *Orchestrator) Execute(ctx context.Context, request string) (string, error) {
	select {
	case o.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-o.sem }()

	taskID, err := o.store.AddTask(ctx, request)
	if err != nil {
		return "", fmt.Errorf("orchestrator: add task: %w", err)
	}
	tl := o.logs.Open(taskID, request)
	status := "failed"
	defer func() { o.logs.Close(taskID, status) }()

	summary, err := o.run(ctx, taskID, tl, request)
	if err != nil {
		_ = o.store.UpdateTaskCheckpoint(ctx, taskID, types.TaskFailed, err.Error())
		tl.Checkpoint(err.Error())
		o.bus.Publish(types.UIEvent{Kind: types.UIError, TaskID: taskID, Text: err.Error()})
		return "", err
	}
	status = "completed"
	_ = o.store.UpdateTaskCheckpoint(ctx, taskID, types.TaskCompleted, summary)
	tl.Checkpoint(summary)
	o.bus.Publish(types.UIEvent{Kind: types.UIDone, TaskID: taskID})
	return summary, nil
}

// run implements the ten-step lifecycle: context sensing, pre-emption of
// any speech still playing, cache, the zero-inference heuristic layer, the
// brain decision pass, dispatch with a bounded self-correction retry loop,
// learning writeback, and a final result-aware synthesis pass.
func (o *Orchestrator) run(ctx context.Context, taskID string, tl *tasklog.TaskLog, request string) (string, error) {
	activeWindow, _ := o.hands.ReadActiveWindow(ctx)
	o.hands.StopSpeaking()

	if action, ok, err := o.cache.Get(ctx, request); err == nil && ok {
		tl.CacheHit(string(action.Tool), action.Cmd)
		o.bus.Publish(types.UIEvent{Kind: types.UICacheHit, TaskID: taskID, Tool: action.Tool, Command: action.Cmd})
		return o.dispatchShortcut(ctx, taskID, tl, request, activeWindow, action)
	}

	if len(strings.Fields(request)) < o.cfg.HeuristicWordLimit {
		if action, ok := matchInstantMap(request); ok {
			tl.HeuristicHit(string(action.Tool), action.Cmd)
			o.bus.Publish(types.UIEvent{Kind: types.UIHeuristicHit, TaskID: taskID, Tool: action.Tool, Command: action.Cmd})
			return o.dispatchShortcut(ctx, taskID, tl, request, activeWindow, action)
		}
	}

	return o.think(ctx, taskID, tl, request, activeWindow)
}

// matchInstantMap reproduces umbrasol.py's zero-inference layer: the
// first InstantMap entry whose key is a case-insensitive substring of
// request wins, in table order.
func matchInstantMap(request string) (types.Action, bool) {
	lower := strings.ToLower(request)
	for _, entry := range types.InstantMap {
		if strings.Contains(lower, entry.Key) {
			return types.Action{Tool: entry.Tool, Cmd: entry.Cmd}, true
		}
	}
	return types.Action{}, false
}

// think drives the brain decision pass: stream THINK:/SAY:/ACT: events,
// relay reasoning/talk deltas to the bus, and dispatch the resulting
// action (or the keyword-intent fallback when the model emitted no ACT:
// line) through the retry loop.
func (o *Orchestrator) think(ctx context.Context, taskID string, tl *tasklog.TaskLog, request, activeWindow string) (string, error) {
	lesson, hasLesson, _ := o.exp.GetRelevantLesson(ctx, request)

	var talk strings.Builder
	var actions []types.Action
	var streamErr error

	events := soul.Think(ctx, o.brain, o.cfg.SystemName, request, activeWindow, lesson, hasLesson, "", brain.DefaultOptions)
	sentences := soul.NewSentenceBuffer(o.cfg.SentenceBufferWords)
	for ev := range events {
		switch ev.Kind {
		case types.EventReasoning:
			o.bus.Publish(types.UIEvent{Kind: types.UIReasoning, TaskID: taskID, Text: ev.Text})
		case types.EventTalk:
			talk.WriteString(ev.Text)
			o.bus.Publish(types.UIEvent{Kind: types.UITalk, TaskID: taskID, Text: ev.Text})
			if chunk, ready := sentences.Push(ev.Text); ready {
				o.speak(chunk)
			}
		case types.EventAction:
			actions = append(actions, ev.Action)
		case types.EventError:
			streamErr = fmt.Errorf("brain: %s", ev.Text)
		}
	}
	if chunk, ready := sentences.Flush(); ready {
		o.speak(chunk)
	}
	tl.BrainCall(soul.Identity(o.cfg.SystemName), soul.BuildPrompt(request, activeWindow, lesson, hasLesson, ""), talk.String())

	if streamErr != nil {
		return "", streamErr
	}

	if len(actions) == 0 {
		actions = soul.KeywordFallback(request)
	}

	if len(actions) == 0 {
		if talk.Len() > 0 {
			return strings.TrimSpace(talk.String()), nil
		}
		return "", fmt.Errorf("orchestrator: no action or response produced for request")
	}

	return o.dispatchActions(ctx, taskID, tl, request, activeWindow, actions)
}

// dispatchShortcut dispatches a cache- or heuristic-hit action exactly
// once, with no retry loop and no reprompt to the brain — the zero-
// inference layers never call the brain, matching spec §4.5 steps 4-5's
// "dispatch once (no retries)". It still learns a habit and a lesson from
// the outcome, but never upserts the semantic cache: that upsert (step 9)
// belongs solely to a single successful brain-produced action.
func (o *Orchestrator) dispatchShortcut(ctx context.Context, taskID string, tl *tasklog.TaskLog, request, activeWindow string, action types.Action) (string, error) {
	result, err := o.dispatchOnce(ctx, taskID, tl, action, 0)
	if err != nil {
		_ = o.exp.SaveLesson(ctx, request, action.Tool, action.Cmd, err.Error())
		return "", err
	}

	_ = o.habit.Learn(ctx, time.Now(), activeWindow, safety.Redact(action.Cmd))
	_ = o.exp.SaveLesson(ctx, request, action.Tool, action.Cmd, "")

	return result, nil
}

// dispatchActions runs the self-correction retry loop for every brain- (or
// keyword-fallback-) produced action, in discovery order, learning from
// each outcome. The semantic cache is upserted only when the request
// produced exactly one action and it succeeded, per spec §4.5 step 9.
// Synthesis runs over whichever actions succeeded, as long as at least one
// did; an all-failed batch returns the last action's error.
func (o *Orchestrator) dispatchActions(ctx context.Context, taskID string, tl *tasklog.TaskLog, request, activeWindow string, actions []types.Action) (string, error) {
	type outcome struct {
		action types.Action
		result string
	}
	var succeeded []outcome
	var lastErr error

	for _, action := range actions {
		result, err := o.retryDispatch(ctx, taskID, tl, action)
		if err != nil {
			lastErr = err
			_ = o.exp.SaveLesson(ctx, request, action.Tool, action.Cmd, err.Error())
			continue
		}
		_ = o.habit.Learn(ctx, time.Now(), activeWindow, safety.Redact(action.Cmd))
		_ = o.exp.SaveLesson(ctx, request, action.Tool, action.Cmd, "")
		succeeded = append(succeeded, outcome{action, result})
	}

	if len(succeeded) == 0 {
		return "", fmt.Errorf("orchestrator: all actions failed: %w", lastErr)
	}
	if len(actions) == 1 {
		_ = o.cache.Set(ctx, request, succeeded[0].action.Tool, safety.Redact(succeeded[0].action.Cmd))
	}

	combined := succeeded[0].result
	if len(succeeded) > 1 {
		var sb strings.Builder
		for _, s := range succeeded {
			fmt.Fprintf(&sb, "%s: %s\n", s.action.Tool, s.result)
		}
		combined = strings.TrimRight(sb.String(), "\n")
	}

	return o.synthesize(ctx, taskID, request, succeeded[0].action, combined), nil
}

// retryDispatch is the self-correction loop: on failure, reprompt the
// brain with the error as context and try again, up to MaxRetries times,
// backing off 2^attempt seconds between tries. A circuit breaker aborts
// immediately if a retry would repeat any (tool, cmd) pair already tried
// for this action — the brain is repeating itself rather than
// correcting. Grounded on the teacher's executor retry loop, redirected
// from the GGS loss signal to a plain error string per spec §4.5.
func (o *Orchestrator) retryDispatch(ctx context.Context, taskID string, tl *tasklog.TaskLog, action types.Action) (string, error) {
	var lastErr error
	tried := map[string]bool{}

	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		signature := string(action.Tool) + "|" + action.Cmd
		if attempt > 0 {
			if tried[signature] {
				return "", fmt.Errorf("orchestrator: circuit breaker tripped — identical retry of %s", signature)
			}
			tl.Retry(string(action.Tool), action.Cmd, lastErr.Error(), attempt)
			o.bus.Publish(types.UIEvent{Kind: types.UIRetry, TaskID: taskID, Tool: action.Tool, Command: action.Cmd, Text: lastErr.Error(), Attempt: attempt})
			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		tried[signature] = true

		result, err := o.dispatchOnce(ctx, taskID, tl, action, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if haveRetry, ok := o.reconsider(ctx, action, err); ok {
			action = haveRetry
		}
	}

	return "", fmt.Errorf("orchestrator: exhausted retries: %w", lastErr)
}

// dispatchOnce classifies risk, snapshots a HIGH-risk path argument
// (best-effort), dispatches action through the Hands/net table, and logs
// the attempt to the audit trail, task log, and bus. Shared by the
// no-retry shortcut path and every attempt of the brain path's retry loop.
func (o *Orchestrator) dispatchOnce(ctx context.Context, taskID string, tl *tasklog.TaskLog, action types.Action, attempt int) (string, error) {
	risk := safety.ClassifyRisk(action.Cmd)
	if risk == safety.High && o.snap != nil {
		if path := firstPathLikeArg(action.Cmd); path != "" {
			if _, snapErr := o.snap.Snapshot(path); snapErr != nil {
				log.Printf("[orchestrator] snapshot failed for %s: %v", path, snapErr)
			}
		}
	}

	result, err := dispatch(ctx, o.hands, o.net, action)
	_ = o.store.LogAction(ctx, taskID, action.Tool, safety.Redact(action.Cmd), truncate(result, 2000), types.Risk(risk))
	tl.Dispatch(string(action.Tool), action.Cmd, string(risk), truncate(result, 500), attempt)
	o.bus.Publish(types.UIEvent{Kind: types.UIDispatch, TaskID: taskID, Tool: action.Tool, Command: action.Cmd, Risk: types.Risk(risk), Result: result, Attempt: attempt})
	return result, err
}

// reconsider reprompts the brain with the failed action and its error so
// the next retry attempt can propose a corrected command, mirroring
// execute_task_stream's error_context-enriched reprompt.
func (o *Orchestrator) reconsider(ctx context.Context, failed types.Action, cause error) (types.Action, bool) {
	errorContext := fmt.Sprintf("Previous action '%s,%s' failed: %s. Propose a corrected ACT: line.", failed.Tool, failed.Cmd, cause)
	events := soul.Think(ctx, o.brain, o.cfg.SystemName, string(failed.Tool)+" "+failed.Cmd, "", types.Lesson{}, false, errorContext, brain.DefaultOptions)
	for ev := range events {
		if ev.Kind == types.EventAction {
			return ev.Action, true
		}
	}
	return types.Action{}, false
}

// synthesize runs the result-aware second pass and returns its SAY: text,
// falling back to a literal "tool: result" string if the brain produces
// nothing usable.
func (o *Orchestrator) synthesize(ctx context.Context, taskID, request string, action types.Action, result string) string {
	events := soul.Synthesize(ctx, o.brain, o.cfg.SystemName, request, action, result, brain.DefaultOptions)
	var talk strings.Builder
	sentences := soul.NewSentenceBuffer(o.cfg.SentenceBufferWords)
	for ev := range events {
		if ev.Kind == types.EventTalk {
			talk.WriteString(ev.Text)
			o.bus.Publish(types.UIEvent{Kind: types.UISynthesis, TaskID: taskID, Text: ev.Text})
			if chunk, ready := sentences.Push(ev.Text); ready {
				o.speak(chunk)
			}
		}
	}
	if chunk, ready := sentences.Flush(); ready {
		o.speak(chunk)
	}
	if talk.Len() == 0 {
		return fmt.Sprintf("%s: %s", action.Tool, truncate(result, 300))
	}
	return strings.TrimSpace(talk.String())
}

func (o *Orchestrator) speak(text string) {
	if !o.voiceEnabled || text == "" {
		return
	}
	if _, err := o.hands.GuiSpeak(text); err != nil {
		log.Printf("[orchestrator] speak failed: %v", err)
	}
}

func backoff(attempt int) time.Duration {
	d := 1
	for i := 0; i < attempt; i++ {
		d *= 2
	}
	return time.Duration(d) * time.Second
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// firstPathLikeArg returns the first whitespace-separated token in cmd
// that looks like a filesystem path ("/", "./" or "~/" prefixed), or "" if
// none is found — used to decide what a HIGH risk command's snapshot
// target should be.
func firstPathLikeArg(cmd string) string {
	for _, field := range strings.Fields(cmd) {
		if strings.HasPrefix(field, "/") || strings.HasPrefix(field, "./") || strings.HasPrefix(field, "~/") {
			return field
		}
	}
	return ""
}
