// Package tasklog provides per-task structured logging for the
// Orchestrator's request pipeline.
//
// Each task gets one JSONL file in a configurable directory. Events
// capture every stage of the pipeline: cache/heuristic hits, brain calls
// (with full prompts), tool dispatches, retries, and the final
// checkpoint. This is ambient logging infrastructure, adapted from the
// teacher's own tasklog package — the Registry/TaskLog/nil-safe-method
// structure is domain-agnostic and kept verbatim; only the EventKind
// vocabulary changed, from the teacher's R1-R7 role-pipeline stages to
// this system's own cache/heuristic/brain/dispatch/retry stages.
//
// Design constraints:
//   - All TaskLog methods are nil-safe (no-op on nil receiver) so callers
//     don't need nil checks before every log call.
//   - Registry is the sole owner of JSONL persistence.
package tasklog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventKind labels a single structured event in the task log.
type EventKind string

const (
	KindTaskBegin    EventKind = "task_begin"
	KindTaskEnd      EventKind = "task_end"
	KindCacheHit     EventKind = "cache_hit"
	KindHeuristicHit EventKind = "heuristic_hit"
	KindBrainCall    EventKind = "brain_call"
	KindDispatch     EventKind = "dispatch"
	KindRetry        EventKind = "retry"
	KindCheckpoint   EventKind = "checkpoint"
)

// Event is one JSONL line in the task log. Fields are omitempty so each
// event only serializes relevant data.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp string    `json:"ts"`

	// task_begin / task_end
	TaskID      string `json:"task_id,omitempty"`
	Request     string `json:"request,omitempty"`
	Status      string `json:"status,omitempty"` // "completed" | "failed"
	ElapsedMs   int64  `json:"elapsed_ms,omitempty"`

	// cache_hit / heuristic_hit / dispatch / retry
	Tool    string `json:"tool,omitempty"`
	Command string `json:"command,omitempty"`
	Attempt int    `json:"attempt,omitempty"`
	Risk    string `json:"risk,omitempty"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`

	// brain_call
	SystemPrompt string `json:"system_prompt,omitempty"`
	UserPrompt   string `json:"user_prompt,omitempty"`
	Response     string `json:"response,omitempty"`

	// checkpoint
	Checkpoint string `json:"checkpoint,omitempty"`
}

// TaskLog is a handle for writing structured events for one task.
type TaskLog struct {
	taskID  string
	started time.Time
	mu      sync.Mutex
	f       *os.File
}

// Registry maps task IDs to open TaskLogs. It is the sole authority for
// creating and closing task log files.
type Registry struct {
	dir  string
	mu   sync.Mutex
	logs map[string]*TaskLog
}

// NewRegistry creates a Registry that writes one JSONL file per task
// under dir.
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir, logs: make(map[string]*TaskLog)}
}

// Open creates a new TaskLog for taskID, writes a task_begin event, and
// registers it. If a log for taskID is already open (e.g. a resumed
// task), it returns the existing log.
func (r *Registry) Open(taskID, request string) *TaskLog {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tl, ok := r.logs[taskID]; ok {
		return tl
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		log.Printf("[tasklog] could not create dir %s: %v", r.dir, err)
		return nil
	}
	path := filepath.Join(r.dir, taskID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("[tasklog] could not open %s: %v", path, err)
		return nil
	}

	tl := &TaskLog{taskID: taskID, started: time.Now(), f: f}
	r.logs[taskID] = tl
	tl.write(Event{Kind: KindTaskBegin, TaskID: taskID, Request: request})
	return tl
}

// Get returns the TaskLog for taskID, or nil if not found.
func (r *Registry) Get(taskID string) *TaskLog {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logs[taskID]
}

// Close writes a task_end event, flushes and closes the file, and
// removes the entry from the registry.
func (r *Registry) Close(taskID, status string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	tl, ok := r.logs[taskID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.logs, taskID)
	r.mu.Unlock()

	tl.mu.Lock()
	elapsed := time.Since(tl.started).Milliseconds()
	tl.mu.Unlock()

	tl.write(Event{Kind: KindTaskEnd, TaskID: taskID, Status: status, ElapsedMs: elapsed})

	tl.mu.Lock()
	if tl.f != nil {
		_ = tl.f.Close()
		tl.f = nil
	}
	tl.mu.Unlock()
}

// CacheHit writes a cache_hit event.
func (tl *TaskLog) CacheHit(tool, command string) {
	if tl == nil {
		return
	}
	tl.write(Event{Kind: KindCacheHit, Tool: tool, Command: command})
}

// HeuristicHit writes a heuristic_hit event.
func (tl *TaskLog) HeuristicHit(tool, command string) {
	if tl == nil {
		return
	}
	tl.write(Event{Kind: KindHeuristicHit, Tool: tool, Command: command})
}

// BrainCall writes a brain_call event with the full prompts and response.
func (tl *TaskLog) BrainCall(systemPrompt, userPrompt, response string) {
	if tl == nil {
		return
	}
	tl.write(Event{Kind: KindBrainCall, SystemPrompt: systemPrompt, UserPrompt: userPrompt, Response: response})
}

// Dispatch writes a dispatch event: a tool actually executed, its risk
// classification, and its result.
func (tl *TaskLog) Dispatch(tool, command, risk, result string, attempt int) {
	if tl == nil {
		return
	}
	tl.write(Event{Kind: KindDispatch, Tool: tool, Command: command, Risk: risk, Result: result, Attempt: attempt})
}

// Retry writes a retry event when the self-correction loop reprompts the
// brain after a failed action.
func (tl *TaskLog) Retry(tool, command, errMsg string, attempt int) {
	if tl == nil {
		return
	}
	tl.write(Event{Kind: KindRetry, Tool: tool, Command: command, Error: errMsg, Attempt: attempt})
}

// Checkpoint writes a checkpoint event recording the task's current
// resumable state.
func (tl *TaskLog) Checkpoint(checkpoint string) {
	if tl == nil {
		return
	}
	tl.write(Event{Kind: KindCheckpoint, Checkpoint: checkpoint})
}

// write appends one JSON line to the task log file. Adds timestamp,
// mutex-protected.
func (tl *TaskLog) write(e Event) {
	e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("[tasklog] marshal error: %v", err)
		return
	}
	tl.mu.Lock()
	defer tl.mu.Unlock()
	if tl.f == nil {
		return
	}
	if _, err = fmt.Fprintf(tl.f, "%s\n", data); err != nil {
		log.Printf("[tasklog] write error: %v", err)
	}
}
