// Package ui renders a live view of the Orchestrator's request pipeline
// to stdout: a pipeline box per task, a flow line per pipeline stage, and
// a spinner while the brain is thinking. Grounded on the teacher's
// internal/ui/display.go (ANSI palette, spinner idiom, abort/resume
// suppression for a cancelled task), adapted from the teacher's R1-R7
// role-message vocabulary to this system's cache/heuristic/brain/
// dispatch/retry pipeline stages.
package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/umbrasol/umbrasol/internal/types"
)

// ANSI codes
const (
	ansiReset   = "\033[0m"
	ansiBold    = "\033[1m"
	ansiDim     = "\033[2m"
	ansiCyan    = "\033[36m"
	ansiYellow  = "\033[33m"
	ansiGreen   = "\033[32m"
	ansiRed     = "\033[31m"
	ansiMagenta = "\033[35m"
	ansiBlue    = "\033[34m"
)

var kindColor = map[types.UIEventKind]string{
	types.UICacheHit:     ansiDim,
	types.UIHeuristicHit: ansiDim + ansiCyan,
	types.UIReasoning:    ansiDim,
	types.UITalk:         ansiCyan,
	types.UIDispatch:     ansiBlue,
	types.UIRetry:        ansiYellow,
	types.UISynthesis:    ansiMagenta,
	types.UIError:        ansiRed,
	types.UIDone:         ansiGreen,
}

var kindStatus = map[types.UIEventKind]string{
	types.UICacheHit:     "⚡ cache hit...",
	types.UIHeuristicHit: "⚡ heuristic match...",
	types.UIReasoning:    "🧠 thinking...",
	types.UITalk:         "💬 responding...",
	types.UIDispatch:     "⚙️  dispatching...",
	types.UIRetry:        "🔁 retrying...",
	types.UISynthesis:    "🔮 synthesizing...",
	types.UIError:        "❌ error...",
}

// dynamicStatus returns a spinner label for ev, enriched with payload
// detail for kinds where the static label alone isn't informative enough.
func dynamicStatus(ev types.UIEvent) string {
	switch ev.Kind {
	case types.UIDispatch:
		return fmt.Sprintf("⚙️  %s — %s", ev.Tool, clipCols(ev.Command, 38))
	case types.UIRetry:
		return fmt.Sprintf("🔁 retry %d — %s", ev.Attempt, clipCols(ev.Text, 38))
	}
	if s := kindStatus[ev.Kind]; s != "" {
		return s
	}
	return ""
}

var spinRunes = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// Display renders a live pipeline visualization to stdout. It reads from
// a bus tap channel and animates a status spinner between flow lines.
type Display struct {
	tap        <-chan types.UIEvent
	abortCh    chan struct{}
	resumeCh   chan struct{}
	mu         sync.Mutex
	status     string
	started    time.Time
	inTask     bool
	spinIdx    int
	suppressed bool // true after Abort(); blocks new pipeline boxes until Resume()
	taskDone   chan struct{}
}

// New creates a Display reading from tap.
func New(tap <-chan types.UIEvent) *Display {
	return &Display{tap: tap, abortCh: make(chan struct{}, 1), resumeCh: make(chan struct{}, 1)}
}

// Abort signals the display to immediately close the current pipeline box
// and suppress any subsequent stale events until Resume() is called.
func (d *Display) Abort() {
	select {
	case d.abortCh <- struct{}{}:
	default:
	}
}

// Resume lifts the post-abort suppression so the next task can open a
// pipeline box. Call this right before dispatching a new request.
func (d *Display) Resume() {
	select {
	case d.resumeCh <- struct{}{}:
	default:
	}
}

// Run is the main render goroutine: animates the spinner and prints flow
// lines as events arrive. All terminal writes happen on this one
// goroutine, so no extra locking is needed for I/O.
func (d *Display) Run(ctx context.Context) {
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Print("\r\033[K")
			return

		case <-d.abortCh:
			if d.inTask {
				fmt.Print("\r\033[K")
				d.endTask(false)
			}
			d.mu.Lock()
			d.suppressed = true
			d.mu.Unlock()

		case <-d.resumeCh:
			d.mu.Lock()
			d.suppressed = false
			d.mu.Unlock()

		case ev, ok := <-d.tap:
			if !ok {
				return
			}
			if !d.inTask {
				d.mu.Lock()
				sup := d.suppressed
				d.mu.Unlock()
				if sup {
					continue // drain stale post-abort events silently
				}
				d.startTask()
			}
			fmt.Print("\r\033[K")
			d.printFlow(ev)
			d.setStatus(dynamicStatus(ev))
			if ev.Kind == types.UIDone || ev.Kind == types.UIError {
				d.endTask(ev.Kind == types.UIDone)
			}

		case <-ticker.C:
			if !d.inTask {
				continue
			}
			frame := spinRunes[d.spinIdx%len(spinRunes)]
			d.spinIdx++
			d.mu.Lock()
			status := d.status
			d.mu.Unlock()
			fmt.Printf("\r\033[K%s%s%s %s", ansiCyan, string(frame), ansiReset, status)
		}
	}
}

// WaitTaskClose blocks until the current pipeline box is closed by
// endTask, or until timeout elapses. Call after a task finishes but
// before returning control to readline, so the footer prints first.
func (d *Display) WaitTaskClose(timeout time.Duration) {
	d.mu.Lock()
	ch := d.taskDone
	d.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case <-ch:
	case <-time.After(timeout):
	}
}

func (d *Display) startTask() {
	d.mu.Lock()
	d.taskDone = make(chan struct{})
	d.mu.Unlock()
	d.started = time.Now()
	d.inTask = true
	d.setStatus("sensing context...")
	fmt.Printf("\n%s┌─── ⚡ umbrasol %s%s\n", ansiDim, strings.Repeat("─", 42), ansiReset)
}

func (d *Display) endTask(success bool) {
	d.inTask = false
	elapsed := time.Since(d.started).Round(time.Millisecond)
	icon := "✅"
	if !success {
		icon = "❌"
	}
	fmt.Printf("\r\033[K%s└─── %s  %v %s%s\n", ansiDim, icon, elapsed, strings.Repeat("─", 37), ansiReset)
	d.mu.Lock()
	ch := d.taskDone
	d.taskDone = nil
	d.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

func (d *Display) setStatus(s string) {
	d.mu.Lock()
	d.status = s
	d.mu.Unlock()
}

func (d *Display) printFlow(ev types.UIEvent) {
	// task_end is surfaced via endTask; skip its own flow line.
	if ev.Kind == types.UIDone {
		return
	}

	label := string(ev.Kind)
	if det := eventDetail(ev); det != "" {
		label += ": " + det
	}

	color := kindColor[ev.Kind]
	if color == "" {
		color = ansiDim
	}

	isDim := ev.Kind == types.UICacheHit || ev.Kind == types.UIReasoning
	var line string
	if isDim {
		line = fmt.Sprintf("%s  umbrasol ──[%s]──► you%s", ansiDim, label, ansiReset)
	} else {
		line = fmt.Sprintf("  umbrasol ──[%s%s%s]──► you", color, label, ansiReset)
	}
	fmt.Println(line)
}

// eventDetail returns a short inline detail string for a pipeline flow
// line, or "" when ev carries nothing worth showing inline.
func eventDetail(ev types.UIEvent) string {
	switch ev.Kind {
	case types.UICacheHit, types.UIHeuristicHit:
		if ev.Tool != "" {
			return fmt.Sprintf("%s,%s", ev.Tool, clipCols(ev.Command, 40))
		}
	case types.UIReasoning, types.UITalk, types.UISynthesis:
		return clipCols(ev.Text, 55)
	case types.UIDispatch:
		return fmt.Sprintf("%s [%s] -> %s", ev.Tool, ev.Risk, clipCols(ev.Result, 32))
	case types.UIRetry:
		return fmt.Sprintf("attempt %d — %s", ev.Attempt, clipCols(ev.Text, 40))
	case types.UIError:
		return clipCols(ev.Text, 55)
	}
	return ""
}

// runeWidth returns the terminal column width of r (1 for most runes, 2
// for East Asian wide/fullwidth characters), via go-runewidth's east-Asian
// table rather than a hand-rolled range check.
func runeWidth(r rune) int {
	return runewidth.RuneWidth(r)
}

// clipCols truncates s to at most cols terminal columns, appending "…"
// when truncated. Widened from a simple rune-count clip (the teacher's
// original) to a column-aware one so CJK/full-width text doesn't silently
// overflow an 80-column status line.
func clipCols(s string, cols int) string {
	width := 0
	for _, r := range s {
		width += runeWidth(r)
	}
	if width <= cols {
		return s
	}
	var sb strings.Builder
	used := 0
	for _, r := range s {
		w := runeWidth(r)
		if used+w > cols {
			break
		}
		sb.WriteRune(r)
		used += w
	}
	return sb.String() + "…"
}

// Unused — satisfies Go's "declared and not used" check for ansiBold.
var _ = ansiBold
