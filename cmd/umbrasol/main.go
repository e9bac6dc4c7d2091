package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/chzyer/readline"

	"github.com/umbrasol/umbrasol/internal/bus"
	"github.com/umbrasol/umbrasol/internal/brain"
	"github.com/umbrasol/umbrasol/internal/config"
	"github.com/umbrasol/umbrasol/internal/hands"
	"github.com/umbrasol/umbrasol/internal/internet"
	"github.com/umbrasol/umbrasol/internal/orchestrator"
	"github.com/umbrasol/umbrasol/internal/safety"
	"github.com/umbrasol/umbrasol/internal/store"
	"github.com/umbrasol/umbrasol/internal/tasklog"
	"github.com/umbrasol/umbrasol/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if f, err := os.OpenFile(filepath.Join(cfg.LogDir, "umbrasol.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
		log.SetOutput(f)
		defer f.Close()
	}

	tier := config.DetectTier(context.Background())
	config.LogTier(tier, cfg.BrainModel)

	lockPath := filepath.Join(cfg.LogDir, "core.lock")
	crashed := acquireLock(lockPath)
	if crashed {
		log.Printf("[main] found stale lock file at %s — previous run did not shut down cleanly", lockPath)
	}
	defer releaseLock(lockPath)

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	h, err := hands.NewLinux(cfg.LogDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hands: %v\n", err)
		os.Exit(1)
	}

	brainClient := brain.New(cfg.BrainHost, cfg.BrainModel)
	net := internet.New(cfg.BochaAPIKey)
	b := bus.New()
	logReg := tasklog.NewRegistry(filepath.Join(cfg.LogDir, "tasks"))

	snap, err := safety.NewSnapshotter(filepath.Join(cfg.CacheDir, "snapshots"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "safety: %v\n", err)
		os.Exit(1)
	}

	orch := orchestrator.New(cfg, st, h, brainClient, net, b, logReg, snap)

	disp := ui.New(b.NewTap())

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			log.Println("[main] signal received, shutting down — in-flight actions are allowed to finish")
			cancel()
		case <-ctx.Done():
		}
	}()

	go disp.Run(ctx)
	go orch.RunHealthMonitor(ctx)

	// Crash recovery: any task left non-terminal by a previous run is
	// re-executed from its stored request text before new work starts.
	orch.ResumePending(ctx)

	args := os.Args[1:]
	voiceMode := false
	var rest []string
	for _, a := range args {
		if a == "--voice" {
			voiceMode = true
			continue
		}
		rest = append(rest, a)
	}
	orch.SetVoice(voiceMode)

	switch {
	case voiceMode:
		runREPL(ctx, orch, cfg, disp)
	case len(rest) > 0:
		runOneShot(ctx, orch, strings.Join(rest, " "))
	default:
		fmt.Println("Usage:")
		fmt.Println("  umbrasol --voice         # hands-free loop, speaks results aloud")
		fmt.Println("  umbrasol \"<command>\"     # single execution")
		fmt.Println("  umbrasol                 # print this usage")
		return
	}

	// Let the voice consumer drain and the health monitor's last tick
	// settle before the deferred store/lock cleanup runs.
	cancel()
	time.Sleep(200 * time.Millisecond)
}

func runOneShot(ctx context.Context, orch *orchestrator.Orchestrator, request string) {
	summary, err := orch.Execute(ctx, request)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n[Umbrasol]: %s\n", summary)
}

// runREPL drives the interactive loop (and the --voice hands-free mode,
// which differs only in that results are also spoken aloud by Hands —
// speech-to-text recognition itself is an external collaborator this
// module doesn't implement, so both modes read typed requests).
func runREPL(ctx context.Context, orch *orchestrator.Orchestrator, cfg config.Config, disp *ui.Display) {
	fmt.Println("\033[1m\033[36m◆ umbrasol\033[0m  \033[2m(exit/Ctrl-D to quit | Ctrl+C aborts task)\033[0m")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "\033[36m>\033[0m ",
		HistoryFile:       filepath.Join(cfg.CacheDir, "history"),
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init error: %v\n", err)
		return
	}
	defer rl.Close()

	var taskMu sync.Mutex
	var taskCancel context.CancelFunc

	intrCh := make(chan os.Signal, 1)
	signal.Notify(intrCh, os.Interrupt)
	defer signal.Stop(intrCh)
	go func() {
		for {
			select {
			case <-intrCh:
				taskMu.Lock()
				tc := taskCancel
				taskMu.Unlock()
				if tc != nil {
					tc()
					disp.Abort()
					fmt.Print("\r\033[K\n\033[33m⚠ task aborted\033[0m  (type 'exit' or Ctrl+D to quit)\n")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			fmt.Println("\n\033[2m(Ctrl+C again or type 'exit' to quit)\033[0m")
			line2, err2 := rl.Readline()
			if err2 == readline.ErrInterrupt || strings.TrimSpace(line2) == "exit" || strings.TrimSpace(line2) == "quit" {
				return
			}
			line, err = line2, err2
		}
		if err != nil {
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return
		}

		taskCtx, tCancel := context.WithCancel(ctx)
		taskMu.Lock()
		taskCancel = tCancel
		taskMu.Unlock()

		disp.Resume()
		summary, err := orch.Execute(taskCtx, input)

		taskMu.Lock()
		taskCancel = nil
		taskMu.Unlock()
		tCancel()

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if taskCtx.Err() != nil {
				continue // aborted, not a real error
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		disp.WaitTaskClose(300 * time.Millisecond)
		fmt.Printf("\n\033[1m\033[32m◆ %s\033[0m\n", summary)
	}
}

// acquireLock writes this process's PID to path, reporting whether a
// stale lock from a prior, uncleanly-terminated run was found. It never
// refuses to start on a stale lock — crash recovery is the store's job
// (ResumePending), not this file's.
func acquireLock(path string) bool {
	_, err := os.Stat(path)
	stale := err == nil
	_ = os.WriteFile(path, []byte(fmt.Sprintf("%d", os.Getpid())), 0644)
	return stale
}

func releaseLock(path string) {
	_ = os.Remove(path)
}
