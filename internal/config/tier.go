package config

import (
	"context"
	"log"
	"os/exec"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
)

// Tier names the hardware class detected at startup, informational only —
// model provisioning itself is out of scope (spec §1).
type Tier struct {
	Name  string
	Model string
}

// DetectTier mirrors original_source/core/profiler.py's HardwareProfiler:
// RAM (and GPU presence) bucket into one of three named tiers, each with a
// suggested default model. This is logged at startup; it never overrides
// an explicitly configured BrainModel.
func DetectTier(ctx context.Context) Tier {
	var totalGB float64
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		totalGB = float64(vm.Total) / (1024 * 1024 * 1024)
	}
	hasGPU := hasNvidiaGPU(ctx)

	switch {
	case totalGB >= 30 || (hasGPU && totalGB >= 16):
		return Tier{Name: "Leviathan", Model: "glm4.7-thinking"}
	case totalGB >= 8:
		return Tier{Name: "Centurion", Model: "llama3.1:8b"}
	default:
		return Tier{Name: "Ghost", Model: defaultModel}
	}
}

func hasNvidiaGPU(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "nvidia-smi").Run() == nil
}

// LogTier writes the detected tier and chosen model to the standard log,
// matching SoulFetcher's startup banner in original_source/core/soul_fetcher.py.
func LogTier(t Tier, chosenModel string) {
	log.Printf("[config] hardware tier detected: %s (suggested model %s); using configured model %s",
		t.Name, t.Model, chosenModel)
}
