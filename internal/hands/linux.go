package hands

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// shellTimeout matches original_source/config/settings.py's
// EXECUTION_TIMEOUT (60s), widened from the teacher's tools/shell.go's
// 30s default.
const shellTimeout = 60 * time.Second

// Linux is the only Hands backend this module ships — X11/systemd based,
// mirroring original_source/core/tools.py's OperatorInterface exactly.
type Linux struct {
	cwd     string
	logDir  string
	voice   *voiceQueue
}

// NewLinux builds a Linux Hands backend rooted at the process's current
// working directory, matching OperatorInterface's self.cwd.
func NewLinux(logDir string) (*Linux, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("hands: getwd: %w", err)
	}
	l := &Linux{cwd: cwd, logDir: logDir}
	l.voice = newVoiceQueue(l)
	return l, nil
}

func (l *Linux) ExecuteShell(ctx context.Context, command string) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, shellTimeout)
	defer cancel()

	log.Printf("[hands] executing shell: %s", command)
	c := exec.CommandContext(ctx, "bash", "-c", command)
	c.Dir = l.cwd

	var outBuf, errBuf bytes.Buffer
	c.Stdout = &outBuf
	c.Stderr = &errBuf
	err := c.Run()

	exitCode := 0
	if ee, ok := err.(*exec.ExitError); ok {
		exitCode = ee.ExitCode()
	} else if err != nil {
		return fmt.Sprintf("ERROR: %s", err), -1, err
	}

	if exitCode == 0 {
		return outBuf.String(), 0, nil
	}
	return errBuf.String(), exitCode, nil
}

func (l *Linux) ListDir(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = "."
	}
	target := filepath.Join(l.cwd, path)
	entries, err := os.ReadDir(target)
	if err != nil {
		return fmt.Sprintf("ERROR: %s", err), nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return strings.Join(names, "\n"), nil
}

// GetExistenceStats mirrors OperatorInterface.get_existence_stats:
// uptime from /proc/uptime, hostname, OS name.
func (l *Linux) GetExistenceStats(ctx context.Context) (map[string]any, error) {
	uptime := readProcUptime()
	hostname := "unknown"
	platform := "linux"
	if info, err := host.InfoWithContext(ctx); err == nil {
		hostname = info.Hostname
		platform = info.Platform
	}

	return map[string]any{
		"identity":       "Umbrasol Core",
		"host":           hostname,
		"os":             platform,
		"uptime_seconds": uptime,
		"status":         "CONSCIOUS",
	}, nil
}

func readProcUptime() int {
	data, err := os.ReadFile("/proc/uptime")
	if err != nil {
		return 0
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return int(secs)
}

// GetPhysicalState reads Linux sysfs battery/thermal sensors directly —
// see DESIGN.md for why this is stdlib rather than a library: no battery
// or thermal-sensor crate exists anywhere in the example pack, and this is
// a narrow enough OS surface that none would be a generic win either.
func (l *Linux) GetPhysicalState(ctx context.Context) (map[string]any, error) {
	state := map[string]any{}
	state["battery"] = readBatteryState()
	state["thermal"] = readThermalState()
	return state, nil
}

func readBatteryState() string {
	base := "/sys/class/power_supply"
	entries, err := os.ReadDir(base)
	if err != nil {
		return "N/A"
	}
	for _, e := range entries {
		capPath := filepath.Join(base, e.Name(), "capacity")
		statusPath := filepath.Join(base, e.Name(), "status")
		capRaw, err := os.ReadFile(capPath)
		if err != nil {
			continue
		}
		pct := strings.TrimSpace(string(capRaw))
		status := "Discharging"
		if statusRaw, err := os.ReadFile(statusPath); err == nil {
			s := strings.TrimSpace(string(statusRaw))
			if s == "Charging" || s == "Full" {
				status = "Charging"
			}
		}
		return fmt.Sprintf("%s%% (%s)", pct, status)
	}
	return "N/A"
}

func readThermalState() string {
	base := "/sys/class/thermal"
	entries, err := os.ReadDir(base)
	if err != nil {
		return "N/A"
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "thermal_zone") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(base, e.Name(), "temp"))
		if err != nil {
			continue
		}
		milliC, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil {
			continue
		}
		return fmt.Sprintf("%.1f°C", float64(milliC)/1000)
	}
	return "N/A"
}

// GetSystemStats mirrors OperatorInterface.get_system_stats using
// gopsutil/v4 instead of psutil.
func (l *Linux) GetSystemStats(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}

	if pcts, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(pcts) > 0 {
		out["cpu"] = pcts[0]
	} else {
		out["cpu"] = 0.0
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		out["ram"] = vm.UsedPercent
	} else {
		out["ram"] = 0.0
	}
	if du, err := disk.UsageWithContext(ctx, l.cwd); err == nil {
		out["disk"] = du.UsedPercent
	} else {
		out["disk"] = 0.0
	}
	return out, nil
}

// GetGpuStats has no dedicated backing library anywhere in the example
// pack (github.com/jaypipes/ghw was considered and rejected — see
// DESIGN.md); it shells out to nvidia-smi, falling back to "N/A".
func (l *Linux) GetGpuStats(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=utilization.gpu,memory.used", "--format=csv,noheader").Output()
	if err != nil {
		return "N/A", nil
	}
	return strings.TrimSpace(string(out)), nil
}

// GetProcessList mirrors OperatorInterface.get_process_list, capped at 20.
func (l *Linux) GetProcessList(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("hands: list processes: %w", err)
	}
	out := make([]ProcessInfo, 0, 20)
	for _, p := range procs {
		if len(out) >= 20 {
			break
		}
		name, _ := p.NameWithContext(ctx)
		username, _ := p.UsernameWithContext(ctx)
		out = append(out, ProcessInfo{PID: p.Pid, Name: name, Username: username})
	}
	return out, nil
}

// GetNetworkStats mirrors OperatorInterface.get_network_stats.
func (l *Linux) GetNetworkStats(ctx context.Context) (map[string]any, error) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil || len(counters) == 0 {
		return map[string]any{"error": "Network stats unavailable"}, nil
	}
	return map[string]any{
		"bytes_sent": counters[0].BytesSent,
		"bytes_recv": counters[0].BytesRecv,
	}, nil
}
