// Package hands is the Hands interface (C2): every capability the
// Orchestrator can dispatch a tool to, plus the one Linux implementation
// this module ships. Grounded on original_source/core/tools.py's
// OperatorInterface, with introspection calls reimplemented against
// gopsutil/v4 instead of psutil.
package hands

import "context"

// Hands is kept total — including methods no Linux backend variant
// exercises yet — so a future Windows/Android implementation slots in
// without an interface change, per spec §4.2.
type Hands interface {
	ExecuteShell(ctx context.Context, command string) (output string, exitCode int, err error)
	ListDir(ctx context.Context, path string) (string, error)

	GetExistenceStats(ctx context.Context) (map[string]any, error)
	GetPhysicalState(ctx context.Context) (map[string]any, error)
	GetSystemStats(ctx context.Context) (map[string]any, error)
	GetProcessList(ctx context.Context) ([]ProcessInfo, error)
	GetNetworkStats(ctx context.Context) (map[string]any, error)

	CaptureScreen(ctx context.Context) (string, error)
	OCRScreen(ctx context.Context) (string, error)
	ObserveUITree(ctx context.Context) (string, error)
	ReadActiveWindow(ctx context.Context) (string, error)

	GuiClick(ctx context.Context, x, y int) (string, error)
	GuiType(ctx context.Context, text string) (string, error)
	GuiScroll(ctx context.Context, direction string) (string, error)
	GuiSpeak(text string) (string, error)
	StopSpeaking()

	ManageService(ctx context.Context, name, action string) (string, error)
	ControlNetwork(ctx context.Context, iface, state string) (string, error)
}

// ProcessInfo mirrors the {pid, name, username} fields
// psutil.process_iter returns in OperatorInterface.get_process_list.
type ProcessInfo struct {
	PID      int32
	Name     string
	Username string
}
