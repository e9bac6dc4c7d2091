package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/umbrasol/umbrasol/internal/hands"
	"github.com/umbrasol/umbrasol/internal/internet"
	"github.com/umbrasol/umbrasol/internal/types"
)

// dispatchFunc executes one Action against h (and, for net, the internet
// collaborator) and returns a result string for the audit trail and any
// synthesis pass. Grounded on original_source/core/umbrasol.py's
// execute_action dispatch table: a closed map from tool name to the
// OperatorInterface method it calls, widened for GUI/service/network
// control tools the spec's Hands interface adds.
type dispatchFunc func(ctx context.Context, h hands.Hands, net *internet.Collaborator, cmd string) (string, error)

var dispatchTable = map[types.Tool]dispatchFunc{
	types.ToolPhysical: func(ctx context.Context, h hands.Hands, _ *internet.Collaborator, _ string) (string, error) {
		return formatMap(h.GetPhysicalState(ctx))
	},
	types.ToolExistence: func(ctx context.Context, h hands.Hands, _ *internet.Collaborator, _ string) (string, error) {
		return formatMap(h.GetExistenceStats(ctx))
	},
	types.ToolStats: func(ctx context.Context, h hands.Hands, _ *internet.Collaborator, _ string) (string, error) {
		return formatMap(h.GetSystemStats(ctx))
	},
	types.ToolSeeActive: func(ctx context.Context, h hands.Hands, _ *internet.Collaborator, _ string) (string, error) {
		return h.ReadActiveWindow(ctx)
	},
	types.ToolSeeTree: func(ctx context.Context, h hands.Hands, _ *internet.Collaborator, _ string) (string, error) {
		return h.ObserveUITree(ctx)
	},
	types.ToolSeeRaw: func(ctx context.Context, h hands.Hands, _ *internet.Collaborator, _ string) (string, error) {
		path, err := h.CaptureScreen(ctx)
		if err != nil {
			return "", err
		}
		text, ocrErr := h.OCRScreen(ctx)
		if ocrErr != nil || strings.TrimSpace(text) == "" {
			return path, nil
		}
		return fmt.Sprintf("%s\n%s", path, text), nil
	},
	types.ToolProcList: func(ctx context.Context, h hands.Hands, _ *internet.Collaborator, _ string) (string, error) {
		procs, err := h.GetProcessList(ctx)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		for _, p := range procs {
			fmt.Fprintf(&sb, "%d\t%s\t%s\n", p.PID, p.Name, p.Username)
		}
		return strings.TrimRight(sb.String(), "\n"), nil
	},
	types.ToolNet: func(ctx context.Context, h hands.Hands, net *internet.Collaborator, cmd string) (string, error) {
		if strings.TrimSpace(cmd) != "" {
			return net.SwiftSearch(ctx, cmd)
		}
		return formatMap(h.GetNetworkStats(ctx))
	},
	types.ToolLs: func(ctx context.Context, h hands.Hands, _ *internet.Collaborator, cmd string) (string, error) {
		path := strings.TrimSpace(cmd)
		if path == "" {
			path = "."
		}
		return h.ListDir(ctx, path)
	},
	types.ToolGuiSpeak: func(_ context.Context, h hands.Hands, _ *internet.Collaborator, cmd string) (string, error) {
		return h.GuiSpeak(cmd)
	},
	types.ToolShell: func(ctx context.Context, h hands.Hands, _ *internet.Collaborator, cmd string) (string, error) {
		output, exitCode, err := h.ExecuteShell(ctx, cmd)
		if err != nil {
			return output, err
		}
		if exitCode != 0 {
			return output, fmt.Errorf("exit status %d", exitCode)
		}
		return output, nil
	},
	types.ToolGuiClick: func(ctx context.Context, h hands.Hands, _ *internet.Collaborator, cmd string) (string, error) {
		x, y, err := parseXY(cmd)
		if err != nil {
			return "", err
		}
		return h.GuiClick(ctx, x, y)
	},
	types.ToolGuiType: func(ctx context.Context, h hands.Hands, _ *internet.Collaborator, cmd string) (string, error) {
		return h.GuiType(ctx, cmd)
	},
	types.ToolGuiScroll: func(ctx context.Context, h hands.Hands, _ *internet.Collaborator, cmd string) (string, error) {
		return h.GuiScroll(ctx, strings.TrimSpace(cmd))
	},
	types.ToolNetCtl: func(ctx context.Context, h hands.Hands, _ *internet.Collaborator, cmd string) (string, error) {
		iface, state, err := parseTwoFields(cmd)
		if err != nil {
			return "", err
		}
		return h.ControlNetwork(ctx, iface, state)
	},
	types.ToolSvcCtl: func(ctx context.Context, h hands.Hands, _ *internet.Collaborator, cmd string) (string, error) {
		name, action, err := parseTwoFields(cmd)
		if err != nil {
			return "", err
		}
		return h.ManageService(ctx, name, action)
	},
}

// dispatch runs a.Tool against h/net with argument a.Cmd, returning an
// error if the tool isn't in the closed dispatch table at all — that
// indicates a NormalizeTool bug, since every SAFE_TOOLS member has an
// entry here.
func dispatch(ctx context.Context, h hands.Hands, net *internet.Collaborator, a types.Action) (string, error) {
	fn, ok := dispatchTable[a.Tool]
	if !ok {
		return "", fmt.Errorf("orchestrator: no dispatch entry for tool %q", a.Tool)
	}
	return fn(ctx, h, net, a.Cmd)
}

// parseXY parses "x,y" or "x y" into two ints, for gui_click.
func parseXY(cmd string) (int, int, error) {
	x, y, err := parseTwoFields(cmd)
	if err != nil {
		return 0, 0, err
	}
	xi, err := strconv.Atoi(x)
	if err != nil {
		return 0, 0, fmt.Errorf("orchestrator: bad x coordinate %q", x)
	}
	yi, err := strconv.Atoi(y)
	if err != nil {
		return 0, 0, fmt.Errorf("orchestrator: bad y coordinate %q", y)
	}
	return xi, yi, nil
}

// parseTwoFields splits cmd on a comma or whitespace into exactly two
// trimmed fields, for gui_click/net_ctl/svc_ctl argument parsing.
func parseTwoFields(cmd string) (string, string, error) {
	cmd = strings.TrimSpace(cmd)
	sep := ","
	if !strings.Contains(cmd, sep) {
		sep = " "
	}
	parts := strings.SplitN(cmd, sep, 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("orchestrator: expected two fields in %q", cmd)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// formatMap renders a map[string]any result as stable, sorted "key: value"
// lines — tools like GetSystemStats return maps and the brain's synthesis
// pass, the audit log, and the cache all want a flat string.
func formatMap(m map[string]any, err error) (string, error) {
	if err != nil {
		return "", err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortStrings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %v\n", k, m[k])
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
