package hands

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CaptureScreen mirrors OperatorInterface.capture_screen: xwd to a file
// under the log directory.
func (l *Linux) CaptureScreen(ctx context.Context) (string, error) {
	path := filepath.Join(l.logDir, "screenshot.xwd")
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "xwd", "-root", "-out", path).Run(); err != nil {
		return fmt.Sprintf("ERROR: %s", err), nil
	}
	return fmt.Sprintf("SUCCESS: Screen captured to %s", path), nil
}

// OCRScreen captures the screen and runs tesseract over it. tesseract is
// the only widely available Linux OCR CLI and the original prototype
// never implemented OCR at all, so there's no further pack grounding
// beyond this single external-tool call.
func (l *Linux) OCRScreen(ctx context.Context) (string, error) {
	shot, err := l.CaptureScreen(ctx)
	if err != nil || strings.HasPrefix(shot, "ERROR") {
		return shot, nil
	}
	path := filepath.Join(l.logDir, "screenshot.xwd")
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "tesseract", path, "stdout").Output()
	if err != nil {
		return "ERROR: tesseract not available", nil
	}
	return strings.TrimSpace(string(out)), nil
}

// ObserveUITree mirrors OperatorInterface.observe_ui_tree.
func (l *Linux) ObserveUITree(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "xwininfo", "-tree", "-root").Output()
	if err != nil {
		return fmt.Sprintf("ERROR: %s", err), nil
	}
	return string(out), nil
}

// ReadActiveWindow mirrors OperatorInterface.read_active_window.
func (l *Linux) ReadActiveWindow(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := exec.CommandContext(ctx, "bash", "-c", "xprop -root _NET_ACTIVE_WINDOW").Output()
	if err != nil {
		return "UNKNOWN (Likely no active window or non-X11 environment)", nil
	}
	fields := strings.Fields(string(res))
	if len(fields) == 0 {
		return "UNKNOWN (Likely no active window or non-X11 environment)", nil
	}
	winID := fields[len(fields)-1]

	res, err = exec.CommandContext(ctx, "bash", "-c", fmt.Sprintf("xprop -id %s WM_NAME", winID)).Output()
	if err != nil {
		return "UNKNOWN (Likely no active window or non-X11 environment)", nil
	}
	parts := strings.SplitN(string(res), " = ", 2)
	title := strings.Trim(strings.TrimSpace(parts[len(parts)-1]), `"`)

	return fmt.Sprintf("ID: %s | Title: %s", winID, title), nil
}

func hasXdotool(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "which", "xdotool").Run() == nil
}

// GuiClick mirrors OperatorInterface.gui_click.
func (l *Linux) GuiClick(ctx context.Context, x, y int) (string, error) {
	if !hasXdotool(ctx) {
		return "ERROR: Missing 'xdotool'. Please install it to use Universal Hands.", nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "xdotool", "mousemove", fmt.Sprint(x), fmt.Sprint(y), "click", "1").Run(); err != nil {
		return fmt.Sprintf("ERROR: %s", err), nil
	}
	return fmt.Sprintf("SUCCESS: Clicked at (%d, %d)", x, y), nil
}

// GuiType mirrors OperatorInterface.gui_type.
func (l *Linux) GuiType(ctx context.Context, text string) (string, error) {
	if !hasXdotool(ctx) {
		return "ERROR: Missing 'xdotool'. Please install it to use Universal Hands.", nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "xdotool", "type", "--delay", "100", text).Run(); err != nil {
		return fmt.Sprintf("ERROR: %s", err), nil
	}
	return "SUCCESS: Typed text.", nil
}

// GuiScroll mirrors OperatorInterface.gui_scroll.
func (l *Linux) GuiScroll(ctx context.Context, direction string) (string, error) {
	btn := "5"
	if direction == "up" {
		btn = "4"
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "xdotool", "click", "--repeat", "5", btn).Run(); err != nil {
		return fmt.Sprintf("ERROR: %s", err), nil
	}
	return fmt.Sprintf("SUCCESS: Scrolled %s", direction), nil
}

// ManageService shells out to systemctl.
func (l *Linux) ManageService(ctx context.Context, name, action string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "systemctl", action, name).CombinedOutput()
	if err != nil {
		return fmt.Sprintf("ERROR: %s: %s", err, string(out)), nil
	}
	return fmt.Sprintf("SUCCESS: systemctl %s %s", action, name), nil
}

// ControlNetwork shells out to `ip link`.
func (l *Linux) ControlNetwork(ctx context.Context, iface, state string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "ip", "link", "set", iface, state).CombinedOutput()
	if err != nil {
		return fmt.Sprintf("ERROR: %s: %s", err, string(out)), nil
	}
	return fmt.Sprintf("SUCCESS: %s set %s", iface, state), nil
}
