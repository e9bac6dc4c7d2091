// Package safety is the risk gate (C3): command risk classification,
// sensitive-argument redaction, and pre-destructive-action snapshotting.
// Grounded on original_source/core/omega_safety.py's OmegaSafety class.
package safety

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// highRisk and medRisk reproduce OmegaSafety.analyze_risk's pattern
// tables verbatim in meaning, widened per spec §4.3's stated superset
// (adds mkfs/dd-of/device-write to HIGH were already present upstream;
// MEDIUM keeps service-stop, force-kill, package removal/uninstall, and
// command substitution).
var highRisk = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+-rf`),
	regexp.MustCompile(`(?i)\breboot\b`),
	regexp.MustCompile(`(?i)\bshutdown\b`),
	regexp.MustCompile(`(?i)\bformat\b`),
	regexp.MustCompile(`(?i)\bmkfs\b`),
	regexp.MustCompile(`(?i)>\s*/dev/`),
	regexp.MustCompile(`(?i)\bdd\b.*of=`),
}

var medRisk = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+`),
	regexp.MustCompile(`(?i)\bmv\s+`),
	regexp.MustCompile(`(?i)\bsystemctl\s+stop`),
	regexp.MustCompile(`(?i)\bkill\s+-9`),
	regexp.MustCompile(`(?i)\bapt\s+remove`),
	regexp.MustCompile(`(?i)\bpip\s+uninstall`),
	regexp.MustCompile(`\$\(`),
	regexp.MustCompile("`"),
}

// sensitivePatterns redacts command arguments that should never reach the
// audit log or a cache/habit write verbatim — matches
// original_source/config/settings.py's SENSITIVE_PATTERNS list.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\brm\s`),
	regexp.MustCompile(`\bmv\s`),
	regexp.MustCompile(`>`),
	regexp.MustCompile(`\bchmod\b`),
	regexp.MustCompile(`\bchown\b`),
	regexp.MustCompile(`\bsudo\b`),
	regexp.MustCompile(`\bapt\s`),
	regexp.MustCompile(`\bpip install\b`),
	regexp.MustCompile(`\bpython -m pip\b`),
	regexp.MustCompile(`\bwget\b`),
	regexp.MustCompile(`\bcurl\b`),
	regexp.MustCompile(`\bkill\s`),
}

// Risk type aliases the shared types.Risk values; kept local to avoid a
// circular import since types is domain-neutral and safety is a consumer.
type Risk string

const (
	Low    Risk = "LOW"
	Medium Risk = "MEDIUM"
	High   Risk = "HIGH"
)

// ClassifyRisk assigns a risk level to a candidate command, exactly the
// decision OmegaSafety.analyze_risk makes.
func ClassifyRisk(command string) Risk {
	for _, p := range highRisk {
		if p.MatchString(command) {
			return High
		}
	}
	for _, p := range medRisk {
		if p.MatchString(command) {
			return Medium
		}
	}
	return Low
}

// ContainsSensitivePattern reports whether command matches any pattern
// that should be redacted before being written to durable storage (cache,
// habits, knowledge) — distinct from risk classification, which gates
// execution rather than persistence.
func ContainsSensitivePattern(command string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(command) {
			return true
		}
	}
	return false
}

// Redact returns command unchanged if it's safe to persist, or a fixed
// placeholder if it matches a sensitive pattern — the gate that keeps the
// semantic cache and habit store from durably remembering destructive
// argument text.
func Redact(command string) string {
	if ContainsSensitivePattern(command) {
		return "[redacted]"
	}
	return command
}

// Snapshotter creates timestamped backups of a path before a risky action
// touches it. Mirrors OmegaSafety.snapshot.
type Snapshotter struct {
	backupDir string
}

func NewSnapshotter(backupDir string) (*Snapshotter, error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("safety: create backup dir: %w", err)
	}
	return &Snapshotter{backupDir: backupDir}, nil
}

// Snapshot copies path (file or directory) into the backup dir with a
// timestamp suffix, returning the backup's path. Returns ("", nil) if
// path doesn't exist, matching the original's None return.
func (s *Snapshotter) Snapshot(path string) (string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("safety: stat %s: %w", path, err)
	}

	timestamp := time.Now().Format("20060102_150405")
	name := filepath.Base(path)
	backupPath := filepath.Join(s.backupDir, fmt.Sprintf("%s_%s", name, timestamp))

	if info.IsDir() {
		if err := copyTree(path, backupPath); err != nil {
			return "", fmt.Errorf("safety: snapshot %s: %w", path, err)
		}
	} else {
		if err := copyFile(path, backupPath); err != nil {
			return "", fmt.Errorf("safety: snapshot %s: %w", path, err)
		}
	}
	return backupPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}
