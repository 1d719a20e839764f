// Package blocker checks whether apps a focus session blocks are running.
// Nothing is killed or hidden; callers decide how to warn.
package blocker

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	ps "github.com/mitchellh/go-ps"

	"github.com/balkashynov/fencer/internal/models"
)

// Detector reports which blocked apps are running
type Detector interface {
	// BlockedAppRunning returns the first of apps found running, or ""
	BlockedAppRunning(ctx context.Context, apps []string) (string, error)
	// RunningApps lists normalized names of running processes
	RunningApps(ctx context.Context) ([]string, error)
}

var processesFunc = ps.Processes

// ProcessDetector matches blocked app names against the OS process table
type ProcessDetector struct{}

// NewProcessDetector returns a Detector backed by the process table
func NewProcessDetector() *ProcessDetector {
	return &ProcessDetector{}
}

// BlockedAppRunning checks apps in the order given
func (d *ProcessDetector) BlockedAppRunning(ctx context.Context, apps []string) (string, error) {
	if len(apps) == 0 {
		return "", nil
	}

	running, err := d.runningSet(ctx)
	if err != nil {
		return "", err
	}

	for _, app := range models.NormalizeApps(apps) {
		if _, ok := running[app]; ok {
			return app, nil
		}
	}
	return "", nil
}

// RunningApps returns sorted, deduplicated process names
func (d *ProcessDetector) RunningApps(ctx context.Context) ([]string, error) {
	running, err := d.runningSet(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(running))
	for name := range running {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (d *ProcessDetector) runningSet(ctx context.Context) (map[string]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	procs, err := processesFunc()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	set := make(map[string]struct{}, len(procs))
	for _, p := range procs {
		if p == nil {
			continue
		}
		if name := ProcessName(p.Executable()); name != "" {
			set[name] = struct{}{}
		}
	}
	return set, nil
}

// ProcessName normalizes an executable name the way blocked app names are
// stored: base name, lowercase, no .exe or .app suffix
func ProcessName(executable string) string {
	name := strings.ToLower(strings.TrimSpace(filepath.Base(executable)))
	if name == "." || name == "/" {
		return ""
	}
	name = strings.TrimSuffix(name, ".exe")
	name = strings.TrimSuffix(name, ".app")
	return name
}
