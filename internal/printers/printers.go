// Package printers is a thin passthrough to the operating system's
// printer list. It carries no logic beyond parsing lpstat output.
package printers

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type Lister struct{}

func NewLister() *Lister {
	return &Lister{}
}

// List returns the names of all destinations known to the OS spooler.
func (l *Lister) List(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, "lpstat", "-e").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}
	return parseList(string(out)), nil
}

// Default returns the system default destination, or "" if none is set.
func (l *Lister) Default(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "lpstat", "-d").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get default printer: %w", err)
	}
	return parseDefault(string(out)), nil
}

func parseList(out string) []string {
	names := make([]string, 0, 4)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names
}

func parseDefault(out string) string {
	// lpstat -d prints either "system default destination: <name>" or
	// "no system default destination".
	_, name, found := strings.Cut(strings.TrimSpace(out), "destination:")
	if !found {
		return ""
	}
	return strings.TrimSpace(name)
}
