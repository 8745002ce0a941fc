package main

import (
	"fmt"
	"strings"
)

// DebugOverlay collects HUD lines for one frame.
type DebugOverlay struct {
	lines []string
}

func (do *DebugOverlay) AddLine(format string, args ...any) {
	do.lines = append(do.lines, fmt.Sprintf(format, args...))
}

func (do *DebugOverlay) Clear() {
	do.lines = do.lines[:0]
}

func (do *DebugOverlay) GetText() string {
	if len(do.lines) == 0 {
		return ""
	}
	return strings.Join(do.lines, "\n") + "\n"
}
