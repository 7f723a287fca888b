package main

import (
	"fmt"
	"log/slog"
	"strings"
)

type debugAdapter struct {
	*slog.Logger
}

// Printf satisfies the handler logger interface. The transports log
// printf-style lines with a trailing newline, which slog neither expands
// nor wants.
func (log *debugAdapter) Printf(msg string, args ...any) {
	log.Logger.Debug(strings.TrimSuffix(fmt.Sprintf(msg, args...), "\n"))
}
