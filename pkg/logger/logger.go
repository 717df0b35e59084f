package logger

import (
	"fmt"
	"log"
)

// Logger receives phase and per-item progress from the planner and the
// executor. Implementations must be safe for use from a single
// goroutine per phase.
type Logger interface {
	PhaseStart(phase string, totalItems int)
	ItemProcessed(phase string, item string, action string)
	PhaseComplete(phase string, processedItems int)
}

type VerboseLogger struct{}

func (l *VerboseLogger) PhaseStart(phase string, totalItems int) {
	log.Printf("[%s] Starting phase with %d items", phase, totalItems)
}

func (l *VerboseLogger) ItemProcessed(phase string, item string, action string) {
	log.Printf("[%s] %s: %s", phase, action, item)
}

func (l *VerboseLogger) PhaseComplete(phase string, processedItems int) {
	log.Printf("[%s] Phase complete. Processed %d items", phase, processedItems)
}

type NullLogger struct{}

func (l *NullLogger) PhaseStart(phase string, totalItems int) {}

func (l *NullLogger) ItemProcessed(phase string, item string, action string) {}

func (l *NullLogger) PhaseComplete(phase string, processedItems int) {}

// QuietLogger reports only the actions that would or did relocate a
// file; keeps are suppressed.
type QuietLogger struct{}

func (l *QuietLogger) PhaseStart(phase string, totalItems int) {}

func (l *QuietLogger) ItemProcessed(phase string, item string, action string) {
	if action != "keep" {
		fmt.Printf("%s: %s\n", action, item)
	}
}

func (l *QuietLogger) PhaseComplete(phase string, processedItems int) {}
