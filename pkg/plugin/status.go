package plugin

import (
	"github.com/mackerelio/checkers"
)

// Escalate combines the current aggregate state with the state of a single
// evaluated target. States only ever get worse, never better, so CRITICAL
// is absorbing.
func Escalate(current, incoming checkers.Status) checkers.Status {
	if incoming > current {
		return incoming
	}

	return current
}

// StateString returns the plugin output keyword for the given state.
// Anything outside the known states is reported as UNKNOWN.
func StateString(state checkers.Status) string {
	switch state {
	case checkers.OK:
		return "OK"
	case checkers.WARNING:
		return "WARNING"
	case checkers.CRITICAL:
		return "CRITICAL"
	}

	return "UNKNOWN"
}
