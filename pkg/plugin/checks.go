package plugin

import (
	"context"
	"io"
)

// CheckFunc runs a single check plugin. It writes the plugin output line
// to the given writer and returns the process exit code.
type CheckFunc func(ctx context.Context, output io.Writer, args []string) int

// AvailableChecks contains all registered check plugins.
var AvailableChecks = make(map[string]CheckFunc)
