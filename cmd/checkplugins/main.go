package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mackerelio/checkers"

	_ "github.com/sni/checkplugins/pkg/check_jobs_status"
	_ "github.com/sni/checkplugins/pkg/check_kafka_isr"
	"github.com/sni/checkplugins/pkg/plugin"
)

// multi-call wrapper around all registered checks, either symlinked as the
// plugin name or called with the plugin name as first argument.
func main() {
	name := filepath.Base(os.Args[0])
	args := os.Args[1:]
	if _, ok := plugin.AvailableChecks[name]; !ok {
		if len(args) == 0 {
			usage()
			os.Exit(int(checkers.UNKNOWN))
		}
		name = args[0]
		args = args[1:]
	}

	check, ok := plugin.AvailableChecks[name]
	if !ok {
		fmt.Fprintf(os.Stdout, "UNKNOWN: no such check: %s\n", name)
		usage()
		os.Exit(int(checkers.UNKNOWN))
	}

	os.Exit(check(context.Background(), os.Stdout, args))
}

func usage() {
	names := make([]string, 0, len(plugin.AvailableChecks))
	for name := range plugin.AvailableChecks {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(os.Stdout, "usage: checkplugins <check> [args]\n\navailable checks:\n")
	for _, name := range names {
		fmt.Fprintf(os.Stdout, "  %s\n", name)
	}
}
