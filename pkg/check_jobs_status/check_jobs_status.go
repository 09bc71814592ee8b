// nolint:ALL
package check_jobs_status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/mackerelio/checkers"

	"github.com/sni/checkplugins/pkg/plugin"
)

var log = plugin.Log

func init() {
	plugin.AvailableChecks["check_jobs_status"] = Check
}

type jobsOpts struct {
	Directories []string `short:"d" long:"dir" description:"Directory to check, can be repeated"`
	Warning     int64    `short:"w" long:"warning" default:"26" description:"Warn if a file is older than this many time units"`
	Critical    int64    `short:"c" long:"critical" default:"52" description:"Critical if a file is older than this many time units"`
	TimeUnit    string   `short:"t" long:"time-unit" default:"hours" description:"Time unit for the thresholds: seconds, minutes, hours or days"`
	Verbose     bool     `short:"V" long:"verbose" description:"Report every file, not only the ones exceeding a threshold"`
	Pattern     string   `short:"p" long:"pattern" description:"Regular expression the last line of each file must match"`
	Excludes    []string `short:"x" long:"exclude" description:"File name to skip, can be repeated"`
	Debug       string   `long:"debug" default:"off" description:"Set log level (off, error, debug, trace), logs go to stderr"`
}

// jobsConfig is the validated, immutable check configuration.
type jobsConfig struct {
	directories []string
	warning     int64
	critical    int64
	multiplier  int64
	abbrev      string
	verbose     bool
	pattern     *regexp.Regexp
	excludes    map[string]bool
}

// target is a single file, or the directory itself when it contains no
// entries, subject to age and content evaluation.
type target struct {
	path    string
	dir     string
	mtime   time.Time
	isDir   bool
	statErr error
}

// evaluation is the outcome for a single target.
type evaluation struct {
	status   checkers.Status
	messages []string
	perfData []string
}

// aggregate folds all per-target evaluations and directory failures into
// the final check result.
type aggregate struct {
	status   checkers.Status
	messages []string
	perfData []string
	checked  int
	skipped  int
}

// Check checks the age of the files in the given directories and alerts if
// the newest files are older than the thresholds. File age is based on the
// last modification time, creation time is not available on all platforms.
func Check(_ context.Context, output io.Writer, args []string) int {
	opts, parser, err := parseArgs(args)
	if len(args) == 0 {
		writeUsage(output, parser)

		return int(checkers.UNKNOWN)
	}
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			writeUsage(output, parser)

			return int(checkers.OK)
		}
		fmt.Fprintf(output, "UNKNOWN: %s\n", err.Error())
		writeUsage(output, parser)

		return int(checkers.UNKNOWN)
	}

	plugin.SetLogLevel(opts.Debug)

	cfg, err := opts.validate()
	if err != nil {
		fmt.Fprintf(output, "UNKNOWN: %s\n", err.Error())

		return int(checkers.UNKNOWN)
	}

	res := run(cfg, time.Now())
	fmt.Fprintln(output, res.buildOutput(cfg))

	return int(res.status)
}

func parseArgs(args []string) (*jobsOpts, *flags.Parser, error) {
	opts := &jobsOpts{}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "check_jobs_status"
	parser.Usage = "--dir <directory> [--dir <directory> ...] [-w <int>] [-c <int>] [-t <unit>] [-V] [--pattern <regex>] [--exclude <name> ...]"
	remaining, err := parser.ParseArgs(args)
	if err == nil && len(remaining) > 0 {
		err = fmt.Errorf("unknown argument: %s", remaining[0])
	}

	return opts, parser, err
}

func writeUsage(output io.Writer, parser *flags.Parser) {
	parser.WriteHelp(output)
	fmt.Fprintf(output, "\nFile age is based on the last modification time, creation time is not available on all platforms.\n")
}

func (opts *jobsOpts) validate() (*jobsConfig, error) {
	if len(opts.Directories) == 0 {
		return nil, fmt.Errorf("No directory provided.")
	}
	if opts.Warning < 0 {
		return nil, fmt.Errorf("Warning time must be a non-negative integer.")
	}
	if opts.Critical < 0 {
		return nil, fmt.Errorf("Critical time must be a non-negative integer.")
	}
	multiplier, abbrev, ok := unitMultiplier(opts.TimeUnit)
	if !ok {
		return nil, fmt.Errorf("Time unit must be one of seconds, minutes, hours or days.")
	}
	if opts.Warning >= opts.Critical {
		return nil, fmt.Errorf("Critical time must be greater than warning time.")
	}

	cfg := &jobsConfig{
		directories: opts.Directories,
		warning:     opts.Warning,
		critical:    opts.Critical,
		multiplier:  multiplier,
		abbrev:      abbrev,
		verbose:     opts.Verbose,
		excludes:    map[string]bool{},
	}
	if opts.Pattern != "" {
		pattern, err := regexp.Compile(opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %s", err.Error())
		}
		cfg.pattern = pattern
	}
	for _, name := range opts.Excludes {
		cfg.excludes[name] = true
	}

	return cfg, nil
}

// unitMultiplier resolves a time unit name into the number of seconds per
// unit and the abbreviation used in the output.
func unitMultiplier(unit string) (multiplier int64, abbrev string, ok bool) {
	switch unit {
	case "seconds":
		return 1, "s", true
	case "minutes":
		return 60, "m", true
	case "hours":
		return 3600, "h", true
	case "days":
		return 86400, "d", true
	}

	return 0, "", false
}

func run(cfg *jobsConfig, now time.Time) *aggregate {
	res := &aggregate{status: checkers.OK}
	for _, dir := range cfg.directories {
		res.addDir(cfg, dir, now)
	}

	return res
}

func (a *aggregate) addDir(cfg *jobsConfig, dir string, now time.Time) {
	targets, skipped, err := collectTargets(dir, cfg.excludes)
	if err != nil {
		log.Debugf("listing %s failed: %s", dir, err.Error())
		a.messages = append(a.messages, fmt.Sprintf("%s: Does not exist or is not accessible", dir))
		a.status = plugin.Escalate(a.status, checkers.CRITICAL)

		return
	}

	a.skipped += skipped
	for _, tgt := range targets {
		res := evaluateTarget(cfg, tgt, now)
		a.checked++
		a.status = plugin.Escalate(a.status, res.status)
		a.messages = append(a.messages, res.messages...)
		a.perfData = append(a.perfData, res.perfData...)
	}
}

// collectTargets lists a directory and resolves the candidate set, newest
// first. The ordering is cosmetic only, aggregation is order independent.
func collectTargets(dir string, excludes map[string]bool) (targets []target, skipped int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}

	if len(entries) == 0 {
		// no files at all, the age of the directory itself stands in
		if excludes[filepath.Base(dir)] {
			return nil, 1, nil
		}
		tgt := target{path: dir, dir: dir, isDir: true}
		info, statErr := os.Stat(dir)
		if statErr != nil {
			tgt.statErr = statErr
		} else {
			tgt.mtime = info.ModTime()
		}

		return []target{tgt}, 0, nil
	}

	for _, entry := range entries {
		if excludes[entry.Name()] {
			skipped++

			continue
		}
		tgt := target{
			path:  filepath.Join(dir, entry.Name()),
			dir:   dir,
			isDir: entry.IsDir(),
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			tgt.statErr = infoErr
		} else {
			tgt.mtime = info.ModTime()
		}
		targets = append(targets, tgt)
	}

	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].mtime.After(targets[j].mtime)
	})

	return targets, skipped, nil
}

// evaluateTarget classifies a single target by age and optionally checks
// the last line of its content.
func evaluateTarget(cfg *jobsConfig, tgt target, now time.Time) (res evaluation) {
	res.status = checkers.OK

	if tgt.statErr != nil {
		log.Debugf("stat %s failed: %s", tgt.path, tgt.statErr.Error())
		res.status = checkers.CRITICAL
		res.messages = append(res.messages, fmt.Sprintf("%s: cannot read file status", tgt.path))

		return res
	}

	ageSeconds := now.Unix() - tgt.mtime.Unix()
	ageUnits := ageSeconds / cfg.multiplier
	ageText := fmt.Sprintf("%s: %d%s", tgt.path, ageUnits, cfg.abbrev)
	log.Tracef("%s age: %ds", tgt.path, ageSeconds)

	switch {
	case ageSeconds > cfg.critical*cfg.multiplier:
		res.status = checkers.CRITICAL
		res.messages = append(res.messages, ageText)
	case ageSeconds > cfg.warning*cfg.multiplier:
		res.status = checkers.WARNING
		res.messages = append(res.messages, ageText)
	default:
		if cfg.verbose {
			res.messages = append(res.messages, ageText)
		}
	}

	// content validation applies to actual files only
	if cfg.pattern == nil || tgt.isDir {
		return res
	}

	line, err := readLastLine(tgt.path)
	if err != nil {
		log.Debugf("reading %s failed: %s", tgt.path, err.Error())
		res.status = plugin.Escalate(res.status, checkers.CRITICAL)
		res.messages = append(res.messages, fmt.Sprintf("%s: not readable", tgt.path))

		return res
	}

	matched, perfData := parseLastLine(line, cfg.pattern)
	if !matched {
		res.status = plugin.Escalate(res.status, checkers.CRITICAL)
		res.messages = append(res.messages, fmt.Sprintf("%s: Bad Content", tgt.path))
	}
	if perfData != "" {
		res.perfData = append(res.perfData, fmt.Sprintf("%s_%s", tgt.dir, perfData))
	}

	return res
}

func (a *aggregate) buildOutput(cfg *jobsConfig) string {
	output := plugin.StateString(a.status)
	if len(a.messages) > 0 {
		output += ": " + strings.Join(a.messages, " ")
	}
	output += fmt.Sprintf(" (%d checked, %d skipped, %d%s warn, %d%s crit)",
		a.checked, a.skipped, cfg.warning, cfg.abbrev, cfg.critical, cfg.abbrev)
	if len(a.perfData) > 0 {
		output += " | " + strings.Join(a.perfData, " ")
	}

	return output
}
