package plugin

import (
	"os"
	"strings"

	"github.com/kdar/factorlog"
)

// define all available log level.
const (
	// LogVerbosityNone disables logging.
	LogVerbosityNone = 0

	// LogVerbosityDefault sets the default log level.
	LogVerbosityDefault = 1

	// LogVerbosityDebug sets the debug log level.
	LogVerbosityDebug = 2

	// LogVerbosityTrace sets trace log level.
	LogVerbosityTrace = 3
)

var (
	// LogFormat sets the log format.
	LogFormat = `[%{Date} %{Time "15:04:05.000"}][%{Severity}][%{ShortFile}:%{Line}] %{Message}`

	// Log is the shared plugin logger. It writes to stderr, stdout is
	// reserved for the single plugin output line.
	Log = factorlog.New(os.Stderr, factorlog.NewStdFormatter(LogFormat))
)

func init() {
	SetLogLevel("off")
}

// SetLogLevel sets the log verbosity from a level name.
func SetLogLevel(level string) {
	switch strings.ToLower(level) {
	case "off", "":
		Log.SetMinMaxSeverity(factorlog.StringToSeverity("PANIC"), factorlog.StringToSeverity("PANIC"))
		Log.SetVerbosity(LogVerbosityNone)
	case "error", "info":
		Log.SetMinMaxSeverity(factorlog.StringToSeverity(strings.ToUpper(level)), factorlog.StringToSeverity("PANIC"))
		Log.SetVerbosity(LogVerbosityDefault)
	case "debug":
		Log.SetMinMaxSeverity(factorlog.StringToSeverity("DEBUG"), factorlog.StringToSeverity("PANIC"))
		Log.SetVerbosity(LogVerbosityDebug)
	case "trace":
		Log.SetMinMaxSeverity(factorlog.StringToSeverity("TRACE"), factorlog.StringToSeverity("PANIC"))
		Log.SetVerbosity(LogVerbosityTrace)
	default:
		Log.Errorf("unknown log level: %s", level)
	}
}
