// nolint:ALL
package check_jobs_status

import (
	"os"
	"regexp"
	"strings"
)

// readLastLine returns the last line of the given file, without the line
// ending. An empty file yields an empty string.
func readLastLine(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	text := strings.TrimRight(string(raw), "\r\n")
	if idx := strings.LastIndexByte(text, '\n'); idx != -1 {
		text = text[idx+1:]
	}

	return strings.TrimSuffix(text, "\r"), nil
}

// parseLastLine matches the last line of a job file against the given
// pattern and extracts the optional performance data segment following the
// first pipe character, with interior whitespace stripped. An empty line
// never matches.
func parseLastLine(line string, pattern *regexp.Regexp) (matched bool, perfData string) {
	if line == "" {
		return false, ""
	}

	if idx := strings.IndexByte(line, '|'); idx != -1 {
		perfData = strings.Join(strings.Fields(line[idx+1:]), "")
	}

	return pattern.MatchString(line), perfData
}
