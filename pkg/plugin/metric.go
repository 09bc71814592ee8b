package plugin

import (
	"fmt"
	"strconv"
	"strings"
)

// Variable to use in CheckMetric Min/Max
var Zero = float64(0)

// CheckMetric contains a single performance value.
type CheckMetric struct {
	Name     string
	Unit     string
	Value    int64
	Warning  *int64
	Critical *int64
	Min      *float64
	Max      *float64
}

// String returns the metric in standard plugin performance data format:
// 'name'=value[unit];warn;crit;min;max
func (m *CheckMetric) String() string {
	var res strings.Builder

	fmt.Fprintf(&res, "'%s'=%d%s", m.Name, m.Value, m.Unit)

	res.WriteString(";")
	if m.Warning != nil {
		res.WriteString(strconv.FormatInt(*m.Warning, 10))
	}

	res.WriteString(";")
	if m.Critical != nil {
		res.WriteString(strconv.FormatInt(*m.Critical, 10))
	}

	res.WriteString(";")
	if m.Min != nil {
		res.WriteString(strconv.FormatFloat(*m.Min, 'f', -1, 64))
	}

	res.WriteString(";")
	if m.Max != nil {
		res.WriteString(strconv.FormatFloat(*m.Max, 'f', -1, 64))
	}

	resStr := res.String()
	// strip trailing semicolons
	for strings.HasSuffix(resStr, ";") {
		resStr = strings.TrimSuffix(resStr, ";")
	}

	return resStr
}
