package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is used when a due window flag is given without a value.
const DefaultWindow = "1w"

var (
	windowPattern = regexp.MustCompile(`^\s*(\d+)\s*([a-z]+)`)
	unitDays      = map[string]int{
		"d":         1,
		"day":       1,
		"days":      1,
		"w":         7,
		"wk":        7,
		"wks":       7,
		"week":      7,
		"weeks":     7,
		"fortnight": 14,
	}
)

// Window is a span of whole calendar days counted forward from today.
// Due dates carry no time of day, so anything finer than a day is rejected.
type Window struct {
	Days int
}

// ParseWindow parses strings such as "3d", "2w" or "1w3d". An empty input
// yields the default one week window. "0d" is allowed and means today only.
func ParseWindow(input string) (Window, error) {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "" {
		trimmed = DefaultWindow
	}

	remaining := trimmed
	total := 0
	for len(remaining) > 0 {
		matches := windowPattern.FindStringSubmatch(remaining)
		if len(matches) != 3 {
			return Window{}, fmt.Errorf("invalid window segment %q", strings.TrimSpace(remaining))
		}
		value, err := strconv.Atoi(matches[1])
		if err != nil {
			return Window{}, fmt.Errorf("invalid window value %q: %w", matches[1], err)
		}
		days, ok := unitDays[matches[2]]
		if !ok {
			return Window{}, fmt.Errorf("unsupported window unit %q", matches[2])
		}
		total += value * days
		remaining = strings.TrimSpace(remaining[len(matches[0]):])
	}
	return Window{Days: total}, nil
}

// String renders the window compactly, for example "1w3d".
func (w Window) String() string {
	if w.Days <= 0 {
		return "0d"
	}
	var b strings.Builder
	if weeks := w.Days / 7; weeks > 0 {
		fmt.Fprintf(&b, "%dw", weeks)
	}
	if days := w.Days % 7; days > 0 {
		fmt.Fprintf(&b, "%dd", days)
	}
	return b.String()
}

// Contains reports whether a due date daysAway days from today falls inside
// the window. Past dates are never inside.
func (w Window) Contains(daysAway int) bool {
	return daysAway >= 0 && daysAway <= w.Days
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
