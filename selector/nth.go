package selector

import (
	"regexp"
	"strconv"
	"strings"
)

var nthPattern = regexp.MustCompile(`^([+-]?\d*)n([+-]\d+)?$`)

// parseNth parses the An+B micro-syntax: "odd", "even", a bare integer,
// or the full "An+B" form with optional whitespace around the sign.
func parseNth(s string) (a, b int, ok bool) {
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch s {
	case "odd":
		return 2, 1, true
	case "even":
		return 2, 0, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return 0, n, true
	}
	m := nthPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	switch m[1] {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		a, _ = strconv.Atoi(m[1])
	}
	if m[2] != "" {
		b, _ = strconv.Atoi(m[2])
	}
	return a, b, true
}

// matchNth reports whether the 1-based position pos satisfies An+B for
// some non-negative integer n.
func matchNth(a, b, pos int) bool {
	if a == 0 {
		return pos == b
	}
	d := pos - b
	return d%a == 0 && d/a >= 0
}
