package core

import (
	"strconv"
	"strings"
)

// NormalizeVersion maps a version cell to its canonical form: a missing or
// blank cell counts as "0".
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "0"
	}
	return v
}

// NextVersion increments a version stamp by exactly 1. An unparsable stamp
// restarts the counter at 1 rather than propagating garbage.
func NextVersion(v string) string {
	n, err := strconv.ParseInt(NormalizeVersion(v), 10, 64)
	if err != nil {
		return "1"
	}
	return strconv.FormatInt(n+1, 10)
}
