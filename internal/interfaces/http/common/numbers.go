package common

import (
	"strconv"
	"strings"
)

// ParsePositiveInt parses positive integers with fallback.
// The second result reports whether value held a usable number.
func ParsePositiveInt(value string, fallback int) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback, false
	}
	return parsed, true
}
