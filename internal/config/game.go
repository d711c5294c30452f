package config

import (
	"os"
	"strconv"
)

// DefaultGridSize is the board side length used when a client does
// not ask for one. Overridable via DEFAULT_GRID_SIZE.
func DefaultGridSize() int {
	v, ok := os.LookupEnv("DEFAULT_GRID_SIZE")
	if !ok {
		return 10
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 10
	}
	return n
}

// SessionTTLMinutes bounds how long an idle game session is kept.
func SessionTTLMinutes() int {
	v, ok := os.LookupEnv("SESSION_TTL_MINUTES")
	if !ok {
		return 30
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 30
	}
	return n
}
