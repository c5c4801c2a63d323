package singleinstance

import (
	"os"
	"strconv"
)

const defaultPort = 49500

// lockPort returns the loopback port that marks ownership. Override with
// SINGLEINSTANCE_PORT; values outside [1024, 65535] fall back to the default.
func lockPort() int {
	if v := os.Getenv("SINGLEINSTANCE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1024 && n <= 65535 {
			return n
		}
	}
	return defaultPort
}
