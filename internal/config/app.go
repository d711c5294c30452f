package config

import "os"

// Addr returns the listen address, ":8080" unless APP_PORT is set.
func Addr() string {
	if port, ok := os.LookupEnv("APP_PORT"); ok && port != "" {
		return ":" + port
	}
	return ":8080"
}
