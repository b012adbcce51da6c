package env

import (
	"os"
	"strings"
)

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// InstanceID identifies this process in logs and published events.
// Cloud Run sets K_REVISION; local runs fall back to the hostname.
func InstanceID() string {
	if id := Get("SOUTHSIDE_INSTANCE_ID", ""); id != "" {
		return id
	}
	if rev := Get("K_REVISION", ""); rev != "" {
		return rev
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "api-0"
}
