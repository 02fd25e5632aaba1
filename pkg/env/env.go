package env

import "os"

// Get returns the value of an environment variable, falling back to the
// provided default when the variable is unset or empty.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
