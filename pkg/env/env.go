package env

import (
	"os"
	"strings"
)

// Prefix namespaces every variable the service reads.
const Prefix = "STOREFRONT_"

// Get looks up STOREFRONT_<key>, then the bare key, then falls back. It exists
// for the few values read before config.Load runs.
func Get(key, fallback string) string {
	key = strings.TrimPrefix(key, Prefix)
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
