// Package instance identifies the running process in logs.
package instance

import (
	"os"
	"strings"
)

// idVars are consulted in order; platform-assigned names win over hostnames.
var idVars = []string{"QUOTECART_INSTANCE_ID", "DYNO", "HOSTNAME"}

// GetID returns the first non-empty instance identifier, or "local".
func GetID() string {
	return lookup(os.Getenv)
}

func lookup(getenv func(string) string) string {
	for _, key := range idVars {
		if id := strings.TrimSpace(getenv(key)); id != "" {
			return id
		}
	}
	return "local"
}
