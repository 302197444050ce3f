// Package instance names the running process for logs.
package instance

import "github.com/genesoft/portal-backend/pkg/env"

// GetID returns the platform-assigned instance name, or "local".
func GetID() string {
	for _, key := range []string{"GENESOFT_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		if id := env.Get(key, ""); id != "" {
			return id
		}
	}
	return "local"
}
