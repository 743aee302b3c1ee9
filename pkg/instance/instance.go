package instance

import (
	"os"

	"github.com/mythra-labs/mythra-backend/pkg/env"
)

// ID returns the identifier this process logs under. MYTHRA_INSTANCE_ID
// wins, then the Heroku dyno name, then the hostname.
func ID() string {
	if id := env.Get("MYTHRA_INSTANCE_ID", os.Getenv("DYNO")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
