package cmd

import (
	"github.com/plexsphere/wgsession/internal/ctlapi"
)

// newClient returns a control socket client for the configured socket.
func newClient() *ctlapi.Client {
	return ctlapi.NewClient(resolveSocketPath())
}

// resolveSocketPath returns the --socket flag, or the default socket path.
func resolveSocketPath() string {
	if socketPath != "" {
		return socketPath
	}
	return ctlapi.DefaultSocketPath
}
