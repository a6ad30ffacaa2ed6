//go:build !linux

package ctlapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
)

// applySocketPermissions is a no-op on non-Linux platforms.
func applySocketPermissions(_, _ string, _ *slog.Logger) {}

// connContextWithPeerCred returns nil on non-Linux platforms.
func connContextWithPeerCred(_ *slog.Logger) func(ctx context.Context, c net.Conn) context.Context {
	return nil
}

// wrapMutationAuth is a no-op on non-Linux platforms (no peer credential extraction).
func wrapMutationAuth(next http.Handler, _ string, _ *slog.Logger) http.Handler {
	return next
}
