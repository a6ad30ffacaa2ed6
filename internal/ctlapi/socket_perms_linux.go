//go:build linux

package ctlapi

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
)

func applySocketPermissions(socketPath, group string, logger *slog.Logger) {
	if err := SetSocketPermissions(socketPath, group, logger); err != nil {
		logger.Warn("failed to set socket permissions", "error", err)
	}
}

// peerCredKey is the context key for storing PeerCredentials.
type peerCredKey struct{}

// connContextWithPeerCred returns a ConnContext function for http.Server
// that stores the Unix socket peer credentials in the connection context.
func connContextWithPeerCred(logger *slog.Logger) func(ctx context.Context, c net.Conn) context.Context {
	return func(ctx context.Context, c net.Conn) context.Context {
		cred, err := GetPeerCredentials(c)
		if err != nil {
			logger.Debug("failed to get peer credentials", "error", err)
			return ctx
		}
		return context.WithValue(ctx, peerCredKey{}, cred)
	}
}

type contextPeerCredGetter struct{}

func (contextPeerCredGetter) GetPeerCredentials(r *http.Request) (*PeerCredentials, error) {
	cred, ok := r.Context().Value(peerCredKey{}).(*PeerCredentials)
	if !ok || cred == nil {
		return nil, fmt.Errorf("ctlapi: peer credentials not available")
	}
	return cred, nil
}

// wrapMutationAuth guards mutating routes with SO_PEERCRED checks.
func wrapMutationAuth(next http.Handler, group string, logger *slog.Logger) http.Handler {
	return MutationAuthMiddleware(OSGroupChecker{}, contextPeerCredGetter{}, group, logger)(next)
}
