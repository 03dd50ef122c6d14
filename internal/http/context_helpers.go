package httpx

import (
	"context"

	"github.com/target/mmk-blog/internal/data/dbconn"
	domainauth "github.com/target/mmk-blog/internal/domain/auth"
)

// RequestContext is the per-request state shared by middleware and handlers.
// It is immutable once stored; derive changed copies with the With* methods.
type RequestContext struct {
	scope     *dbconn.Scope
	sessionID string
	identity  domainauth.Identity
}

// Scope returns the request's connection scope, or nil outside RequestScope.
func (rc RequestContext) Scope() *dbconn.Scope { return rc.scope }

// SessionID returns the session id the client presented, if any.
func (rc RequestContext) SessionID() string { return rc.sessionID }

// Identity returns the resolved caller. It is anonymous until ResolveIdentity runs.
func (rc RequestContext) Identity() domainauth.Identity { return rc.identity }

// WithScope returns a copy bound to scope.
func (rc RequestContext) WithScope(scope *dbconn.Scope) RequestContext {
	rc.scope = scope
	return rc
}

// WithIdentity returns a copy carrying the session id and the identity resolved from it.
func (rc RequestContext) WithIdentity(sessionID string, id domainauth.Identity) RequestContext {
	rc.sessionID = sessionID
	rc.identity = id
	return rc
}

// requestContextKey is an unexported context key type to avoid collisions across packages.
type requestContextKey struct{}

// SetRequestContext returns a child context that carries rc.
func SetRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// GetRequestContext returns the request context value and a boolean indicating presence.
func GetRequestContext(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(RequestContext)
	return rc, ok
}

// IdentityFromContext returns the caller identity, or anonymous when none was resolved.
func IdentityFromContext(ctx context.Context) domainauth.Identity {
	rc, _ := GetRequestContext(ctx)
	return rc.Identity()
}
