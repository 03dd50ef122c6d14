package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/target/mmk-blog/internal/data/dbconn"
	domainauth "github.com/target/mmk-blog/internal/domain/auth"
)

func TestRequestContext_CopiesAreIndependent(t *testing.T) {
	scope := dbconn.NewScope(nil)
	base := RequestContext{}.WithScope(scope)

	alice := domainauth.IdentityOf(&domainauth.User{ID: 1, Username: "alice"})
	withUser := base.WithIdentity("sess-1", alice)

	assert.True(t, base.Identity().IsAnonymous(), "original is unchanged")
	assert.Empty(t, base.SessionID())
	assert.Same(t, scope, withUser.Scope())
	assert.Equal(t, "alice", withUser.Identity().Username())
	assert.Equal(t, "sess-1", withUser.SessionID())
}

func TestIdentityFromContext_DefaultsToAnonymous(t *testing.T) {
	assert.True(t, IdentityFromContext(context.Background()).IsAnonymous())

	_, ok := GetRequestContext(context.Background())
	assert.False(t, ok)

	bob := domainauth.IdentityOf(&domainauth.User{ID: 2, Username: "bob"})
	ctx := SetRequestContext(context.Background(), RequestContext{}.WithIdentity("s", bob))
	assert.Equal(t, int64(2), IdentityFromContext(ctx).UserID())
}
