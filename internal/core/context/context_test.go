package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserHelpers(t *testing.T) {
	ctx := WithUser(context.Background(), &UserContext{
		UserID:      "u-1",
		Roles:       []string{"clerk"},
		Permissions: []string{"documents.write"},
	})

	assert.Equal(t, "u-1", GetUserID(ctx))
	assert.True(t, HasRole(ctx, "clerk"))
	assert.False(t, HasRole(ctx, "admin"))
	assert.True(t, HasPermission(ctx, "documents.write"))
	assert.False(t, HasPermission(ctx, "documents.override"))
}

func TestAdminHoldsEveryPermission(t *testing.T) {
	ctx := WithUser(context.Background(), &UserContext{UserID: "root", IsAdmin: true})
	assert.True(t, HasPermission(ctx, "documents.override"))
}

func TestAnonymousContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetUser(ctx))
	assert.Empty(t, GetUserID(ctx))
	assert.False(t, HasPermission(ctx, "anything"))
	assert.Empty(t, GetTraceID(ctx))
}

func TestNewTraceContextKeepsIncomingIDs(t *testing.T) {
	tc := NewTraceContext("trace-1", "req-1")
	assert.Equal(t, "trace-1", tc.TraceID)
	assert.Equal(t, "req-1", tc.RequestID)
	assert.Len(t, tc.SpanID, 16)

	fresh := NewTraceContext("", "")
	assert.NotEmpty(t, fresh.TraceID)
	assert.NotEmpty(t, fresh.RequestID)

	ctx := WithTrace(context.Background(), tc)
	assert.Equal(t, "trace-1", GetTraceID(ctx))
	assert.Equal(t, "req-1", GetRequestID(ctx))
}
