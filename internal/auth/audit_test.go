package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogger_TrimsAndKeysByUser(t *testing.T) {
	s, rdb := newMiniRedis(t)
	ctx := context.Background()
	a := NewAuditLogger(rdb, 2)

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, a.Log(ctx, AuditEvent{EventType: EventCodeIssued, UserID: 9, AuthID: i}))
	}
	require.NoError(t, a.Log(ctx, AuditEvent{EventType: EventCodeRejected, AuthID: 99}))

	events, err := a.Recent(ctx, 9, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].AuthID)
	assert.Equal(t, int64(3), events[1].AuthID)
	assert.NotEqual(t, events[0].ID, events[1].ID)
	assert.False(t, events[0].Timestamp.IsZero())

	global, err := s.List("audit")
	require.NoError(t, err)
	assert.Len(t, global, 2)
}
