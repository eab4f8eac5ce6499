package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_Exclusive(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	first, err := l.Obtain(ctx, "payout:u1", time.Minute)
	require.NoError(t, err)

	_, err = l.Obtain(ctx, "payout:u1", time.Minute)
	assert.ErrorIs(t, err, ErrNotObtained)

	_, err = l.Obtain(ctx, "payout:u2", time.Minute)
	assert.NoError(t, err, "different keys do not contend")

	require.NoError(t, first.Release(ctx))
	_, err = l.Obtain(ctx, "payout:u1", time.Minute)
	assert.NoError(t, err)
}

func TestLocalLocker_ExpiredLockIsReclaimed(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	l := NewLocalLocker()
	l.nowFn = func() time.Time { return now }

	stale, err := l.Obtain(ctx, "k", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	fresh, err := l.Obtain(ctx, "k", time.Second)
	require.NoError(t, err)

	// Releasing the stale handle must not free the new holder.
	require.NoError(t, stale.Release(ctx))
	_, err = l.Obtain(ctx, "k", time.Second)
	assert.ErrorIs(t, err, ErrNotObtained)

	require.NoError(t, fresh.Release(ctx))
}
