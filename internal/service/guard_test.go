package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T) (*Guard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewGuard(client), mr
}

func TestGuard_RateLimit(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	for i := 0; i < maxAuthAttempts; i++ {
		ok, err := guard.AllowAuthAttempt(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d should pass", i+1)
	}

	ok, err := guard.AllowAuthAttempt(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	// a different address keeps its own budget
	ok, err = guard.AllowAuthAttempt(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGuard_RateLimitWindowExpires(t *testing.T) {
	guard, mr := newTestGuard(t)
	ctx := context.Background()

	for i := 0; i < maxAuthAttempts; i++ {
		_, err := guard.AllowAuthAttempt(ctx, "10.0.0.1")
		require.NoError(t, err)
	}

	mr.FastForward(authWindow + time.Second)

	ok, err := guard.AllowAuthAttempt(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGuard_LockoutAfterRepeatedFailures(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()
	email := "alice@example.com"

	for i := 0; i < maxLoginFailures-1; i++ {
		require.NoError(t, guard.RegisterFailure(ctx, email))
		locked, err := guard.IsLocked(ctx, email)
		require.NoError(t, err)
		assert.False(t, locked, "failure %d should not lock", i+1)
	}

	require.NoError(t, guard.RegisterFailure(ctx, email))
	locked, err := guard.IsLocked(ctx, email)
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestGuard_LockoutExpires(t *testing.T) {
	guard, mr := newTestGuard(t)
	ctx := context.Background()
	email := "alice@example.com"

	for i := 0; i < maxLoginFailures; i++ {
		require.NoError(t, guard.RegisterFailure(ctx, email))
	}

	mr.FastForward(lockoutDuration + time.Second)

	locked, err := guard.IsLocked(ctx, email)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestGuard_ClearFailuresResetsCounter(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()
	email := "alice@example.com"

	for i := 0; i < maxLoginFailures-1; i++ {
		require.NoError(t, guard.RegisterFailure(ctx, email))
	}
	require.NoError(t, guard.ClearFailures(ctx, email))

	// one more failure after the reset must not lock
	require.NoError(t, guard.RegisterFailure(ctx, email))
	locked, err := guard.IsLocked(ctx, email)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestGuard_Blacklist(t *testing.T) {
	guard, mr := newTestGuard(t)
	ctx := context.Background()

	black, err := guard.IsBlacklisted(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, black)

	require.NoError(t, guard.BlacklistToken(ctx, "tok-1", time.Hour))

	black, err = guard.IsBlacklisted(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, black)

	mr.FastForward(time.Hour + time.Second)

	black, err = guard.IsBlacklisted(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, black)
}

func TestGuard_BlacklistExpiredToken(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	// a token past its own expiry needs no blacklist entry
	require.NoError(t, guard.BlacklistToken(ctx, "tok-old", -time.Minute))

	black, err := guard.IsBlacklisted(ctx, "tok-old")
	require.NoError(t, err)
	assert.False(t, black)
}

func TestGuard_Sessions(t *testing.T) {
	guard, mr := newTestGuard(t)
	ctx := context.Background()

	require.NoError(t, guard.CreateSession(ctx, "user-1", "tok-1"))
	assert.True(t, mr.Exists("session:user-1"))

	require.NoError(t, guard.DeleteSession(ctx, "user-1"))
	assert.False(t, mr.Exists("session:user-1"))
}
