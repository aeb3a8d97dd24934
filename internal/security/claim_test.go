package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginClaims_ClaimAndRelease(t *testing.T) {
	ctx := context.Background()
	claims := NewOriginClaims()

	ok, err := claims.Claim(ctx, "1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = claims.Claim(ctx, "1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = claims.Claim(ctx, "5.6.7.8", time.Minute)
	assert.True(t, ok)

	require.NoError(t, claims.Release(ctx, "1.2.3.4"))
	ok, _ = claims.Claim(ctx, "1.2.3.4", time.Minute)
	assert.True(t, ok)
}

func TestOriginClaims_Expire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	claims := NewOriginClaims()
	claims.now = func() time.Time { return now }

	ok, _ := claims.Claim(ctx, "1.2.3.4", 30*time.Second)
	require.True(t, ok)

	now = now.Add(30 * time.Second)
	ok, _ = claims.Claim(ctx, "1.2.3.4", 30*time.Second)
	assert.True(t, ok)
}

func TestRedisOriginClaims_ExclusiveAcrossInstances(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	first := NewRedisOriginClaims(client, "portfolio")
	second := NewRedisOriginClaims(client, "portfolio")

	ok, err := first.Claim(ctx, "1.2.3.4", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, mr.TTL("portfolio:claim:1.2.3.4"))

	ok, err = second.Claim(ctx, "1.2.3.4", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Release(ctx, "1.2.3.4"))
	assert.False(t, mr.Exists("portfolio:claim:1.2.3.4"))

	ok, _ = second.Claim(ctx, "1.2.3.4", 30*time.Second)
	assert.True(t, ok)
}

func TestRedisOriginClaims_StaleReleaseKeepsNewerClaim(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	first := NewRedisOriginClaims(client, "portfolio")
	second := NewRedisOriginClaims(client, "portfolio")

	ok, _ := first.Claim(ctx, "1.2.3.4", 10*time.Second)
	require.True(t, ok)

	mr.FastForward(11 * time.Second)
	ok, _ = second.Claim(ctx, "1.2.3.4", 10*time.Second)
	require.True(t, ok)

	require.NoError(t, first.Release(ctx, "1.2.3.4"))
	assert.True(t, mr.Exists("portfolio:claim:1.2.3.4"))
}

func TestRedisOriginClaims_FallsBackWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	claims := NewRedisOriginClaims(deadRedis(t), "portfolio")

	ok, err := claims.Claim(ctx, "1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = claims.Claim(ctx, "1.2.3.4", time.Minute)
	assert.False(t, ok)

	require.NoError(t, claims.Release(ctx, "1.2.3.4"))
	ok, _ = claims.Claim(ctx, "1.2.3.4", time.Minute)
	assert.True(t, ok)
}
