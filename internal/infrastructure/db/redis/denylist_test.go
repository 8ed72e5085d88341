package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient implements the two commands the denylist issues.
type fakeClient struct {
	redis.Cmdable
	keys map[string]time.Duration
	err  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{keys: map[string]time.Duration{}}
}

func (f *fakeClient) Set(ctx context.Context, key string, _ interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.keys[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeClient) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestAccessDenylist_Revoke(t *testing.T) {
	client := newFakeClient()
	d := NewAccessDenylist(client)

	err := d.Revoke(context.Background(), "jti-1", 10*time.Minute)
	require.NoError(t, err)

	ttl, ok := client.keys["access:revoked:jti-1"]
	require.True(t, ok)
	assert.Equal(t, 10*time.Minute, ttl)
}

func TestAccessDenylist_IsRevoked(t *testing.T) {
	client := newFakeClient()
	d := NewAccessDenylist(client)
	ctx := context.Background()

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Minute))

	revoked, err = d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = d.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestAccessDenylist_ClientErrors(t *testing.T) {
	boom := errors.New("connection refused")
	client := newFakeClient()
	client.err = boom
	d := NewAccessDenylist(client)
	ctx := context.Background()

	err := d.Revoke(ctx, "jti-1", time.Minute)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, revoked)
}
