package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisOTPStore(t *testing.T, retention time.Duration) (*RedisOTPStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisOTPStore(client, retention), mr
}

func TestOTPStores(t *testing.T) {
	redisStore, _ := newRedisOTPStore(t, time.Hour)
	stores := map[string]OTPStore{
		"memory": NewMemoryOTPStore(),
		"redis":  redisStore,
	}

	expires := time.Date(2025, 3, 10, 9, 10, 0, 0, time.UTC)
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := store.Get(ctx, "ravi@example.com")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Put(ctx, "ravi@example.com", OTPRecord{OTP: "111111", ExpiresAt: expires, UserID: 7}))
			require.NoError(t, store.Put(ctx, "ravi@example.com", OTPRecord{OTP: "222222", ExpiresAt: expires, UserID: 7}))

			rec, ok, err := store.Get(ctx, "ravi@example.com")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "222222", rec.OTP)
			assert.Equal(t, uint(7), rec.UserID)
			assert.True(t, expires.Equal(rec.ExpiresAt))

			removed, err := store.Delete(ctx, "ravi@example.com")
			require.NoError(t, err)
			assert.True(t, removed)

			removed, err = store.Delete(ctx, "ravi@example.com")
			require.NoError(t, err)
			assert.False(t, removed)
		})
	}
}

func TestOTPStores_ClaimOnlyMatchingRecord(t *testing.T) {
	redisStore, _ := newRedisOTPStore(t, time.Hour)
	stores := map[string]OTPStore{
		"memory": NewMemoryOTPStore(),
		"redis":  redisStore,
	}

	expires := time.Date(2025, 3, 10, 9, 10, 0, 0, time.UTC)
	old := OTPRecord{OTP: "111111", ExpiresAt: expires, UserID: 7}
	fresh := OTPRecord{OTP: "222222", ExpiresAt: expires, UserID: 8}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			claimed, err := store.Claim(ctx, "ravi@example.com", old)
			require.NoError(t, err)
			assert.False(t, claimed)

			require.NoError(t, store.Put(ctx, "ravi@example.com", old))
			require.NoError(t, store.Put(ctx, "ravi@example.com", fresh))

			claimed, err = store.Claim(ctx, "ravi@example.com", old)
			require.NoError(t, err)
			assert.False(t, claimed)
			rec, ok, err := store.Get(ctx, "ravi@example.com")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, fresh.OTP, rec.OTP)

			claimed, err = store.Claim(ctx, "ravi@example.com", OTPRecord{OTP: fresh.OTP, UserID: 7})
			require.NoError(t, err)
			assert.False(t, claimed)

			claimed, err = store.Claim(ctx, "ravi@example.com", fresh)
			require.NoError(t, err)
			assert.True(t, claimed)
			_, ok, err = store.Get(ctx, "ravi@example.com")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRedisOTPStore_KeyRetention(t *testing.T) {
	store, mr := newRedisOTPStore(t, 15*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ravi@example.com", OTPRecord{OTP: "123456", UserID: 1}))
	assert.True(t, mr.Exists("otp:ravi@example.com"))
	assert.Equal(t, 15*time.Minute, mr.TTL("otp:ravi@example.com"))

	mr.FastForward(16 * time.Minute)
	_, ok, err := store.Get(ctx, "ravi@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryOTPStore_Sweep(t *testing.T) {
	store := NewMemoryOTPStore()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, "old@example.com", OTPRecord{OTP: "1", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, store.Put(ctx, "new@example.com", OTPRecord{OTP: "2", ExpiresAt: now.Add(time.Minute)}))

	assert.Equal(t, 1, store.Sweep(now))

	_, ok, _ := store.Get(ctx, "old@example.com")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "new@example.com")
	assert.True(t, ok)
}
