package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionStoreTest(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewStore(rdb, "test", ttl), mr
}

func TestCreateAndGet(t *testing.T) {
	store, mr := newSessionStoreTest(t, time.Hour)
	ctx := context.Background()

	sess, err := store.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, time.Hour, sess.ExpiresAt.Sub(sess.CreatedAt))
	assert.True(t, mr.Exists("test:session:"+sess.ID))
	assert.Equal(t, time.Hour, mr.TTL("test:session:"+sess.ID))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, sess.ExpiresAt.Unix(), got.ExpiresAt.Unix())
}

func TestSessionIDsAreUnique(t *testing.T) {
	store, _ := newSessionStoreTest(t, time.Hour)
	ctx := context.Background()

	a, err := store.Create(ctx, "user-1")
	require.NoError(t, err)
	b, err := store.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateRequiresUser(t *testing.T) {
	store, _ := newSessionStoreTest(t, time.Hour)
	_, err := store.Create(context.Background(), "")
	assert.Error(t, err)
}

func TestGetMissingSession(t *testing.T) {
	store, _ := newSessionStoreTest(t, time.Hour)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionExpiresWithRedisTTL(t *testing.T) {
	store, mr := newSessionStoreTest(t, time.Minute)
	ctx := context.Background()

	sess, err := store.Create(ctx, "user-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExpiredRecordIsRejected(t *testing.T) {
	store, _ := newSessionStoreTest(t, time.Minute)
	ctx := context.Background()

	sess, err := store.Create(ctx, "user-1")
	require.NoError(t, err)

	store.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCorruptRecordIsNotFound(t *testing.T) {
	store, mr := newSessionStoreTest(t, time.Minute)
	require.NoError(t, mr.Set("test:session:broken", "{not json"))

	_, err := store.Get(context.Background(), "broken")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, _ := newSessionStoreTest(t, time.Hour)
	ctx := context.Background()

	sess, err := store.Create(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, sess.ID))
	require.NoError(t, store.Delete(ctx, sess.ID))
	require.NoError(t, store.Delete(ctx, ""))

	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisFailuresAreNotNotFound(t *testing.T) {
	store, mr := newSessionStoreTest(t, time.Hour)
	ctx := context.Background()

	sess, err := store.Create(ctx, "user-1")
	require.NoError(t, err)

	mr.SetError("READONLY simulated failure")

	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, store.Delete(ctx, sess.ID), ErrStoreUnavailable)

	_, err = store.Create(ctx, "user-2")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
