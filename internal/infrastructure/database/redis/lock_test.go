package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
)

func newMockLock(t *testing.T, name string, opts ...LockOption) (*redisMutex, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	client := NewClientFromUniversal(db, &RedisConfig{}, logging.NewNopLogger())
	lock := NewLockFactory(client, nil).NewMutex(name, opts...).(*redisMutex)
	return lock, mock
}

func TestMutex_KeyUsesPrefix(t *testing.T) {
	lock, _ := newMockLock(t, "analysis:req-1")
	assert.Equal(t, "solarsite:lock:analysis:req-1", lock.Key())
}

func TestMutex_TryLockAndUnlock(t *testing.T) {
	lock, mock := newMockLock(t, "job", WithLockTTL(time.Minute))
	ctx := context.Background()

	mock.ExpectSetNX(lock.key, lock.value, time.Minute).SetVal(true)
	mock.ExpectEvalSha(mutexUnlockScript.Hash(), []string{lock.key}, lock.value).SetVal(int64(1))

	ok, err := lock.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, lock.Unlock(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMutex_TryLockContended(t *testing.T) {
	lock, mock := newMockLock(t, "job", WithLockTTL(time.Minute))
	mock.ExpectSetNX(lock.key, lock.value, time.Minute).SetVal(false)

	ok, err := lock.TryLock(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMutex_LockGivesUpAfterRetries(t *testing.T) {
	lock, mock := newMockLock(t, "job", WithLockTTL(time.Minute), WithRetryCount(2), WithRetryDelay(time.Millisecond))
	mock.ExpectSetNX(lock.key, lock.value, time.Minute).SetVal(false)
	mock.ExpectSetNX(lock.key, lock.value, time.Minute).SetVal(false)

	assert.Equal(t, ErrLockNotAcquired, lock.Lock(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMutex_UnlockNotHeld(t *testing.T) {
	lock, mock := newMockLock(t, "job")
	mock.ExpectEvalSha(mutexUnlockScript.Hash(), []string{lock.key}, lock.value).SetVal(int64(0))

	assert.Equal(t, ErrLockNotHeld, lock.Unlock(context.Background()))
}

func TestMutex_Extend(t *testing.T) {
	lock, mock := newMockLock(t, "job")
	mock.ExpectEvalSha(mutexExtendScript.Hash(), []string{lock.key}, lock.value, int64(5000)).SetVal(int64(1))

	ok, err := lock.Extend(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

//Personal.AI order the ending
