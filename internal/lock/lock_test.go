package redlock

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_Lock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, "migrate:postgres", "holder-1")

	mock.ExpectSetNX("migrate:postgres", "holder-1", 5*time.Second).SetVal(true)
	mock.ExpectSetNX("migrate:postgres", "holder-1", 5*time.Second).SetVal(false)

	assert.NoError(t, locker.Lock(context.Background(), 5*time.Second))
	err := locker.Lock(context.Background(), 5*time.Second)
	assert.True(t, errors.Is(err, ErrLockHeld))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_Unlock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, "migrate:postgres", "holder-1")

	mock.ExpectEval(unlockScript, []string{"migrate:postgres"}, "holder-1").SetVal(int64(1))
	mock.ExpectEval(unlockScript, []string{"migrate:postgres"}, "holder-1").SetVal(int64(0))

	assert.NoError(t, locker.Unlock(context.Background()))
	assert.Error(t, locker.Unlock(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_ExtendLock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, "migrate:postgres", "holder-1")

	ms := strconv.FormatInt((10 * time.Second).Milliseconds(), 10)
	mock.ExpectEval(extendScript, []string{"migrate:postgres"}, "holder-1", ms).SetVal(int64(1))

	assert.NoError(t, locker.ExtendLock(context.Background(), 10*time.Second))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_WaitLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	first := NewLocker(client, "migrate:sqlite3", "a")
	second := NewLocker(client, "migrate:sqlite3", "b")

	require.NoError(t, first.Lock(context.Background(), time.Minute))

	err = second.WaitLock(context.Background(), time.Minute, 100*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockHeld))

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = first.Unlock(context.Background())
	}()
	assert.NoError(t, second.WaitLock(context.Background(), time.Minute, 2*time.Second))
	holder, err := mr.Get("migrate:sqlite3")
	require.NoError(t, err)
	assert.Equal(t, "b", holder)
}
