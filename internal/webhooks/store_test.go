package webhooks

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	first, err := s.MarkProcessed(ctx, "stripe", "evt_1")
	require.NoError(t, err)
	assert.True(t, first)

	first, _ = s.MarkProcessed(ctx, "stripe", "evt_1")
	assert.False(t, first)

	first, _ = s.MarkProcessed(ctx, "square", "evt_1")
	assert.True(t, first, "event ids are scoped per processor")

	require.NoError(t, s.Forget(ctx, "stripe", "evt_1"))
	first, _ = s.MarkProcessed(ctx, "stripe", "evt_1")
	assert.True(t, first)

	now = now.Add(2 * time.Minute)
	first, _ = s.MarkProcessed(ctx, "square", "evt_1")
	assert.True(t, first, "expired marks are dropped")
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	s := NewRedisStore(client, time.Hour)

	first, err := s.MarkProcessed(ctx, "paypal", "WH-1")
	require.NoError(t, err)
	assert.True(t, first)
	assert.True(t, mr.Exists("webhooks:processed:v1:paypal:WH-1"))
	assert.Equal(t, time.Hour, mr.TTL("webhooks:processed:v1:paypal:WH-1"))

	first, err = s.MarkProcessed(ctx, "paypal", "WH-1")
	require.NoError(t, err)
	assert.False(t, first)

	require.NoError(t, s.Forget(ctx, "paypal", "WH-1"))
	assert.False(t, mr.Exists("webhooks:processed:v1:paypal:WH-1"))

	mr.SetError("LOADING")
	_, err = s.MarkProcessed(ctx, "paypal", "WH-2")
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	s := newPostgresStoreWithExec(mock)

	mock.ExpectExec("INSERT INTO processed_webhook_events").WithArgs("square", "evt-new").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	first, err := s.MarkProcessed(ctx, "square", "evt-new")
	require.NoError(t, err)
	assert.True(t, first)

	mock.ExpectExec("INSERT INTO processed_webhook_events").WithArgs("square", "evt-new").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	first, err = s.MarkProcessed(ctx, "square", "evt-new")
	require.NoError(t, err)
	assert.False(t, first)

	mock.ExpectExec("DELETE FROM processed_webhook_events").WithArgs("square", "evt-new").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, s.Forget(ctx, "square", "evt-new"))

	mock.ExpectExec("INSERT INTO processed_webhook_events").WithArgs("square", "evt-err").
		WillReturnError(errors.New("connection reset"))
	_, err = s.MarkProcessed(ctx, "square", "evt-err")
	assert.ErrorContains(t, err, "webhooks: mark processed")

	require.NoError(t, mock.ExpectationsWereMet())
}
