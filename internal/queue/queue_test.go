package queue

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"easydrive/internal/notify"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func testEvent(id string) *notify.Event {
	return &notify.Event{
		ID:          id,
		Recipient:   "guest@example.com",
		TemplateKey: notify.KeyConfirmed,
		Subject:     "Your reservation is confirmed",
		Body:        "body",
	}
}

func TestRedisQueue(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	q := NewRedisQueue(client, "test:queue", "test:dead")
	ctx := context.Background()

	t.Run("EnqueueDequeue", func(t *testing.T) {
		require.NoError(t, q.Enqueue(ctx, testEvent("e1")))
		require.NoError(t, q.Enqueue(ctx, testEvent("e2")))

		n, err := q.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		// FIFO order
		got, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "e1", got.ID)
		assert.Equal(t, notify.KeyConfirmed, got.TemplateKey)

		got, err = q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "e2", got.ID)
	})

	t.Run("DequeueEmpty", func(t *testing.T) {
		got, err := q.Dequeue(ctx, 50*time.Millisecond)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DeadLetter", func(t *testing.T) {
		require.NoError(t, q.DeadLetter(ctx, testEvent("bad")))
		n, err := client.LLen(ctx, "test:dead").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("NilClient", func(t *testing.T) {
		nilQ := NewRedisQueue(nil, "k", "d")
		err := nilQ.Enqueue(ctx, testEvent("x"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})
}

func TestMemoryQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("EnqueueDequeue", func(t *testing.T) {
		q := NewMemoryQueue(10)
		require.NoError(t, q.Enqueue(ctx, testEvent("m1")))

		got, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "m1", got.ID)
	})

	t.Run("DequeueTimesOut", func(t *testing.T) {
		q := NewMemoryQueue(10)
		got, err := q.Dequeue(ctx, 20*time.Millisecond)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("FullQueue", func(t *testing.T) {
		q := NewMemoryQueue(1)
		require.NoError(t, q.Enqueue(ctx, testEvent("a")))
		err := q.Enqueue(ctx, testEvent("b"))
		assert.Error(t, err)
	})

	t.Run("DeadLetters", func(t *testing.T) {
		q := NewMemoryQueue(1)
		require.NoError(t, q.DeadLetter(ctx, testEvent("d1")))
		dead := q.DeadLetters()
		require.Len(t, dead, 1)
		assert.Equal(t, "d1", dead[0].ID)
	})
}

func TestFailoverQueue(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()

	t.Run("UsesPrimary", func(t *testing.T) {
		s, err := miniredis.Run()
		require.NoError(t, err)
		defer s.Close()
		client := redis.NewClient(&redis.Options{Addr: s.Addr()})
		defer client.Close()

		primary := NewRedisQueue(client, "q", "d")
		fallback := NewMemoryQueue(10)
		fq := NewFailoverQueue(primary, fallback, logger)

		require.NoError(t, fq.Enqueue(ctx, testEvent("p1")))
		n, err := primary.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := fq.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "p1", got.ID)
	})

	t.Run("FallsBackWhenPrimaryDies", func(t *testing.T) {
		s, err := miniredis.Run()
		require.NoError(t, err)
		client := redis.NewClient(&redis.Options{Addr: s.Addr()})
		defer client.Close()

		primary := NewRedisQueue(client, "q", "d")
		fallback := NewMemoryQueue(10)
		fq := NewFailoverQueue(primary, fallback, logger)

		s.Close()

		require.NoError(t, fq.Enqueue(ctx, testEvent("f1")))
		n, err := fallback.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := fq.Dequeue(ctx, 50*time.Millisecond)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "f1", got.ID)
	})

	// Handlers enqueue while the worker dequeues; the down-state bookkeeping
	// has to survive that without races.
	t.Run("ConcurrentUseWhileDown", func(t *testing.T) {
		s, err := miniredis.Run()
		require.NoError(t, err)
		client := redis.NewClient(&redis.Options{Addr: s.Addr()})
		defer client.Close()

		primary := NewRedisQueue(client, "q", "d")
		fallback := NewMemoryQueue(100)
		fq := NewFailoverQueue(primary, fallback, logger)

		s.Close()

		const producers = 8
		var wg sync.WaitGroup
		for i := 0; i < producers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				assert.NoError(t, fq.Enqueue(ctx, testEvent(fmt.Sprintf("c%d", n))))
			}(i)
		}

		drained := 0
		for drained < producers {
			got, err := fq.Dequeue(ctx, 50*time.Millisecond)
			require.NoError(t, err)
			if got != nil {
				drained++
			}
		}
		wg.Wait()
		assert.Equal(t, producers, drained)
	})
}
