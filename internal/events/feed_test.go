package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var at = time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)

func TestFeed_PublishAndRead(t *testing.T) {
	feed := NewFeed(Config{MaxEvents: 10})

	for i := 0; i < 3; i++ {
		offset := feed.Publish("add_to_rfq", "added", at, i)
		assert.Equal(t, int64(i), offset)
	}

	events, next, hasMore := feed.Events(0, 2)
	require.Len(t, events, 2)
	assert.Equal(t, int64(0), events[0].Offset)
	assert.Equal(t, int64(2), next)
	assert.True(t, hasMore)

	events, next, hasMore = feed.Events(next, 2)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].Data)
	assert.Equal(t, int64(3), next)
	assert.False(t, hasMore)

	events, next, hasMore = feed.Events(next, 2)
	assert.Empty(t, events)
	assert.Equal(t, int64(3), next)
	assert.False(t, hasMore)
}

// TestFeed_Rotation tests that old events are dropped while offsets keep growing
func TestFeed_Rotation(t *testing.T) {
	feed := NewFeed(Config{MaxEvents: 4})

	for i := 0; i < 5; i++ {
		feed.Publish("show_toast", "added", at, i)
	}

	events, next, _ := feed.Events(0, 0)
	require.Len(t, events, 3)
	assert.Equal(t, int64(2), events[0].Offset)
	assert.Equal(t, int64(5), next)
	assert.Equal(t, int64(5), feed.NextOffset())
}

func TestFeed_WaitReturnsWhenEventExists(t *testing.T) {
	feed := NewFeed(Config{})
	feed.Publish("open_modal", "updated", at, nil)

	require.NoError(t, feed.Wait(context.Background(), 0))
}

// TestFeed_WaitWakesOnPublish tests the long-poll path
func TestFeed_WaitWakesOnPublish(t *testing.T) {
	feed := NewFeed(Config{})

	done := make(chan error, 1)
	go func() {
		done <- feed.Wait(context.Background(), 0)
	}()

	feed.Publish("set_filters", "updated", at, nil)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestFeed_WaitHonoursContext(t *testing.T) {
	feed := NewFeed(Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := feed.Wait(ctx, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFeed_CloseReleasesWaiters(t *testing.T) {
	feed := NewFeed(Config{})

	done := make(chan error, 1)
	go func() {
		done <- feed.Wait(context.Background(), 5)
	}()

	feed.Close()
	feed.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}
}
