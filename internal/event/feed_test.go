package event

import (
	"sync"
	"testing"
	"time"

	"github.com/blues/mfs/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedDeliversBatchInIdOrder(t *testing.T) {
	feed, err := NewFeed(2)
	require.NoError(t, err)
	defer feed.Close()

	var mu sync.Mutex
	var got []int64
	unsubscribe := feed.Subscribe(func(ev model.EventModel) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev.Id)
	})
	assert.Equal(t, 1, feed.Subscribers())

	feed.Publish([]model.EventModel{{Id: 3}, {Id: 1}, {Id: 2}})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, 10*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []int64{1, 2, 3}, got)
	mu.Unlock()

	unsubscribe()
	assert.Zero(t, feed.Subscribers())

	feed.Publish([]model.EventModel{{Id: 4}})
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Len(t, got, 3)
	mu.Unlock()
}

func TestFeedSurvivesPanickingSubscriber(t *testing.T) {
	feed, err := NewFeed(0)
	require.NoError(t, err)
	defer feed.Close()

	feed.Subscribe(func(ev model.EventModel) { panic("bad subscriber") })
	delivered := make(chan int64, 1)
	feed.Subscribe(func(ev model.EventModel) { delivered <- ev.Id })

	feed.Publish([]model.EventModel{{Id: 9}})
	select {
	case id := <-delivered:
		assert.Equal(t, int64(9), id)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	// 空批次不推送
	feed.Publish(nil)
}
