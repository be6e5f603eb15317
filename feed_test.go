package anticair_test

import (
	"testing"
	"time"

	anticair "github.com/ZarzyckiAlexis/AnticairApp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedReplaysLatestOnSubscribe(t *testing.T) {
	t.Parallel()

	feed := anticair.NewLoginFeed()
	feed.Publish(true)

	ch, cancel := feed.Subscribe()
	defer cancel()

	select {
	case v := <-ch:
		assert.True(t, v)
	case <-time.After(time.Second):
		t.Fatal("expected replayed value")
	}
}

func TestFeedDeliversTransitionsInOrderExactlyOnce(t *testing.T) {
	t.Parallel()

	feed := anticair.NewLoginFeed()
	ch, cancel := feed.Subscribe()
	defer cancel()

	feed.Publish(true)
	feed.Publish(false)
	feed.Publish(true)

	want := []bool{false, true, false, true} // seed plus three transitions
	got := make([]bool, 0, len(want))
	for range want {
		select {
		case v := <-ch:
			got = append(got, v)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for transition")
		}
	}
	assert.Equal(t, want, got)
}

func TestFeedRepeatedValuesAreStillDelivered(t *testing.T) {
	t.Parallel()

	feed := anticair.NewLoginFeed()
	ch, cancel := feed.Subscribe()
	defer cancel()

	feed.Publish(false)
	feed.Publish(false)

	for i := 0; i < 3; i++ { // seed + two publishes
		select {
		case v := <-ch:
			assert.False(t, v)
		case <-time.After(time.Second):
			t.Fatal("timed out")
		}
	}
}

func TestFeedCancelClosesChannel(t *testing.T) {
	t.Parallel()

	feed := anticair.NewLoginFeed()
	ch, cancel := feed.Subscribe()

	cancel()
	cancel() // safe to call twice

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel never closed")
		}
	}
}

func TestFeedSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	t.Parallel()

	feed := anticair.NewLoginFeed()
	_, cancelSlow := feed.Subscribe()
	defer cancelSlow()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			feed.Publish(i%2 == 0)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}

func TestFeedIndependentSubscribers(t *testing.T) {
	t.Parallel()

	feed := anticair.NewLoginFeed()

	first, cancelFirst := feed.Subscribe()
	require.False(t, <-first)

	feed.Publish(true)
	require.True(t, <-first)
	cancelFirst()

	second, cancelSecond := feed.Subscribe()
	defer cancelSecond()
	assert.True(t, <-second) // replay reflects the latest value
	assert.True(t, feed.Current())
}
