package sensitive

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shriya-upadhyay/meridian/internal/models"
)

func bundle(name string) models.SensitiveBundle {
	return models.SensitiveBundle{
		SenderInfo:  models.SenderInfo{SenderName: name, SenderAccount: "SG-001"},
		Declaration: models.Declaration{SourceOfFunds: "salary"},
	}
}

func TestPutGetDelete(t *testing.T) {
	s := NewStore()

	_, ok := s.Get("TX-1")
	assert.False(t, ok)

	s.Put("TX-1", bundle("Alice"))
	got, ok := s.Get("TX-1")
	require.True(t, ok)
	assert.Equal(t, "Alice", got.SenderInfo.SenderName)

	// Get must not consume the entry.
	_, ok = s.Get("TX-1")
	assert.True(t, ok)

	assert.True(t, s.Delete("TX-1"))
	assert.False(t, s.Delete("TX-1"))
	_, ok = s.Get("TX-1")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestPutReplaces(t *testing.T) {
	s := NewStore(WithShards(1))
	s.Put("TX-1", bundle("first"))
	s.Put("TX-1", bundle("second"))

	got, _ := s.Get("TX-1")
	assert.Equal(t, "second", got.SenderInfo.SenderName)
	assert.Equal(t, 1, s.Len())
}

func TestConcurrentDistinctKeys(t *testing.T) {
	s := NewStore(WithShards(8))
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			txID := fmt.Sprintf("TX-%d", i)
			s.Put(txID, bundle(txID))
			got, ok := s.Get(txID)
			assert.True(t, ok)
			assert.Equal(t, txID, got.SenderInfo.SenderName)
			if i%2 == 0 {
				assert.True(t, s.Delete(txID))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n/2, s.Len())
	for i := 1; i < n; i += 2 {
		_, ok := s.Get(fmt.Sprintf("TX-%d", i))
		assert.True(t, ok)
	}
}

func TestSweepExpiresOldEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := NewStore(WithTTL(time.Hour), WithClock(clock))

	s.Put("old", bundle("old"))
	now = now.Add(45 * time.Minute)
	s.Put("fresh", bundle("fresh"))

	assert.Equal(t, 0, s.Sweep(now))
	assert.Equal(t, 1, s.Sweep(now.Add(30*time.Minute)))

	_, ok := s.Get("old")
	assert.False(t, ok)
	_, ok = s.Get("fresh")
	assert.True(t, ok)
}

func TestSweepWithoutTTLKeepsEverything(t *testing.T) {
	s := NewStore()
	s.Put("TX-1", bundle("a"))
	assert.Equal(t, 0, s.Sweep(time.Now().Add(1000*time.Hour)))
	assert.Equal(t, 1, s.Len())
}

func TestRunStopsOnClose(t *testing.T) {
	s := NewStore(WithTTL(time.Millisecond))
	s.Put("TX-1", bundle("a"))

	started := make(chan struct{})
	go func() {
		close(started)
		s.Run(context.Background(), 5*time.Millisecond)
	}()
	<-started

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	s.Close()
	s.Close()
}

func TestRunStopsOnContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		s.Run(ctx, time.Second)
		close(finished)
	}()
	cancel()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
