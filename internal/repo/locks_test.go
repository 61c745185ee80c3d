package repo

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	k := newKeyedMutex()
	const workers = 20

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := k.Lock(1)
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, k.size(), "idle keys are released")
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock(1)
	defer unlock()

	done := make(chan struct{})
	go func() {
		k.Lock(2)()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on key 2 blocked behind key 1")
	}
}

func TestKeyedMutex_LockAllDeduplicates(t *testing.T) {
	k := newKeyedMutex()

	unlock := k.LockAll([]int{3, 1, 3, 2, 1})
	assert.Equal(t, 3, k.size())
	unlock()
	assert.Zero(t, k.size())

	k.LockAll(nil)()
	assert.Zero(t, k.size())
}
