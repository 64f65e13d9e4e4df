package lock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := km.Acquire("box-1")
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	releaseA := km.Acquire("box-a")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release := km.Acquire("box-b")
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("independent key blocked by unrelated holder")
	}
}

func TestKeyedMutexOverlappingSetsNoDeadlock(t *testing.T) {
	km := NewKeyedMutex()

	var wg sync.WaitGroup
	// Opposite declaration orders; sorted acquisition must prevent deadlock
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			release := km.Acquire("box-a", "box-b")
			defer release()
		}()
		go func() {
			defer wg.Done()
			release := km.Acquire("box-b", "box-a")
			defer release()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deadlock between overlapping key sets")
	}
}

func TestKeyedMutexDuplicateKeys(t *testing.T) {
	km := NewKeyedMutex()
	release := km.Acquire("box-a", "box-a")
	release()

	// Key must be reacquirable after release
	release2 := km.Acquire("box-a")
	release2()
}

func TestKeyedMutexReleaseIsIdempotent(t *testing.T) {
	km := NewKeyedMutex()
	release := km.Acquire("box-a")
	release()
	assert.NotPanics(t, func() { release() })

	release2 := km.Acquire("box-a")
	release2()
}

func TestKeyedMutexCleansUpEntries(t *testing.T) {
	km := NewKeyedMutex()
	release := km.Acquire("box-a", "box-b")
	release()

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.entries)
}
