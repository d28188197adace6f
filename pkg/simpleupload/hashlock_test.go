package simpleupload

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashLockSerializesSameHash(t *testing.T) {
	h := newHashLock()

	const workers = 32
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.lock("abc")
			counter++
			h.unlock("abc")
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestHashLockReleasesEntries(t *testing.T) {
	h := newHashLock()

	h.lock("abc")
	h.lock("def")
	h.unlock("abc")
	h.unlock("def")

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Empty(t, h.locks, "released locks must not accumulate")
}

func TestHashLockIndependentHashes(t *testing.T) {
	h := newHashLock()

	h.lock("abc")
	done := make(chan struct{})
	go func() {
		h.lock("def")
		h.unlock("def")
		close(done)
	}()
	<-done
	h.unlock("abc")
}
