//go:build unit

package keymutex_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"fleetbook/internal/pkg/keymutex"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("serializes callers on the same key", func(t *testing.T) {
		km := keymutex.New()
		key := uuid.New()

		const workers = 50
		var inSection, maxInSection int
		var mu sync.Mutex
		var wg sync.WaitGroup

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := km.Lock(key)
				defer unlock()

				mu.Lock()
				inSection++
				if inSection > maxInSection {
					maxInSection = inSection
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inSection--
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, maxInSection)
	})

	t.Run("distinct keys do not contend", func(t *testing.T) {
		km := keymutex.New()
		a, b := uuid.New(), uuid.New()

		unlockA := km.Lock(a)
		defer unlockA()

		// Holding a must not block b.
		done := make(chan struct{})
		go func() {
			unlockB := km.Lock(b)
			unlockB()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("lock on a different key blocked")
		}
	})

	t.Run("key is reusable after release", func(t *testing.T) {
		km := keymutex.New()
		key := uuid.New()

		unlock := km.Lock(key)
		unlock()
		unlock = km.Lock(key)
		unlock()
	})
}
