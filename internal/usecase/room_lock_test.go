package usecase

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomLocksSerialiseAndCleanUp(t *testing.T) {
	locks := newRoomLocks()

	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		guard   sync.Mutex
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("room-a")
			defer unlock()

			guard.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			guard.Unlock()

			guard.Lock()
			inside--
			guard.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, locks.size())
}

func TestRoomLocksAreIndependent(t *testing.T) {
	locks := newRoomLocks()

	unlockA := locks.lock("room-a")
	unlockB := locks.lock("room-b")
	assert.Equal(t, 2, locks.size())

	unlockA()
	unlockB()
	assert.Equal(t, 0, locks.size())
}
