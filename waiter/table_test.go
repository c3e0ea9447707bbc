package waiter

import (
	"sync"
	"testing"
	"time"

	"github.com/damianoneill/rpcframe/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIDsAreUnique(t *testing.T) {
	table := NewTable()
	seen := make(map[ID]bool)
	for i := 0; i < 1000; i++ {
		id, _ := table.Register()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestDepositWakesMatchingWaiter(t *testing.T) {
	table := NewTable()
	id, w := table.Register()

	frame := &wire.Frame{ID: uint64(id)}
	table.Deposit(uint64(id), frame)

	got, err := w.Wait(0)
	require.NoError(t, err)
	assert.Same(t, frame, got)
}

func TestDepositForUnknownIDIsDroppedSilently(t *testing.T) {
	table := NewTable()
	// Should not panic, block or otherwise misbehave.
	table.Deposit(999, &wire.Frame{ID: 999})
	assert.Equal(t, 0, table.pending())
}

func TestConcurrentCorrelationNoSwaps(t *testing.T) {
	table := NewTable()

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(want int) {
			defer wg.Done()
			id, w := table.Register()
			table.Deposit(uint64(id), &wire.Frame{ID: uint64(id)})
			got, err := w.Wait(time.Second)
			assert.NoError(t, err)
			assert.Equal(t, uint64(id), got.ID)
		}(i)
	}
	wg.Wait()
}

func TestWaitTimesOutAndDeregisters(t *testing.T) {
	table := NewTable()
	id, w := table.Register()

	_, err := w.Wait(10 * time.Millisecond)
	assert.ErrorIs(t, err, wire.ErrTimeout)
	assert.Equal(t, 0, table.pending())

	// A late deposit for the now-cancelled id must be dropped, not panic.
	table.Deposit(uint64(id), &wire.Frame{ID: uint64(id)})
}

func TestCancelRemovesRegistration(t *testing.T) {
	table := NewTable()
	id, w := table.Register()
	w.Cancel()
	assert.Equal(t, 0, table.pending())
	table.Deposit(uint64(id), &wire.Frame{ID: uint64(id)})
}
