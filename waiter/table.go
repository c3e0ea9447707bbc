// Package waiter implements the correlation-id registry shared by the
// multiplexed client: a table of one-shot mailboxes, each bound to a
// correlation id, that a background reader deposits frames into and a
// caller goroutine waits on with an optional deadline.
package waiter

import (
	"sync"
	"time"

	"github.com/damianoneill/rpcframe/wire"
)

// ID is a correlation id allocated by a Table, unique among the ids
// currently registered on that table.
type ID uint64

// Table is a registry of in-flight waiters keyed by ID. It is safe for
// concurrent Register, Deposit and Wait calls from any number of
// goroutines. Table is deliberately instantiated per client rather than
// shared process-wide (see DESIGN.md for the rationale).
type Table struct {
	mu    sync.Mutex
	next  uint64
	slots map[uint64]*slot
}

type slot struct {
	ch chan *wire.Frame
}

// NewTable returns an empty waiter table.
func NewTable() *Table {
	return &Table{slots: make(map[uint64]*slot)}
}

// Register allocates a new id, unique among ids currently pending on this
// table, and returns a Waiter bound to it.
func (t *Table) Register() (ID, *Waiter) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	id := t.next
	s := &slot{ch: make(chan *wire.Frame, 1)}
	t.slots[id] = s

	return ID(id), &Waiter{table: t, id: id, slot: s}
}

// Deposit delivers frame to the waiter registered under id. If no such
// waiter exists — because it was never registered, already timed out, or
// already consumed — the frame is dropped silently. Deposit does not look
// at the response type: the client readers discard ty=200 Polling frames
// with wire.IsPolling before they ever reach the table.
func (t *Table) Deposit(id uint64, frame *wire.Frame) {
	t.mu.Lock()
	s, ok := t.slots[id]
	if ok {
		delete(t.slots, id)
	}
	t.mu.Unlock()

	if !ok {
		return
	}

	// Buffered with capacity 1 and delivered at most once per slot, so
	// this never blocks.
	s.ch <- frame
}

// pending reports how many waiters are currently registered. Exposed for
// tests verifying clean teardown.
func (t *Table) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

// cancel removes id's registration without delivering anything, so a
// waiter that is giving up (timeout, or its owning client being closed)
// does not leak its slot and any later deposit for that id is dropped.
func (t *Table) cancel(id uint64) {
	t.mu.Lock()
	delete(t.slots, id)
	t.mu.Unlock()
}

// Waiter is a one-shot mailbox bound to a single correlation id.
type Waiter struct {
	table *Table
	id    uint64
	slot  *slot
}

// ID returns the correlation id this waiter is bound to.
func (w *Waiter) ID() ID { return ID(w.id) }

// Wait blocks until a frame is deposited for this waiter's id, or timeout
// elapses. A timeout of zero waits forever. On timeout the waiter
// de-registers itself; any later deposit for its id is dropped silently.
func (w *Waiter) Wait(timeout time.Duration) (*wire.Frame, error) {
	if timeout <= 0 {
		return <-w.slot.ch, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case f := <-w.slot.ch:
		return f, nil
	case <-timer.C:
		w.table.cancel(w.id)
		return nil, wire.ErrTimeout
	}
}

// Cancel de-registers the waiter without waiting for a response. Used
// when a request could not be submitted (e.g. the queued writer returned
// an error) so its slot does not linger forever.
func (w *Waiter) Cancel() {
	w.table.cancel(w.id)
}
