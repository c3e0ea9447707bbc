package server

import "sync"

// connManager owns the set of currently active per-connection cancel
// functions. On shutdown every registered child is cancelled; children
// that finish on their own (client disconnect) remove themselves.
type connManager struct {
	mu       sync.Mutex
	children map[int]func()
	nextID   int
}

func newConnManager() *connManager {
	return &connManager{children: make(map[int]func())}
}

// add registers cancel and returns a remove function the caller must
// invoke when the connection finishes on its own, so the manager doesn't
// hold a reference to a connection that no longer exists.
func (m *connManager) add(cancel func()) (remove func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.children[id] = cancel
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.children, id)
		m.mu.Unlock()
	}
}

// cancelAll invokes every currently registered child's cancel function.
func (m *connManager) cancelAll() {
	m.mu.Lock()
	children := m.children
	m.children = make(map[int]func())
	m.mu.Unlock()

	for _, cancel := range children {
		cancel()
	}
}
