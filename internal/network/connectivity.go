package network

import "sync"

// ConnectivityMonitor reports whether the device currently has network
// connectivity. The request executor consults it before every attempt.
type ConnectivityMonitor interface {
	Online() bool
}

// SignalMonitor is a ConnectivityMonitor fed by an external online/offline
// signal. Subscribers are notified on transitions.
type SignalMonitor struct {
	mu        sync.RWMutex
	online    bool
	nextID    int
	listeners map[int]func(online bool)
}

// NewSignalMonitor creates a monitor with the given initial state.
func NewSignalMonitor(online bool) *SignalMonitor {
	return &SignalMonitor{
		online:    online,
		listeners: make(map[int]func(bool)),
	}
}

// Online reports the last signalled connectivity state.
func (m *SignalMonitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline records a connectivity change and notifies subscribers on
// actual transitions. Listeners run synchronously; they must not block.
func (m *SignalMonitor) SetOnline(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	var fns []func(bool)
	if changed {
		fns = make([]func(bool), 0, len(m.listeners))
		for _, fn := range m.listeners {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}

// Subscribe registers fn for connectivity transitions and returns an
// unsubscribe function.
func (m *SignalMonitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}
