package events

import (
	"sync"
)

// Manager fans Events out to any number of Watchers.
type Manager struct {
	mutex    sync.Mutex
	watchers map[*Watcher]struct{}
}

func (m *Manager) Watch() *Watcher {
	watcher := &Watcher{
		Ch:   make(chan Event, 1),
		stop: m.Stop,
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.watchers == nil {
		m.watchers = map[*Watcher]struct{}{}
	}

	m.watchers[watcher] = struct{}{}
	return watcher
}

// Emit never blocks: a pending, unread Event is replaced by the new one.
func (m *Manager) Emit(event Event) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for watcher := range m.watchers {
		for {
			select {
			case watcher.Ch <- event:
			default:
				select {
				case <-watcher.Ch: // drop the stale one
				default:
				}
				continue
			}
			break
		}
	}
}

func (m *Manager) Stop(watcher *Watcher) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.watchers[watcher]; !ok {
		return
	}

	delete(m.watchers, watcher)
	close(watcher.Ch)
}

func (m *Manager) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.watchers)
}
