package queue

import (
	"sync"
)

// terminationSignal runs its subscribers once when fired. Subscribing after
// it fired runs the callback immediately.
type terminationSignal struct {
	mutex       sync.Mutex
	fired       bool
	nextID      uint64
	subscribers map[uint64]func()
}

func (s *terminationSignal) subscribe(fn func()) func() {
	s.mutex.Lock()
	if s.fired {
		s.mutex.Unlock()
		fn()

		return func() {}
	}

	if s.subscribers == nil {
		s.subscribers = make(map[uint64]func())
	}

	s.nextID++
	id := s.nextID
	s.subscribers[id] = fn
	s.mutex.Unlock()

	return func() {
		s.mutex.Lock()
		delete(s.subscribers, id)
		s.mutex.Unlock()
	}
}

func (s *terminationSignal) fire() {
	s.mutex.Lock()
	if s.fired {
		s.mutex.Unlock()

		return
	}

	s.fired = true
	subscribers := s.subscribers
	s.subscribers = nil
	s.mutex.Unlock()

	for _, fn := range subscribers {
		fn()
	}
}
