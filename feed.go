package anticair

import "sync"

// LoginFeed broadcasts logged-in transitions with replay-latest semantics:
// a new subscriber immediately receives the current value, then every
// subsequent transition, in order, exactly once. Delivery to slow consumers
// is decoupled through a per-subscriber queue so publishers never block.
type LoginFeed struct {
	mu      sync.Mutex
	current bool
	nextID  int
	subs    map[int]*feedSub
}

type feedSub struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue []bool
	done  chan struct{}
	out   chan bool
}

func NewLoginFeed() *LoginFeed {
	return &LoginFeed{subs: make(map[int]*feedSub)}
}

// Current returns the value the next subscriber would be seeded with.
func (f *LoginFeed) Current() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Subscribe registers a new observer. The returned channel is seeded with
// the current value. The cancel func releases the subscription and closes
// the channel; it is safe to call more than once.
func (f *LoginFeed) Subscribe() (<-chan bool, func()) {
	sub := &feedSub{
		out:  make(chan bool),
		done: make(chan struct{}),
	}
	sub.cond = sync.NewCond(&sub.mu)

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	sub.queue = append(sub.queue, f.current)
	f.subs[id] = sub
	f.mu.Unlock()

	go sub.pump()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			sub.close()
		})
	}
	return sub.out, cancel
}

// Publish records a transition and queues it for every subscriber. Repeated
// values are still delivered; callers decide when a transition happened.
func (f *LoginFeed) Publish(value bool) {
	f.mu.Lock()
	f.current = value
	for _, sub := range f.subs {
		sub.enqueue(value)
	}
	f.mu.Unlock()
}

func (s *feedSub) enqueue(value bool) {
	s.mu.Lock()
	select {
	case <-s.done:
	default:
		s.queue = append(s.queue, value)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *feedSub) close() {
	s.mu.Lock()
	close(s.done)
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *feedSub) isDone() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// pump drains the queue into the subscriber channel. It owns the channel:
// when the subscription is cancelled the channel closes and any undelivered
// values are dropped, since the subscriber is gone.
func (s *feedSub) pump() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.isDone() {
			s.cond.Wait()
		}
		if s.isDone() {
			s.mu.Unlock()
			close(s.out)
			return
		}
		value := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- value:
		case <-s.done:
			close(s.out)
			return
		}
	}
}
