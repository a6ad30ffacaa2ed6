package notify

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultSubscriberBuffer is the channel capacity handed to subscribers that
// do not ask for a specific size.
const DefaultSubscriberBuffer = 16

// Broadcaster fans events out to subscribers without ever blocking the
// publisher. A subscriber whose buffer is full misses the event.
// The last published event is retained for late subscribers.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[uint64]chan Event
	nextID uint64
	seq    uint64
	last   Event
	closed bool

	dropped atomic.Uint64

	now func() time.Time
}

// NewBroadcaster returns a Broadcaster whose last event is the disconnected
// default.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[uint64]chan Event),
		last: DefaultEvent(KindStatus),
		now:  time.Now,
	}
}

// Publish stamps e with the next sequence number and the current time,
// retains it and delivers it to every subscriber that has room.
// It returns the stamped event. Publishing after Close is a no-op.
func (b *Broadcaster) Publish(e Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return e
	}

	b.seq++
	e.Seq = b.seq
	e.Time = b.now()
	b.last = e

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
	return e
}

// Subscribe registers a subscriber with a buffer of size buf (or
// DefaultSubscriberBuffer when buf <= 0). The returned function unsubscribes
// and closes the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe(buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = DefaultSubscriberBuffer
	}
	ch := make(chan Event, buf)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Last returns the most recently published event.
func (b *Broadcaster) Last() Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber's
// buffer was full.
func (b *Broadcaster) Dropped() uint64 { return b.dropped.Load() }

// Close closes every subscriber channel. Later publishes are ignored and
// later subscribers receive a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
