package routing

import (
	"context"
	"sync"

	"github.com/soyeahso/cargoquote/internal/domain"
)

// inbox queues inbound messages per identity. Each identity has at most one
// worker, which handles its messages in arrival order and exits when the
// queue drains. Different identities proceed in parallel.
type inbox struct {
	mu      sync.Mutex
	queues  map[string][]domain.InboundMessage
	workers sync.WaitGroup
	handle  func(context.Context, domain.InboundMessage)
	closed  bool
}

func newInbox(handle func(context.Context, domain.InboundMessage)) *inbox {
	return &inbox{queues: make(map[string][]domain.InboundMessage), handle: handle}
}

// push enqueues msg for identity and starts a worker if none is running.
// It reports false once the inbox is closed.
func (b *inbox) push(identity string, msg domain.InboundMessage) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}

	q, running := b.queues[identity]
	b.queues[identity] = append(q, msg)
	if running {
		return true
	}
	b.workers.Add(1)
	go b.drain(identity)
	return true
}

func (b *inbox) drain(identity string) {
	defer b.workers.Done()
	for {
		b.mu.Lock()
		q := b.queues[identity]
		if len(q) == 0 {
			delete(b.queues, identity)
			b.mu.Unlock()
			return
		}
		msg := q[0]
		b.queues[identity] = q[1:]
		b.mu.Unlock()

		b.handle(context.Background(), msg)
	}
}

// close refuses further messages and blocks until every worker has
// drained its queue.
func (b *inbox) close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.workers.Wait()
}
