package gateway

import (
	"context"
	"sync"

	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

// subscriber owns an unbounded FIFO so the read pump never blocks on a slow
// consumer. A consumer may issue RPCs while handling an event.
type subscriber struct {
	ctx    context.Context
	out    chan protocol.EventFrame
	signal chan struct{}

	mu    sync.Mutex
	queue []protocol.EventFrame
}

func newSubscriber(ctx context.Context) *subscriber {
	return &subscriber{
		ctx:    ctx,
		out:    make(chan protocol.EventFrame),
		signal: make(chan struct{}, 1),
	}
}

func (s *subscriber) push(ev protocol.EventFrame) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber) take() []protocol.EventFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.queue
	s.queue = nil
	return batch
}

func (s *subscriber) deliver(batch []protocol.EventFrame) bool {
	for _, ev := range batch {
		if s.ctx.Err() != nil {
			return false
		}
		select {
		case s.out <- ev:
		case <-s.ctx.Done():
			return false
		}
	}
	return true
}

// run delivers queued events until ctx is done. After connDone it flushes
// what is queued and closes out.
func (s *subscriber) run(connDone <-chan struct{}) {
	defer close(s.out)
	for {
		if !s.deliver(s.take()) {
			return
		}
		select {
		case <-s.signal:
		case <-s.ctx.Done():
			return
		case <-connDone:
			s.deliver(s.take())
			return
		}
	}
}
