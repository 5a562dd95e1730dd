// queue.go: Unbounded outbound command queue
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"context"
	"sync"
)

// outboundQueue is a multi-producer, single-consumer FIFO. push never
// blocks; pop is the only suspension point of the writer.
type outboundQueue struct {
	mu     sync.Mutex
	items  []Command
	head   int
	closed bool
	notify chan struct{}
}

func newOutboundQueue() *outboundQueue {
	return &outboundQueue{notify: make(chan struct{}, 1)}
}

// push appends cmd. It fails only once the queue is closed.
func (q *outboundQueue) push(cmd Command) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return NewHandleClosedError()
	}
	q.items = append(q.items, cmd)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// pop removes the oldest command, waiting until one is available. It
// returns ok=false when ctx is done or the queue is closed and empty.
func (q *outboundQueue) pop(ctx context.Context) (Command, bool) {
	for {
		q.mu.Lock()
		if q.head < len(q.items) {
			cmd := q.takeLocked()
			q.mu.Unlock()
			return cmd, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, false
		}

		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, false
		}
	}
}

func (q *outboundQueue) takeLocked() Command {
	cmd := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}
	return cmd
}

// close rejects further pushes and returns whatever was still queued.
func (q *outboundQueue) close() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	rest := make([]Command, len(q.items)-q.head)
	copy(rest, q.items[q.head:])
	q.items = nil
	q.head = 0

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return rest
}

func (q *outboundQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

func (q *outboundQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
