package utils

import (
	"context"
	"sync"
)

// Generic Struct
type ConcurrentQueue[T any] struct {
	// array of items
	items []T
	// Mutual exclusion lock
	lock sync.Mutex
	// Cond is used to pause multiple goroutines and wait
	cond   *sync.Cond
	closed bool
}

// Initialize ConcurrentQueue, the queue closes once ctx is done
func NewConcurrentQueue[T any](ctx context.Context) *ConcurrentQueue[T] {
	q := &ConcurrentQueue[T]{}
	q.cond = sync.NewCond(&q.lock)

	go func() {
		<-ctx.Done()
		q.lock.Lock()
		q.closed = true
		q.lock.Unlock()
		q.cond.Broadcast()
	}()

	return q
}

// Put the item in the queue, items put after closing are dropped
func (q *ConcurrentQueue[T]) Enqueue(item T) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, item)
	// Cond signals other go routines to execute
	q.cond.Signal()
}

// Gets the item from queue, ok is false once the queue is closed
func (q *ConcurrentQueue[T]) Dequeue() (item T, ok bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	// if Get is called before Put, then cond waits until the Put signals.
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return item, false
	}
	item = q.items[0]
	q.items = q.items[1:]
	return item, true
}

func (q *ConcurrentQueue[T]) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}

func (q *ConcurrentQueue[T]) IsEmpty() bool {
	return q.Len() == 0
}
