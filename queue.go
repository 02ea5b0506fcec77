package cmdmux

import "sync"

// msgQueue is an unbounded multi-producer buffer feeding the public output
// channel. Producers never block, so a caller may Join a group without
// draining its messages first, and buffered output survives until read. The
// output channel closes once the queue is closed and fully drained, which
// happens only after every producer goroutine has exited.
type msgQueue struct {
	mu     sync.Mutex
	buf    []OutputMessage
	closed bool

	wake chan struct{}
	out  chan OutputMessage
}

func newMsgQueue() *msgQueue {
	q := &msgQueue{
		wake: make(chan struct{}, 1),
		out:  make(chan OutputMessage),
	}
	go q.pump()
	return q
}

// push appends a message. Messages pushed after close are dropped; the
// supervisor closes the queue only once all producers are done, so this
// never loses live output.
func (q *msgQueue) push(m OutputMessage) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.buf = append(q.buf, m)
	q.mu.Unlock()
	q.nudge()
}

func (q *msgQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.nudge()
}

func (q *msgQueue) nudge() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// pump moves buffered messages onto the output channel, closing it once the
// queue is closed and drained. The closed flag and the buffer are
// snapshotted together, so a true closed flag means the buffer snapshot is
// final.
func (q *msgQueue) pump() {
	for {
		q.mu.Lock()
		batch := q.buf
		q.buf = nil
		closed := q.closed
		q.mu.Unlock()

		for _, m := range batch {
			q.out <- m
		}
		if closed {
			close(q.out)
			return
		}
		if len(batch) == 0 {
			<-q.wake
		}
	}
}
