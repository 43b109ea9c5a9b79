package util

import (
	"io"
	"sync"
)

const queueWriterBuffer = 1024

// QueueWriter is an io.Writer that hands records to a background goroutine
// over a buffered channel, decoupling log production from output flushing.
// When the channel is full the record is dropped rather than blocking the
// caller.
type QueueWriter struct {
	out     io.Writer
	records chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

// NewQueueWriter creates a QueueWriter flushing to out and starts its
// delivery goroutine. The writer lives for the rest of the process, matching
// the lifetime of the process-wide logger it backs.
func NewQueueWriter(out io.Writer) *QueueWriter {
	q := &QueueWriter{
		out:     out,
		records: make(chan []byte, queueWriterBuffer),
		done:    make(chan struct{}),
	}

	go q.deliver()
	return q
}

// Write implements io.Writer. It never blocks and always reports success to
// the producer; delivery failures are invisible to the logging call site.
func (q *QueueWriter) Write(p []byte) (int, error) {
	record := make([]byte, len(p))
	copy(record, p)

	select {
	case q.records <- record:
	case <-q.done:
	default:
		// queue full, drop the record
	}

	return len(p), nil
}

// Close stops the delivery goroutine after draining buffered records
func (q *QueueWriter) Close() error {
	q.closeOnce.Do(func() {
		close(q.done)
	})
	return nil
}

func (q *QueueWriter) deliver() {
	for {
		select {
		case record := <-q.records:
			_, _ = q.out.Write(record)
		case <-q.done:
			for {
				select {
				case record := <-q.records:
					_, _ = q.out.Write(record)
				default:
					return
				}
			}
		}
	}
}
