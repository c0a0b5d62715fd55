package trackr

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/chromedp/cdproto/network"

	"springwatch/internal/domain"
	"springwatch/internal/scrape/extract"
)

// captureEvent is a finished JSON response waiting for its body to be read.
type captureEvent struct {
	RequestID network.RequestID
	URL       string
}

// queue hands capture events from the browser's event loop to the consumer.
// push never blocks, so the event loop is never stalled by body fetches.
type queue struct {
	mu     sync.Mutex
	items  []captureEvent
	closed bool
	ready  chan struct{}
}

func newQueue() *queue {
	return &queue{ready: make(chan struct{}, 1)}
}

func (q *queue) push(ev captureEvent) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()
	q.signal()
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// pop blocks until an event is available. It returns false once the queue
// is closed and drained, or when ctx is done.
func (q *queue) pop(ctx context.Context) (captureEvent, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return ev, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return captureEvent{}, false
		}

		select {
		case <-ctx.Done():
			return captureEvent{}, false
		case <-q.ready:
		}
	}
}

// accumulator is written only by the consumer goroutine (and by the fallback
// once the consumer has returned). Len may be read from anywhere.
type accumulator struct {
	recs []domain.RawRecord
	n    atomic.Int64
}

func (a *accumulator) add(recs []domain.RawRecord) {
	if len(recs) == 0 {
		return
	}
	a.recs = append(a.recs, recs...)
	a.n.Store(int64(len(a.recs)))
}

func (a *accumulator) Len() int { return int(a.n.Load()) }

func (a *accumulator) records() []domain.RawRecord { return a.recs }

// listener turns raw CDP events into capture events. chromedp calls it
// synchronously from the target's event loop, so pending needs no lock.
type listener struct {
	q       *queue
	pending map[network.RequestID]string
}

func newListener(q *queue) *listener {
	return &listener{q: q, pending: make(map[network.RequestID]string)}
}

func (l *listener) handle(ev any) {
	switch e := ev.(type) {
	case *network.EventResponseReceived:
		if e.Response == nil || !extract.IsJSONContentType(contentType(e.Response)) {
			return
		}
		l.pending[e.RequestID] = e.Response.URL
	case *network.EventLoadingFinished:
		u, ok := l.pending[e.RequestID]
		if !ok {
			return
		}
		delete(l.pending, e.RequestID)
		l.q.push(captureEvent{RequestID: e.RequestID, URL: u})
	case *network.EventLoadingFailed:
		delete(l.pending, e.RequestID)
	}
}

func contentType(r *network.Response) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, "content-type") {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return r.MimeType
}

type bodyFunc func(ctx context.Context, id network.RequestID) ([]byte, error)

// consume drains q until it is closed, extracting records from every body.
// Unreadable or unrecognised bodies are skipped.
func consume(ctx context.Context, q *queue, acc *accumulator, body bodyFunc) (seen, skipped int) {
	for {
		ev, ok := q.pop(ctx)
		if !ok {
			return seen, skipped
		}
		seen++
		b, err := body(ctx, ev.RequestID)
		if err != nil {
			skipped++
			continue
		}
		recs := extract.FromJSON(b)
		if len(recs) == 0 {
			skipped++
			continue
		}
		acc.add(recs)
	}
}
