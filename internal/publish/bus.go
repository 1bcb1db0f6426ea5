package publish

import (
	"fmt"
	"sync"
	"sync/atomic"

	"anti-instagram/internal/logger"

	"github.com/google/uuid"
)

const component = "Publisher"

// Sink receives publications of the kinds it subscribed to
type Sink interface {
	Handle(p Publication) error
	Name() string
}

// Bus hands publications to sinks on its own goroutine so the scheduler
// never blocks on a slow sink. When the queue is full the publication is
// dropped and counted.
type Bus struct {
	subscribers map[Kind][]Sink
	mu          sync.RWMutex
	buffer      chan Publication
	closed      bool
	wg          sync.WaitGroup
	session     string
	dropped     atomic.Uint64
	delivered   atomic.Uint64
	logger      logger.Logger
}

func NewBus(bufferSize int, log logger.Logger) *Bus {
	bus := &Bus{
		subscribers: make(map[Kind][]Sink),
		buffer:      make(chan Publication, bufferSize),
		session:     uuid.New().String(),
		logger:      log,
	}

	bus.startWorker()
	return bus
}

// Session identifies this process run on every publication
func (b *Bus) Session() string {
	return b.session
}

// Subscribe registers sink for the given kinds, or for every kind when none are given
func (b *Bus) Subscribe(sink Sink, kinds ...Kind) {
	if len(kinds) == 0 {
		kinds = AllKinds
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, k := range kinds {
		b.subscribers[k] = append(b.subscribers[k], sink)
	}
}

// Publish enqueues p without blocking
func (b *Bus) Publish(p Publication) {
	p.Session = b.session

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	select {
	case b.buffer <- p:
	default:
		b.dropped.Add(1)
		b.logger.Debug(component, "queue full, publication dropped", map[string]interface{}{
			"kind": p.Kind.String(),
			"seq":  p.Seq,
		})
	}
}

// Dropped counts publications lost to a full queue
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Delivered counts successful sink deliveries
func (b *Bus) Delivered() uint64 {
	return b.delivered.Load()
}

// Shutdown stops accepting publications and waits for queued ones to be delivered
func (b *Bus) Shutdown() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.buffer)
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Bus) startWorker() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for p := range b.buffer {
			b.dispatch(p)
		}
	}()
}

func (b *Bus) dispatch(p Publication) {
	b.mu.RLock()
	sinks := make([]Sink, len(b.subscribers[p.Kind]))
	copy(sinks, b.subscribers[p.Kind])
	b.mu.RUnlock()

	for _, sink := range sinks {
		b.deliver(sink, p)
	}
}

func (b *Bus) deliver(sink Sink, p Publication) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error(component, fmt.Errorf("sink %s panicked: %v", sink.Name(), r), map[string]interface{}{
				"kind": p.Kind.String(),
			})
		}
	}()

	if err := sink.Handle(p); err != nil {
		b.logger.Error(component, err, map[string]interface{}{
			"sink": sink.Name(),
			"kind": p.Kind.String(),
			"seq":  p.Seq,
		})
		return
	}
	b.delivered.Add(1)
}
