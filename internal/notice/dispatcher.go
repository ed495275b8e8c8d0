package notice

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// drainTimeout bounds how long Close waits for the worker to flush buffered
// events into a sink whose consumer may already be gone.
const drainTimeout = 2 * time.Second

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher asynchronously forwards notice events to a sink. Sink emits run
// under a dispatcher-lifetime context that Close cancels after drainTimeout,
// so an abandoned sink cannot hang shutdown.
type Dispatcher struct {
	cfg        Config
	sink       Sink
	ch         chan Event
	done       chan struct{}
	stop       context.Context
	stopCancel context.CancelFunc
	wg         sync.WaitGroup
	dropped    atomic.Uint64
	closed     atomic.Bool
	closeOnce  sync.Once
}

func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	stop, stopCancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		cfg:        cfg,
		sink:       sink,
		ch:         make(chan Event, cfg.BufferSize),
		done:       make(chan struct{}),
		stop:       stop,
		stopCancel: stopCancel,
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(d.stop, event)
		case <-d.done:
			for {
				select {
				case event := <-d.ch:
					d.sink.Emit(d.stop, event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close stops intake, drains buffered events, and joins the worker. The
// drain is bounded: after drainTimeout the lifetime context is cancelled and
// a sink blocked in Emit returns instead of holding Close forever.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		timer := time.AfterFunc(drainTimeout, d.stopCancel)
		d.wg.Wait()
		timer.Stop()
		d.stopCancel()
	})
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
