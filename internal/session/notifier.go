package session

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalNotifier is an UnloadNotifier that fires when the process receives
// a termination signal. Callbacks run once, in registration order.
type SignalNotifier struct {
	signals []os.Signal

	mu        sync.Mutex
	started   bool
	fired     bool
	next      int
	order     []int
	callbacks map[int]func()
	ch        chan os.Signal
}

// NewSignalNotifier creates a notifier for the given signals.
// Without arguments it watches SIGINT and SIGTERM.
func NewSignalNotifier(signals ...os.Signal) *SignalNotifier {
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	return &SignalNotifier{
		signals:   signals,
		callbacks: make(map[int]func()),
	}
}

// Register implements UnloadNotifier.
func (n *SignalNotifier) Register(fn func()) (cancel func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.started {
		n.ch = make(chan os.Signal, 1)
		signal.Notify(n.ch, n.signals...)
		go n.wait()
		n.started = true
	}

	id := n.next
	n.next++
	n.callbacks[id] = fn
	n.order = append(n.order, id)

	return func() {
		n.mu.Lock()
		delete(n.callbacks, id)
		n.mu.Unlock()
	}
}

// Close stops watching for signals without firing the callbacks.
func (n *SignalNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.started {
		signal.Stop(n.ch)
		close(n.ch)
	}
}

func (n *SignalNotifier) wait() {
	if _, ok := <-n.ch; !ok {
		return
	}
	n.Fire()
}

// Fire runs all registered callbacks once. Later calls are no-ops.
func (n *SignalNotifier) Fire() {
	n.mu.Lock()
	if n.fired {
		n.mu.Unlock()
		return
	}
	n.fired = true

	fns := make([]func(), 0, len(n.order))
	for _, id := range n.order {
		if fn, ok := n.callbacks[id]; ok {
			fns = append(fns, fn)
		}
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
