// Package notify implements a debounced, ancestor-propagating
// subscription dispatcher. A write at keypath K enqueues K; a
// single-shot timer batches enqueues into a window; at the end of the
// window every ancestor of every dirty key is notified once per
// registered listener, in registration order, on a single dispatch
// goroutine per window.
package notify

import (
	"strings"
	"sync"
	"time"

	"github.com/normano/c5store/log"
	"github.com/normano/c5store/value"
)

// Listener receives a plain change notification.
type Listener func(notifyKey, changedKey string, newValue value.Value)

// DetailedListener additionally receives the value that was replaced,
// or nil if the key was newly inserted.
type DetailedListener func(notifyKey, changedKey string, newValue value.Value, oldValue *value.Value)

// Reader reads the current value at a key, used at debounce expiry to
// fetch the value as of dispatch time. A key written more than once
// inside a window is delivered with whatever value is current when
// the window closes, not necessarily the value from the triggering
// write.
type Reader func(key string) (value.Value, bool)

type registration struct {
	id       uint64
	listener Listener
	detailed DetailedListener
}

type pendingEntry struct {
	oldValue *value.Value // earliest old value observed this window
	hasOld   bool
}

// Notifier is a subscription registry and debounce dispatcher.
type Notifier struct {
	debounce time.Duration
	reader   Reader

	regMu sync.RWMutex
	subs  map[string][]registration
	nextID uint64

	pendMu  sync.Mutex
	pending map[string]*pendingEntry
	timer   *time.Timer
	stopped bool
}

// New returns a Notifier that reads current values via reader and
// batches notifications over debounce.
func New(debounce time.Duration, reader Reader) *Notifier {
	return &Notifier{
		debounce: debounce,
		reader:   reader,
		subs:     make(map[string][]registration),
		pending:  make(map[string]*pendingEntry),
	}
}

// Subscribe registers fn to be called whenever keypath or any of its
// descendants changes. The returned function unregisters fn.
func (n *Notifier) Subscribe(keypath string, fn Listener) func() {
	return n.add(keypath, registration{listener: fn})
}

// SubscribeDetailed is like Subscribe but also delivers the prior
// value.
func (n *Notifier) SubscribeDetailed(keypath string, fn DetailedListener) func() {
	return n.add(keypath, registration{detailed: fn})
}

func (n *Notifier) add(keypath string, reg registration) func() {
	n.regMu.Lock()
	n.nextID++
	reg.id = n.nextID
	n.subs[keypath] = append(n.subs[keypath], reg)
	n.regMu.Unlock()

	return func() {
		n.regMu.Lock()
		defer n.regMu.Unlock()
		list := n.subs[keypath]
		for i, r := range list {
			if r.id == reg.id {
				n.subs[keypath] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

// NotifyChanged enqueues keypath for notification at the end of the
// current (or a newly-armed) debounce window. oldValue/hasOld capture
// the value that was replaced, for detailed listeners; pass hasOld
// false for a newly-inserted key. Callers (the data store) must only
// call this when the new value actually differs from the old one —
// calling it unconditionally would notify on no-op writes and defeat
// debouncing entirely.
func (n *Notifier) NotifyChanged(keypath string, oldValue value.Value, hasOld bool) {
	n.pendMu.Lock()
	defer n.pendMu.Unlock()
	if n.stopped {
		return
	}
	if _, exists := n.pending[keypath]; !exists {
		entry := &pendingEntry{hasOld: hasOld}
		if hasOld {
			ov := oldValue
			entry.oldValue = &ov
		}
		n.pending[keypath] = entry
	}
	// Multiple writes within one window keep the earliest old value
	// (already in place above); the new value is read fresh at
	// dispatch time via n.reader.
	if n.timer == nil {
		n.timer = time.AfterFunc(n.debounce, n.fire)
	}
}

// fire drains the pending set and dispatches notifications. It runs
// on its own goroutine, spawned by time.AfterFunc, and processes the
// whole window serially on that single goroutine.
func (n *Notifier) fire() {
	n.pendMu.Lock()
	snapshot := n.pending
	n.pending = make(map[string]*pendingEntry)
	n.timer = nil
	n.pendMu.Unlock()

	for key, entry := range snapshot {
		newValue, ok := n.reader(key)
		if !ok {
			continue
		}
		for _, ancestor := range ancestorChain(key) {
			n.dispatch(ancestor, key, newValue, entry)
		}
	}
}

func (n *Notifier) dispatch(notifyKey, changedKey string, newValue value.Value, entry *pendingEntry) {
	n.regMu.RLock()
	regs := append([]registration(nil), n.subs[notifyKey]...)
	n.regMu.RUnlock()

	for _, r := range regs {
		n.invoke(r, notifyKey, changedKey, newValue, entry)
	}
}

// invoke calls a single listener, isolating panics so one bad listener
// cannot prevent delivery to its peers.
func (n *Notifier) invoke(r registration, notifyKey, changedKey string, newValue value.Value, entry *pendingEntry) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error.Printf("notify: listener for %q panicked: %v", notifyKey, rec)
		}
	}()
	switch {
	case r.listener != nil:
		r.listener(notifyKey, changedKey, newValue)
	case r.detailed != nil:
		var old *value.Value
		if entry.hasOld {
			old = entry.oldValue
		}
		r.detailed(notifyKey, changedKey, newValue, old)
	}
}

// Stop cancels any pending debounce timer and prevents further
// notifications from being scheduled. It is idempotent.
func (n *Notifier) Stop() {
	n.pendMu.Lock()
	defer n.pendMu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.stopped = true
	n.pending = make(map[string]*pendingEntry)
}

// ancestorChain returns K0, K0.K1, ..., K for a dot-separated key K,
// e.g. ancestorChain("a.b.c") = ["a", "a.b", "a.b.c"].
func ancestorChain(key string) []string {
	segs := strings.Split(key, ".")
	chain := make([]string, len(segs))
	for i := range segs {
		chain[i] = strings.Join(segs[:i+1], ".")
	}
	return chain
}
