// Package c5store is the root package: a typed façade over the
// concurrent data store (datastore.Store), the debounced notifier
// (notify.Notifier), and the ingestion pipeline (ingest.Run) that
// populates them, plus a provider manager for value providers that
// hydrate part of the tree on-demand and, optionally, on a refresh
// schedule.
package c5store

import (
	"strings"

	"github.com/normano/c5store/datastore"
	"github.com/normano/c5store/notify"
	"github.com/normano/c5store/value"
)

// Store is the public façade: a typed read API over a region of the
// configuration tree, plus change subscription. The root façade and
// every Branch derived from it implement Store.
type Store interface {
	// Get returns the raw value at keypath, relative to this façade's
	// current key path.
	Get(keypath string) (value.Value, bool)
	// GetRef is Get plus the value's source.
	GetRef(keypath string) (value.Value, value.Source, bool)
	// GetSource returns only the source of the value at keypath.
	GetSource(keypath string) (value.Source, bool)
	// Exists reports whether keypath has a value (exact match).
	Exists(keypath string) bool
	// PathExists reports whether keypath has a value, or is a strict
	// ancestor of one.
	PathExists(keypath string) bool
	// Branch returns a view rooted at prefix, relative to this
	// façade's current key path. The returned Store shares the
	// underlying data store and notifier; it owns nothing.
	Branch(prefix string) Store
	// CurrentKeyPath returns "" for the root façade, or the
	// accumulated prefix for a Branch.
	CurrentKeyPath() string
	// KeyPathsWithPrefix returns every stored key k with k == prefix or
	// k beginning with prefix+".", relative to this façade's current
	// key path, with the façade's own prefix stripped from each
	// result.
	KeyPathsWithPrefix(prefix string) []string
	// Subscribe registers fn for changes at keypath or any descendant,
	// relative to this façade's current key path. The returned
	// function unregisters fn.
	Subscribe(keypath string, fn notify.Listener) func()
	// SubscribeDetailed is Subscribe with the replaced value included.
	SubscribeDetailed(keypath string, fn notify.DetailedListener) func()
}

// facade is the concrete Store implementation for both the root and
// every Branch: a shared handle to the backing store and notifier,
// plus an accumulated key-path prefix.
type facade struct {
	ds     *datastore.Store
	nt     *notify.Notifier
	prefix string // "" at the root
}

func newFacade(ds *datastore.Store, nt *notify.Notifier) *facade {
	return &facade{ds: ds, nt: nt}
}

// qualify prepends the façade's prefix to a caller-supplied relative
// keypath, joining with "." only when both sides are non-empty.
func (f *facade) qualify(keypath string) string {
	switch {
	case f.prefix == "":
		return keypath
	case keypath == "":
		return f.prefix
	default:
		return f.prefix + "." + keypath
	}
}

func (f *facade) Get(keypath string) (value.Value, bool) {
	return f.ds.Get(f.qualify(keypath))
}

func (f *facade) GetRef(keypath string) (value.Value, value.Source, bool) {
	return f.ds.GetRef(f.qualify(keypath))
}

func (f *facade) GetSource(keypath string) (value.Source, bool) {
	_, src, ok := f.ds.GetRef(f.qualify(keypath))
	return src, ok
}

func (f *facade) Exists(keypath string) bool {
	return f.ds.Exists(f.qualify(keypath))
}

func (f *facade) PathExists(keypath string) bool {
	return f.ds.PathExists(f.qualify(keypath))
}

func (f *facade) Branch(prefix string) Store {
	return &facade{ds: f.ds, nt: f.nt, prefix: f.qualify(prefix)}
}

func (f *facade) CurrentKeyPath() string {
	return f.prefix
}

func (f *facade) KeyPathsWithPrefix(prefix string) []string {
	keys := f.ds.KeysWithPrefix(f.qualify(prefix))
	if f.prefix == "" {
		return keys
	}
	cut := f.prefix + "."
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = strings.TrimPrefix(k, cut)
	}
	return out
}

func (f *facade) Subscribe(keypath string, fn notify.Listener) func() {
	return f.nt.Subscribe(f.qualify(keypath), fn)
}

func (f *facade) SubscribeDetailed(keypath string, fn notify.DetailedListener) func() {
	return f.nt.SubscribeDetailed(f.qualify(keypath), fn)
}

var _ Store = (*facade)(nil)
