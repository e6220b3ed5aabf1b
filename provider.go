package c5store

import (
	"sync"
	"time"

	"github.com/normano/c5store/datastore"
	"github.com/normano/c5store/ingest"
	"github.com/normano/c5store/log"
	"github.com/normano/c5store/metric"
	"github.com/normano/c5store/value"
)

// ValueProvider loads part of the configuration tree on demand, and
// optionally on a refresh schedule. A provider is registered with one
// or more descriptors (its configuration, peeled off the ingested
// documents by the literal ".provider" key) before its first Hydrate
// call.
type ValueProvider interface {
	// Register is called once per descriptor bound to this provider
	// name, before the first Hydrate call.
	Register(desc ingest.Descriptor)
	// Hydrate loads (or reloads) the provider's values and pushes them
	// into ctx. force is true for the initial, synchronous call made
	// from SetValueProvider, and false for scheduled refreshes.
	Hydrate(ctx *HydrateContext, force bool) error
}

// HydrateContext is the handle a ValueProvider uses to write values
// back into the data store during Hydrate.
type HydrateContext struct {
	providerName string
	write        func(keypath string, v value.Value) error
}

// PushValueToDataStore flattens v (recursively, if it is a Map) into
// dot-paths under rootKeypath and writes each leaf through the data
// store's full set protocol, so a provider can hand back a whole
// submap without flattening it itself.
func (h *HydrateContext) PushValueToDataStore(rootKeypath string, v value.Value) error {
	leaves := map[string]value.Value{}
	flattenValue(rootKeypath, v, leaves)
	for path, leaf := range leaves {
		if err := h.write(path, leaf); err != nil {
			return err
		}
	}
	return nil
}

func flattenValue(path string, v value.Value, out map[string]value.Value) {
	m, err := v.AsMap()
	if err != nil {
		out[path] = v
		return
	}
	for k, child := range m {
		childPath := k
		if path != "" {
			childPath = path + "." + k
		}
		flattenValue(childPath, child, out)
	}
}

// ProviderManager owns the configured ValueProvider implementations
// and their refresh schedules. It is constructed pre-populated with
// the provider-descriptor multimap accumulated by ingestion; Open
// returns one alongside the root Store.
type ProviderManager struct {
	ds          *datastore.Store
	descriptors map[string][]ingest.Descriptor

	mu      sync.Mutex
	stopped bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

func newProviderManager(ds *datastore.Store, descriptors map[string][]ingest.Descriptor) *ProviderManager {
	buffered := make(map[string][]ingest.Descriptor, len(descriptors))
	for name, descs := range descriptors {
		buffered[name] = append([]ingest.Descriptor(nil), descs...)
	}
	return &ProviderManager{ds: ds, descriptors: buffered, stop: make(chan struct{})}
}

// SetValueProvider registers impl under name: every descriptor
// buffered for name is handed to impl.Register, then impl.Hydrate is
// called once, synchronously, with force=true. If refreshSec > 0, a
// further Hydrate(force=false) is scheduled every refreshSec seconds
// on a dedicated goroutine until Stop. refreshSec of 0 means one-shot.
func (pm *ProviderManager) SetValueProvider(name string, impl ValueProvider, refreshSec int) {
	for _, d := range pm.descriptors[name] {
		impl.Register(d)
	}

	ctx := &HydrateContext{
		providerName: name,
		write: func(keypath string, v value.Value) error {
			return pm.ds.Set(keypath, v, value.NewProviderSource(name))
		},
	}

	span := metric.NewSpan(metric.DurationProviderHydrate)
	err := impl.Hydrate(ctx, true)
	span.End()
	if err != nil {
		log.Error.Printf("c5store: provider %q initial hydrate failed: %v", name, err)
	}

	if refreshSec <= 0 {
		return
	}

	pm.mu.Lock()
	stopped := pm.stopped
	pm.mu.Unlock()
	if stopped {
		return
	}

	pm.wg.Add(1)
	go pm.refreshLoop(name, impl, ctx, time.Duration(refreshSec)*time.Second)
}

func (pm *ProviderManager) refreshLoop(name string, impl ValueProvider, ctx *HydrateContext, interval time.Duration) {
	defer pm.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-pm.stop:
			return
		case <-ticker.C:
			span := metric.NewSpan(metric.DurationProviderHydrate)
			err := impl.Hydrate(ctx, false)
			span.End()
			if err != nil {
				log.Error.Printf("c5store: provider %q refresh failed: %v", name, err)
			}
		}
	}
}

// Stop cancels every provider's refresh schedule and blocks until
// their goroutines have exited. It is idempotent.
func (pm *ProviderManager) Stop() {
	pm.mu.Lock()
	if pm.stopped {
		pm.mu.Unlock()
		return
	}
	pm.stopped = true
	pm.mu.Unlock()

	close(pm.stop)
	pm.wg.Wait()
}
