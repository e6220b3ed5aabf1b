package c5store

import (
	"time"

	"github.com/normano/c5store/datastore"
	"github.com/normano/c5store/ingest"
	"github.com/normano/c5store/notify"
	"github.com/normano/c5store/secret"
	"github.com/normano/c5store/value"
)

// DefaultDebounceDuration is used when Options.DebounceDuration is
// zero.
const DefaultDebounceDuration = 50 * time.Millisecond

// Open runs the ingestion pipeline against opts and returns the root
// façade and a provider manager pre-populated with the provider
// descriptors ingestion peeled off the configuration tree. The
// returned ProviderManager owns no background work until a caller
// registers a ValueProvider with SetValueProvider.
func Open(opts ingest.Options) (Store, *ProviderManager, error) {
	debounce := opts.DebounceDuration
	if debounce <= 0 {
		debounce = DefaultDebounceDuration
	}

	ks := secret.New()

	var ds *datastore.Store
	nt := notify.New(debounce, func(keypath string) (value.Value, bool) {
		return ds.Get(keypath)
	})
	ds = datastore.New(ks, nt, opts.SecretSuffix)

	result, err := ingest.Run(opts, ks, ds)
	if err != nil {
		return nil, nil, err
	}

	root := newFacade(ds, nt)
	manager := newProviderManager(ds, result.Providers)
	return root, manager, nil
}
