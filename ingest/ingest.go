package ingest

import (
	"github.com/normano/c5store/datastore"
	"github.com/normano/c5store/secret"
	"github.com/normano/c5store/value"
)

// Result is what a successful Run produces beyond the populated data
// store: the provider descriptors peeled off the configuration tree,
// keyed by provider name, ready to be handed to a provider manager.
type Result struct {
	Providers map[string][]Descriptor
}

// Run executes the full ingestion pipeline against opts and writes
// every resulting leaf into store through ks. IO and parse errors are
// fatal and returned with path context; per-write secret failures are
// not — they are absorbed by store.Set per its own documented
// contract.
func Run(opts Options, ks *secret.KeyStore, store *datastore.Store) (*Result, error) {
	if err := preloadEnv(opts.EnvPreloadPath); err != nil {
		return nil, err
	}

	files, err := expandPaths(opts.Paths)
	if err != nil {
		return nil, err
	}

	working := tree{}
	sources := map[string]value.Source{}
	for _, f := range files {
		doc, err := loadDocument(f)
		if err != nil {
			return nil, err
		}
		mergeInto(working, doc, "", sources, value.NewFileSource(f))
	}

	forceMap := map[string]bool{}
	if err := overlayEnviron(working, opts, sources, forceMap); err != nil {
		return nil, err
	}

	if err := normalizeArrays(working, "", forceMap, sources, opts.StrictMode); err != nil {
		return nil, err
	}

	providers := map[string][]Descriptor{}
	extractProviders(working, "", providers)

	if err := loadSecretKeys(opts, ks); err != nil {
		return nil, err
	}

	leaves := map[string]interface{}{}
	flatten(working, "", leaves)

	for path, raw := range leaves {
		v, err := rawToValue(path, raw)
		if err != nil {
			return nil, err
		}
		src, ok := sources[path]
		if !ok {
			src = value.UnknownSource
		}
		if err := store.Set(path, v, src); err != nil {
			return nil, err
		}
	}

	return &Result{Providers: providers}, nil
}
