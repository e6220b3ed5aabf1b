// Package fileprovider implements the built-in file value provider: a
// c5store.ValueProvider that reads a file named by its descriptor's
// "path" field (resolved against a configured root unless absolute),
// decodes it according to its "format" field, and pushes the result
// under the descriptor's key path on every hydrate.
package fileprovider

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/normano/c5store"
	"github.com/normano/c5store/errors"
	"github.com/normano/c5store/ingest"
	"github.com/normano/c5store/value"
)

// Decoder turns a file's raw bytes into a Value. Registered decoders
// are looked up by the descriptor's "format" field; "raw" is handled
// directly by Hydrate (it alone honors the "encoding" field) and
// cannot be overridden.
type Decoder func(path string, data []byte) (value.Value, error)

type entry struct {
	keyPath  string
	path     string
	encoding string
	format   string
}

// Provider is a c5store.ValueProvider that hydrates one keypath per
// file on disk. The zero value is not usable; construct with New.
type Provider struct {
	root string

	mu       sync.Mutex
	decoders map[string]Decoder
	entries  []entry
}

// New returns a Provider that resolves relative descriptor paths
// against root. "json" and "yaml" formats are registered already;
// RegisterFormat adds or overrides any format other than "raw".
func New(root string) *Provider {
	p := &Provider{root: root, decoders: map[string]Decoder{}}
	p.RegisterFormat("json", ingest.ParseJSON)
	p.RegisterFormat("yaml", ingest.ParseYAML)
	return p
}

// RegisterFormat adds or replaces the decoder used for descriptors
// whose "format" field equals name. Registering "raw" has no effect;
// Hydrate always handles it itself.
func (p *Provider) RegisterFormat(name string, dec Decoder) {
	if name == "raw" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decoders[name] = dec
}

// Register records desc's path/encoding/format fields for the next
// Hydrate call. Descriptors missing "path" are ignored.
func (p *Provider) Register(desc ingest.Descriptor) {
	path, _ := desc.Fields["path"].(string)
	if path == "" {
		return
	}
	encoding, _ := desc.Fields["encoding"].(string)
	if encoding == "" {
		encoding = "utf8"
	}
	format, _ := desc.Fields["format"].(string)
	if format == "" {
		format = "raw"
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry{
		keyPath:  desc.KeyPath,
		path:     path,
		encoding: encoding,
		format:   format,
	})
}

// Hydrate reads and decodes every registered entry and pushes the
// result at its key path. One entry's read or decode failure is
// recorded but does not prevent the remaining entries from
// hydrating; the first such error is returned.
func (p *Provider) Hydrate(ctx *c5store.HydrateContext, force bool) error {
	const op = "fileprovider.Provider.Hydrate"

	p.mu.Lock()
	entries := append([]entry(nil), p.entries...)
	decoders := p.decoders
	p.mu.Unlock()

	var firstErr error
	record := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, e := range entries {
		full := e.path
		if !filepath.IsAbs(full) {
			full = filepath.Join(p.root, full)
		}

		data, err := os.ReadFile(full)
		if err != nil {
			record(errors.E(errors.Op(op), errors.Path(e.keyPath), errors.IO, err))
			continue
		}

		v, err := p.decode(full, e, data)
		if err != nil {
			record(errors.E(errors.Op(op), errors.Path(e.keyPath), err))
			continue
		}

		if err := ctx.PushValueToDataStore(e.keyPath, v); err != nil {
			record(errors.E(errors.Op(op), errors.Path(e.keyPath), err))
		}
	}

	return firstErr
}

func (p *Provider) decode(path string, e entry, data []byte) (value.Value, error) {
	if e.format == "raw" || e.format == "" {
		if e.encoding == "utf8" {
			return value.FromText(string(data)), nil
		}
		return value.FromBytes(data), nil
	}

	dec, ok := p.decoders[e.format]
	if !ok {
		return value.Value{}, errors.E(errors.Op("fileprovider.Provider.decode"), errors.Path(e.keyPath),
			errors.Invalid, errors.Errorf("no decoder registered for format %q", e.format))
	}
	return dec(path, data)
}
