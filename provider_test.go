package c5store_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	c5store "github.com/normano/c5store"
	"github.com/normano/c5store/ingest"
	"github.com/normano/c5store/value"
)

type countingProvider struct {
	mu           sync.Mutex
	registered   []ingest.Descriptor
	hydrateCount int32
}

func (p *countingProvider) Register(desc ingest.Descriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, desc)
}

func (p *countingProvider) Hydrate(ctx *c5store.HydrateContext, force bool) error {
	atomic.AddInt32(&p.hydrateCount, 1)
	return ctx.PushValueToDataStore("db1.status", value.FromText("up"))
}

func TestProviderManagerReceivesDescriptorsFromIngestion(t *testing.T) {
	dir := t.TempDir()
	doc := "mysql:\n  db1:\n    .provider: mysql\n    host: localhost\n"
	a := writeFile(t, dir, "a.yaml", doc)

	store, manager, err := c5store.Open(ingest.Options{Paths: []string{a}})
	require.NoError(t, err)
	defer manager.Stop()

	p := &countingProvider{}
	manager.SetValueProvider("mysql", p, 0)

	require.Len(t, p.registered, 1)
	assert.Equal(t, "mysql.db1", p.registered[0].KeyPath)
	assert.Equal(t, "localhost", p.registered[0].Fields["host"])

	status, err := c5store.GetInto[string](store, "mysql.db1.status")
	require.NoError(t, err)
	assert.Equal(t, "up", status)
}

func TestProviderManagerRefreshesOnSchedule(t *testing.T) {
	_, manager, err := c5store.Open(ingest.Options{})
	require.NoError(t, err)
	defer manager.Stop()

	p := &countingProvider{}
	manager.SetValueProvider("refresh-me", p, 1)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&p.hydrateCount) >= 3
	}, 4*time.Second, 50*time.Millisecond)
}

func TestProviderManagerStopIsIdempotent(t *testing.T) {
	_, manager, err := c5store.Open(ingest.Options{})
	require.NoError(t, err)

	p := &countingProvider{}
	manager.SetValueProvider("stoppable", p, 1)

	manager.Stop()
	manager.Stop()
}
