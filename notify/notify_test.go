package notify_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normano/c5store/notify"
	"github.com/normano/c5store/value"
)

type fakeStore struct {
	mu     sync.Mutex
	values map[string]value.Value
}

func newFakeStore() *fakeStore { return &fakeStore{values: map[string]value.Value{}} }

func (s *fakeStore) Get(key string) (value.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *fakeStore) Set(key string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = v
}

func TestAncestorPropagation(t *testing.T) {
	store := newFakeStore()
	n := notify.New(10*time.Millisecond, store.Get)
	defer n.Stop()

	var mu sync.Mutex
	var got []string
	for _, key := range []string{"a", "a.b", "a.b.c"} {
		key := key
		n.Subscribe(key, func(notifyKey, changedKey string, newValue value.Value) {
			mu.Lock()
			got = append(got, notifyKey)
			mu.Unlock()
		})
	}
	n.Subscribe("x", func(notifyKey, changedKey string, newValue value.Value) {
		t.Errorf("unrelated listener at %q should not fire", notifyKey)
	})

	store.Set("a.b.c", value.FromInt64(1))
	n.NotifyChanged("a.b.c", value.Null, false)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "a.b", "a.b.c"}, got)
}

func TestDetailedListenerCapturesOldAndNewAcrossWindow(t *testing.T) {
	store := newFakeStore()
	store.Set("k", value.FromText("first"))
	n := notify.New(30*time.Millisecond, store.Get)
	defer n.Stop()

	type call struct {
		old *value.Value
		new value.Value
	}
	var mu sync.Mutex
	var calls []call
	n.SubscribeDetailed("k", func(notifyKey, changedKey string, newValue value.Value, oldValue *value.Value) {
		mu.Lock()
		calls = append(calls, call{old: oldValue, new: newValue})
		mu.Unlock()
	})

	old := value.FromText("first")
	n.NotifyChanged("k", old, true)
	store.Set("k", value.FromText("second"))
	n.NotifyChanged("k", old, true) // second write in same window; old already recorded

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) > 0
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 1, "two writes in one window should coalesce into a single notification")
	require.NotNil(t, calls[0].old)
	assert.Equal(t, "first", mustString(t, *calls[0].old))
	assert.Equal(t, "second", mustString(t, calls[0].new))
}

func TestNewKeyHasNoOldValue(t *testing.T) {
	store := newFakeStore()
	store.Set("new.key", value.FromInt64(1))
	n := notify.New(10*time.Millisecond, store.Get)
	defer n.Stop()

	done := make(chan *value.Value, 1)
	n.SubscribeDetailed("new.key", func(notifyKey, changedKey string, newValue value.Value, oldValue *value.Value) {
		done <- oldValue
	})
	n.NotifyChanged("new.key", value.Null, false)

	select {
	case old := <-done:
		assert.Nil(t, old)
	case <-time.After(time.Second):
		t.Fatal("notification not received")
	}
}

func TestPanickingListenerDoesNotBlockPeers(t *testing.T) {
	store := newFakeStore()
	store.Set("k", value.FromInt64(1))
	n := notify.New(10*time.Millisecond, store.Get)
	defer n.Stop()

	done := make(chan struct{}, 1)
	n.Subscribe("k", func(notifyKey, changedKey string, newValue value.Value) {
		panic("boom")
	})
	n.Subscribe("k", func(notifyKey, changedKey string, newValue value.Value) {
		done <- struct{}{}
	})
	n.NotifyChanged("k", value.Null, false)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("peer listener was not invoked after a panicking listener")
	}
}

func mustString(t *testing.T, v value.Value) string {
	t.Helper()
	s, err := v.AsString()
	require.NoError(t, err)
	return s
}
