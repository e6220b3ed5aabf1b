package datastore_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normano/c5store/datastore"
	"github.com/normano/c5store/notify"
	"github.com/normano/c5store/secret"
	"github.com/normano/c5store/value"
)

func newStore(t *testing.T) (*datastore.Store, *notify.Notifier) {
	t.Helper()
	ks := secret.New()
	var s *datastore.Store
	n := notify.New(10*time.Millisecond, func(key string) (value.Value, bool) { return s.Get(key) })
	s = datastore.New(ks, n, "")
	return s, n
}

func TestSetAndGet(t *testing.T) {
	s, n := newStore(t)
	defer n.Stop()

	require.NoError(t, s.Set("a.b.c", value.FromInt64(42), value.Programmatic))
	v, ok := s.Get("a.b.c")
	require.True(t, ok)
	got, err := v.AsInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestExistsAndPathExists(t *testing.T) {
	s, n := newStore(t)
	defer n.Stop()

	require.NoError(t, s.Set("a.b.c", value.FromInt64(1), value.Programmatic))
	assert.True(t, s.Exists("a.b.c"))
	assert.False(t, s.Exists("a.b"))
	assert.True(t, s.PathExists("a.b"))
	assert.True(t, s.PathExists("a"))
	assert.False(t, s.PathExists("x"))
}

func TestKeysWithPrefixNaturalOrder(t *testing.T) {
	s, n := newStore(t)
	defer n.Stop()

	for _, k := range []string{"a.item10", "a.item2", "a.item1", "b.other"} {
		require.NoError(t, s.Set(k, value.FromInt64(1), value.Programmatic))
	}

	keys := s.KeysWithPrefix("a")
	assert.Equal(t, []string{"a.item1", "a.item2", "a.item10"}, keys)
}

func TestKeysWithPrefixIncludesExactMatch(t *testing.T) {
	s, n := newStore(t)
	defer n.Stop()

	require.NoError(t, s.Set("a", value.FromInt64(1), value.Programmatic))
	require.NoError(t, s.Set("a.b", value.FromInt64(2), value.Programmatic))
	require.NoError(t, s.Set("a.c", value.FromInt64(3), value.Programmatic))
	require.NoError(t, s.Set("ab", value.FromInt64(4), value.Programmatic))

	assert.Equal(t, []string{"a", "a.b", "a.c"}, s.KeysWithPrefix("a"))
}

func TestKeysWithPrefixEmptyReturnsAll(t *testing.T) {
	s, n := newStore(t)
	defer n.Stop()

	require.NoError(t, s.Set("a", value.FromInt64(1), value.Programmatic))
	require.NoError(t, s.Set("b", value.FromInt64(2), value.Programmatic))
	assert.ElementsMatch(t, []string{"a", "b"}, s.KeysWithPrefix(""))
}

func TestSetBase64Secret(t *testing.T) {
	ks := secret.New()
	n := notify.New(10*time.Millisecond, nil)
	s := datastore.New(ks, n, "")
	defer n.Stop()

	plaintext := base64.StdEncoding.EncodeToString([]byte("sh"))
	wrapper := value.FromArray([]value.Value{
		value.FromText("base64"),
		value.FromText("unused"),
		value.FromText(plaintext),
	})
	require.NoError(t, s.Set("db.password.c5encval", wrapper, value.Programmatic))

	assert.False(t, s.Exists("db.password.c5encval"))
	v, ok := s.Get("db.password")
	require.True(t, ok)
	b, err := v.AsBytes()
	require.NoError(t, err)
	assert.Equal(t, "sh", string(b))
}

func TestSetSecretWithWrongShapeFails(t *testing.T) {
	ks := secret.New()
	n := notify.New(10*time.Millisecond, nil)
	s := datastore.New(ks, n, "")
	defer n.Stop()

	bad := value.FromArray([]value.Value{value.FromText("base64")})
	err := s.Set("x.c5encval", bad, value.Programmatic)
	assert.Error(t, err)
}

func TestSetSecretUnknownAlgorithmDoesNotStoreRawAndIsNotFatal(t *testing.T) {
	ks := secret.New()
	n := notify.New(10*time.Millisecond, nil)
	s := datastore.New(ks, n, "")
	defer n.Stop()

	wrapper := value.FromArray([]value.Value{
		value.FromText("no-such-algo"),
		value.FromText("k"),
		value.FromText("aGVsbG8="),
	})
	err := s.Set("x.c5encval", wrapper, value.Programmatic)
	require.NoError(t, err) // logged+counted, not propagated
	assert.False(t, s.Exists("x.c5encval"))
	assert.False(t, s.Exists("x"))
}

func TestSetSecretNoopOnIdenticalRewrite(t *testing.T) {
	ks := secret.New()
	n := notify.New(10*time.Millisecond, nil)
	s := datastore.New(ks, n, "")
	defer n.Stop()

	plaintext := base64.StdEncoding.EncodeToString([]byte("v1"))
	wrapper := value.FromArray([]value.Value{
		value.FromText("base64"), value.FromText("k"), value.FromText(plaintext),
	})
	require.NoError(t, s.Set("x.c5encval", wrapper, value.Programmatic))
	require.NoError(t, s.Set("x.c5encval", wrapper, value.Programmatic))

	v, _ := s.Get("x")
	b, _ := v.AsBytes()
	assert.Equal(t, "v1", string(b))
}

func TestSetSecretRetrySucceedsAfterKeyBecomesAvailable(t *testing.T) {
	ks := secret.New()
	n := notify.New(10*time.Millisecond, nil)
	s := datastore.New(ks, n, "")
	defer n.Stop()

	plaintext := base64.StdEncoding.EncodeToString([]byte("v1"))
	wrapper := value.FromArray([]value.Value{
		value.FromText("base64"), value.FromText("k"), value.FromText(plaintext),
	})

	// k is not registered yet: decrypt fails, write is dropped, and the
	// no-op cache must not be poisoned by the ciphertext's hash.
	require.NoError(t, s.Set("x.c5encval", wrapper, value.Programmatic))
	assert.False(t, s.Exists("x"))

	// The exact same wrapper, retried once the key is available, must
	// still reach decrypt instead of being misclassified as a no-op.
	ks.RegisterKey("k", []byte("irrelevant-to-base64"))
	require.NoError(t, s.Set("x.c5encval", wrapper, value.Programmatic))

	v, ok := s.Get("x")
	require.True(t, ok)
	b, err := v.AsBytes()
	require.NoError(t, err)
	assert.Equal(t, "v1", string(b))
}

func TestSetArrayWithEmbeddedSecretElement(t *testing.T) {
	ks := secret.New()
	n := notify.New(10*time.Millisecond, nil)
	s := datastore.New(ks, n, "")
	defer n.Stop()

	encoded := base64.StdEncoding.EncodeToString([]byte("tok"))
	secretElem := value.FromMap(map[string]value.Value{
		"c5encval": value.FromArray([]value.Value{
			value.FromText("base64"), value.FromText("k"), value.FromText(encoded),
		}),
	})
	arr := value.FromArray([]value.Value{value.FromText("plain"), secretElem})

	require.NoError(t, s.Set("tokens", arr, value.Programmatic))

	v, ok := s.Get("tokens")
	require.True(t, ok)
	elems, err := v.AsArray()
	require.NoError(t, err)
	require.Len(t, elems, 2)
	plainStr, _ := elems[0].AsString()
	assert.Equal(t, "plain", plainStr)
	b, err := elems[1].AsBytes()
	require.NoError(t, err)
	assert.Equal(t, "tok", string(b))
}

func TestWriteNotifiesOnlyOnChange(t *testing.T) {
	ks := secret.New()
	var s *datastore.Store
	n := notify.New(10*time.Millisecond, func(key string) (value.Value, bool) { return s.Get(key) })
	s = datastore.New(ks, n, "")
	defer n.Stop()

	var calls int
	n.Subscribe("k", func(notifyKey, changedKey string, newValue value.Value) {
		calls++
	})

	require.NoError(t, s.Set("k", value.FromInt64(1), value.Programmatic))
	require.NoError(t, s.Set("k", value.FromInt64(1), value.Programmatic)) // identical, no notify
	require.NoError(t, s.Set("k", value.FromInt64(2), value.Programmatic))

	require.Eventually(t, func() bool { return calls == 2 }, time.Second, 5*time.Millisecond)
}
