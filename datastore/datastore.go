// Package datastore implements the store's ordered, concurrent
// key-value backing structure, including the secret-unwrapping write
// protocol: any value written under a key ending in the configured
// secret suffix is treated as a wrapped ciphertext, decrypted through
// a secret.KeyStore, and the plaintext is written at the
// suffix-stripped path instead.
package datastore

import (
	"crypto/sha256"
	"sort"
	"sync"

	"github.com/normano/c5store/errors"
	"github.com/normano/c5store/internal/natural"
	"github.com/normano/c5store/log"
	"github.com/normano/c5store/metric"
	"github.com/normano/c5store/notify"
	"github.com/normano/c5store/secret"
	"github.com/normano/c5store/value"
)

// DefaultSecretSuffix is the key suffix (without its leading dot) that
// marks a value as a wrapped secret to be decrypted on write.
const DefaultSecretSuffix = "c5encval"

// defaultSecretHashCacheSize bounds the no-op detection cache (see
// isUnchangedSecret). A bounded, evicting cache is safe here because a
// miss only costs a redundant decrypt, never an incorrect result.
const defaultSecretHashCacheSize = 4096

type entry struct {
	value  value.Value
	source value.Source
}

// Store is the ordered, concurrent key-value backing structure for a
// single c5store instance. The zero value is not usable; construct
// with New.
type Store struct {
	secretSuffix string
	keyStore     *secret.KeyStore
	notifier     *notify.Notifier

	mu       sync.RWMutex
	entries  map[string]entry
	sorted   []string
	sortedOK bool

	secretHashes *secretHashCache
}

// New returns a Store that decrypts secret-suffixed writes through
// keyStore and publishes change notifications through notifier.
// secretSuffix, if empty, defaults to DefaultSecretSuffix.
func New(keyStore *secret.KeyStore, notifier *notify.Notifier, secretSuffix string) *Store {
	if secretSuffix == "" {
		secretSuffix = DefaultSecretSuffix
	}
	return &Store{
		secretSuffix: secretSuffix,
		keyStore:     keyStore,
		notifier:     notifier,
		entries:      make(map[string]entry),
		secretHashes: newSecretHashCache(defaultSecretHashCacheSize),
	}
}

// Get returns the value stored at keypath, if any.
func (s *Store) Get(keypath string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[keypath]
	if !ok {
		return value.Value{}, false
	}
	return e.value, true
}

// GetRef returns the value and its source at keypath, if any.
func (s *Store) GetRef(keypath string) (value.Value, value.Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[keypath]
	if !ok {
		return value.Value{}, value.Source{}, false
	}
	return e.value, e.source, true
}

// Exists reports whether keypath has a value (exact match).
func (s *Store) Exists(keypath string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[keypath]
	return ok
}

// PathExists reports whether keypath has a value itself, or is a
// strict ancestor of some stored key.
func (s *Store) PathExists(keypath string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.entries[keypath]; ok {
		return true
	}
	prefix := keypath + "."
	for k := range s.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// KeysWithPrefix returns every stored key k with k == prefix or k
// beginning with prefix+".", or every stored key if prefix is empty,
// in natural/lex order. A key may map to a scalar even while other
// keys share its dot-prefix, so the exact match is included alongside
// the prefix run.
func (s *Store) KeysWithPrefix(prefix string) []string {
	s.mu.Lock()
	s.ensureSortedLocked()
	sorted := s.sorted
	s.mu.Unlock()

	if prefix == "" {
		out := make([]string, len(sorted))
		copy(out, sorted)
		return out
	}

	needle := prefix + "."
	start := sort.Search(len(sorted), func(i int) bool {
		return !natural.Less(sorted[i], prefix)
	})
	var out []string
	for i := start; i < len(sorted); i++ {
		if sorted[i] == prefix {
			out = append(out, sorted[i])
			continue
		}
		if len(sorted[i]) <= len(needle) || sorted[i][:len(needle)] != needle {
			break
		}
		out = append(out, sorted[i])
	}
	return out
}

// ensureSortedLocked rebuilds s.sorted if invalidated by a prior
// write. Callers must hold s.mu (read or write lock is both fine
// since rebuild only happens under explicit promotion below).
func (s *Store) ensureSortedLocked() {
	if s.sortedOK {
		return
	}
	sorted := make([]string, 0, len(s.entries))
	for k := range s.entries {
		sorted = append(sorted, k)
	}
	sort.Slice(sorted, func(i, j int) bool { return natural.Less(sorted[i], sorted[j]) })
	s.sorted = sorted
	s.sortedOK = true
}

// Set writes value at keypath, following the secret-unwrapping write
// protocol described in the package doc. It returns an error only for
// a malformed secret wrapper or an unregistered algorithm/key; in all
// other decrypt failure cases the error is logged and counted, and Set
// itself returns nil leaving any previously stored value untouched.
func (s *Store) Set(keypath string, v value.Value, src value.Source) error {
	const op = "datastore.Store.Set"

	if stripped, ok := s.stripSecretSuffix(keypath); ok {
		return s.setSecret(op, keypath, stripped, v, src)
	}

	if arr, err := v.AsArray(); err == nil {
		resolved, changed, err := s.resolveSecretElements(op, arr)
		if err != nil {
			return err
		}
		if changed {
			v = value.FromArray(resolved)
		}
	}

	s.write(keypath, v, src)
	return nil
}

func (s *Store) stripSecretSuffix(keypath string) (string, bool) {
	suffix := "." + s.secretSuffix
	if len(keypath) <= len(suffix) || keypath[len(keypath)-len(suffix):] != suffix {
		return "", false
	}
	return keypath[:len(keypath)-len(suffix)], true
}

// setSecret implements write-protocol step 1: keypath itself carries
// the secret suffix.
func (s *Store) setSecret(op, rawKeypath, strippedKeypath string, v value.Value, src value.Source) error {
	algo, keyName, ciphertext, err := parseSecretWrapper(op, rawKeypath, v)
	if err != nil {
		return err
	}

	h := secretHash(algo, keyName, ciphertext)
	if s.isUnchangedSecret(rawKeypath, h) {
		metric.IncrCounter(metric.CounterSecretDecryptNoop, 1)
		return nil
	}

	plain, err := s.decrypt(op, rawKeypath, algo, keyName, ciphertext)
	if err != nil {
		metric.IncrCounter(metric.CounterSecretDecryptFailure, 1)
		log.Error.Printf("datastore: %s: secret decrypt failed for %q: %v", op, rawKeypath, err)
		return nil
	}

	// Only cache the hash once the write it guards has actually
	// succeeded, so a failed decrypt (e.g. an unregistered key) never
	// poisons the no-op cache: a later retry with the same ciphertext,
	// once the key is available, still reaches decrypt.
	s.cacheSecretHash(rawKeypath, h)
	s.write(strippedKeypath, value.FromBytes(plain), src)
	return nil
}

// resolveSecretElements implements write-protocol step 2: an array
// value whose elements may themselves be secret wrappers (a Map
// carrying the secret-suffix key). Each such element is decrypted in
// place and replaced by a Bytes element.
func (s *Store) resolveSecretElements(op string, arr []value.Value) ([]value.Value, bool, error) {
	changed := false
	out := make([]value.Value, len(arr))
	for i, elem := range arr {
		m, err := elem.AsMap()
		if err != nil {
			out[i] = elem
			continue
		}
		wrapped, ok := m[s.secretSuffix]
		if !ok {
			out[i] = elem
			continue
		}
		algo, keyName, ciphertext, err := parseSecretWrapper(op, "", wrapped)
		if err != nil {
			return nil, false, err
		}
		plain, err := s.decrypt(op, "", algo, keyName, ciphertext)
		if err != nil {
			metric.IncrCounter(metric.CounterSecretDecryptFailure, 1)
			log.Error.Printf("datastore: %s: secret decrypt failed for array element: %v", op, err)
			out[i] = elem
			continue
		}
		out[i] = value.FromBytes(plain)
		changed = true
	}
	return out, changed, nil
}

func parseSecretWrapper(op, keypath string, v value.Value) (algo, keyName, ciphertext string, err error) {
	arr, err := v.AsArray()
	if err != nil || len(arr) != 3 {
		return "", "", "", errors.E(errors.Op(op), errors.Path(keypath), errors.InvalidSecretFormat,
			errors.Str("secret wrapper must be a 3-element array [algorithm, key-name, base64-ciphertext]"))
	}
	algo, e1 := arr[0].AsString()
	keyName, e2 := arr[1].AsString()
	ciphertext, e3 := arr[2].AsString()
	if e1 != nil || e2 != nil || e3 != nil {
		return "", "", "", errors.E(errors.Op(op), errors.Path(keypath), errors.InvalidSecretFormat,
			errors.Str("secret wrapper elements must all be text"))
	}
	return algo, keyName, ciphertext, nil
}

func (s *Store) decrypt(op, keypath, algo, keyName, ciphertext string) ([]byte, error) {
	d, ok := s.keyStore.Decryptor(algo)
	if !ok {
		return nil, errors.E(errors.Op(op), errors.Path(keypath), errors.UnknownAlgorithm,
			errors.Errorf("no decryptor registered for algorithm %q", algo))
	}
	key, ok := s.keyStore.Key(keyName)
	if !ok {
		return nil, errors.E(errors.Op(op), errors.Path(keypath), errors.SecretKeyNotFound,
			errors.Errorf("no key registered under name %q", keyName))
	}
	return d.Decrypt([]byte(ciphertext), key)
}

// secretHash derives the no-op detection hash for a secret wrapper.
func secretHash(algo, keyName, ciphertext string) [32]byte {
	return sha256.Sum256([]byte(algo + "/" + keyName + "/" + ciphertext))
}

// isUnchangedSecret reports whether h matches the cached hash for
// rawKeypath. It never writes the cache itself: callers must only
// cache a hash once the write it guards has succeeded, or a failed
// decrypt would permanently misclassify a later, retriable write with
// the same ciphertext as a no-op.
func (s *Store) isUnchangedSecret(rawKeypath string, h [32]byte) bool {
	prev, ok := s.secretHashes.get(rawKeypath)
	return ok && prev == h
}

// cacheSecretHash records h as the last-written hash for rawKeypath.
// A cache eviction under memory pressure just means the next
// identical rewrite is redundantly decrypted, never that a real
// change is missed.
func (s *Store) cacheSecretHash(rawKeypath string, h [32]byte) {
	s.secretHashes.add(rawKeypath, h)
}

// write installs (value, source) at keypath, invalidates the sorted
// key cache, and notifies on a real change.
func (s *Store) write(keypath string, v value.Value, src value.Source) {
	s.mu.Lock()
	old, hadOld := s.entries[keypath]
	changed := !hadOld || !deepEqual(old.value, v)
	if !hadOld {
		s.sortedOK = false
	}
	s.entries[keypath] = entry{value: v, source: src}
	s.mu.Unlock()

	if s.notifier == nil || !changed {
		return
	}
	if hadOld {
		s.notifier.NotifyChanged(keypath, old.value, true)
	} else {
		s.notifier.NotifyChanged(keypath, value.Null, false)
	}
}

func deepEqual(a, b value.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	return a.String() == b.String() && sameStructure(a, b)
}

// sameStructure guards against two distinct Array/Map values that
// happen to stringify identically (e.g. truncation); it recurses for
// the composite kinds and falls back to true for scalars, which
// String() already compares exactly.
func sameStructure(a, b value.Value) bool {
	switch a.Kind() {
	case value.KindArray:
		aa, _ := a.AsArray()
		bb, _ := b.AsArray()
		if len(aa) != len(bb) {
			return false
		}
		for i := range aa {
			if !deepEqual(aa[i], bb[i]) {
				return false
			}
		}
		return true
	case value.KindMap:
		am, _ := a.AsMap()
		bm, _ := b.AsMap()
		if len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !deepEqual(av, bv) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
