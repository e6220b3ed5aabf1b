// Package secret implements the secret key store: a registry of named
// decryption algorithms and named key material, plus the two built-in
// algorithms (base64 and ecies_x25519).
package secret

import "sync"

// Decryptor is the capability a secret-unwrapping algorithm provides:
// given ciphertext and key material, produce plaintext or fail.
type Decryptor interface {
	Decrypt(ciphertext, key []byte) ([]byte, error)
}

// DecryptorFunc adapts a function to a Decryptor.
type DecryptorFunc func(ciphertext, key []byte) ([]byte, error)

func (f DecryptorFunc) Decrypt(ciphertext, key []byte) ([]byte, error) {
	return f(ciphertext, key)
}

// KeyStore holds two disjoint registries: algorithm name to
// Decryptor, and key name to raw key bytes. Both may be populated at
// any time prior to the write that needs them; a registry miss at
// decryption time fails only that write.
type KeyStore struct {
	mu         sync.RWMutex
	decryptors map[string]Decryptor
	keys       map[string][]byte
}

// New returns a KeyStore with the built-in base64 and ecies_x25519
// decryptors already registered.
func New() *KeyStore {
	ks := &KeyStore{
		decryptors: make(map[string]Decryptor),
		keys:       make(map[string][]byte),
	}
	ks.RegisterDecryptor("base64", DecryptorFunc(decryptBase64))
	ks.RegisterDecryptor("ecies_x25519", DecryptorFunc(decryptECIESX25519))
	return ks
}

// RegisterDecryptor adds or replaces the decryptor for algorithm name.
func (ks *KeyStore) RegisterDecryptor(name string, d Decryptor) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.decryptors[name] = d
}

// RegisterKey adds or replaces the raw key bytes under name.
func (ks *KeyStore) RegisterKey(name string, key []byte) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	cp := make([]byte, len(key))
	copy(cp, key)
	ks.keys[name] = cp
}

// Decryptor looks up the decryptor registered for name.
func (ks *KeyStore) Decryptor(name string) (Decryptor, bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	d, ok := ks.decryptors[name]
	return d, ok
}

// Key looks up the raw key bytes registered for name.
func (ks *KeyStore) Key(name string) ([]byte, bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	k, ok := ks.keys[name]
	return k, ok
}

// Algorithms returns the names of all registered decryptors, for
// diagnostics.
func (ks *KeyStore) Algorithms() []string {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	names := make([]string, 0, len(ks.decryptors))
	for n := range ks.decryptors {
		names = append(names, n)
	}
	return names
}

// KeyNames returns the names of all registered keys, for diagnostics.
func (ks *KeyStore) KeyNames() []string {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	names := make([]string, 0, len(ks.keys))
	for n := range ks.keys {
		names = append(names, n)
	}
	return names
}

// Clear removes every registered key, leaving registered decryptors
// untouched. Intended for tests and for a host application rotating
// out all key material at once rather than tracking names to remove.
func (ks *KeyStore) Clear() {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.keys = make(map[string][]byte)
}
