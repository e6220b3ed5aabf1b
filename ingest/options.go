// Package ingest builds a populated data store from a list of
// filesystem paths: it loads YAML/TOML documents, deep-merges them in
// order, overlays matching process environment variables, infers
// array-versus-map shape for overlay-derived subtrees, peels off
// provider descriptors, flattens the remainder to dot-paths, loads
// secret key material, and performs the initial writes.
package ingest

import "time"

// CaseConvention selects how an environment variable's dot-path
// segments are rewritten before being used as store keys.
type CaseConvention int

// The supported case conventions for environment overlay segments.
const (
	CaseCamel CaseConvention = iota
	CaseSnake
	CaseKebab
	CaseLower
)

// CredentialFormat selects how a host credential file's bytes are
// interpreted.
type CredentialFormat int

// The supported host credential formats.
const (
	CredentialRaw CredentialFormat = iota
	CredentialPemX25519
)

// CredentialSpec declares one host credential to load as a secret key.
type CredentialSpec struct {
	// CredentialName is the filename to read from the credential
	// directory.
	CredentialName string
	// ReferenceName is the key name the material is registered under
	// in the secret.KeyStore.
	ReferenceName string
	Format        CredentialFormat
}

// Options configures a single ingestion run.
type Options struct {
	// Paths is an ordered list of files and/or directories to load.
	// Directories are expanded to their immediate .yaml/.yml/.toml
	// entries, sorted lexicographically, in place.
	Paths []string

	// EnvPreloadPath, if non-empty, names a KEY=VALUE file loaded
	// before ingestion begins. A variable already present in the
	// process environment is never overwritten.
	EnvPreloadPath string

	// EnvPrefix is the process-environment prefix scanned for
	// overlay values. Defaults to "C5_".
	EnvPrefix string
	// EnvSeparator splits an overlay variable's remainder into path
	// segments. Defaults to "__".
	EnvSeparator string
	// CaseConvention rewrites each overlay segment before use.
	CaseConvention CaseConvention

	// SecretsEnabled turns on steps 9-10 of secret key loading; when
	// false, only the base64 and ecies_x25519 decryptors are
	// available with no key material sourced automatically.
	SecretsEnabled bool
	// SecretKeysDir, if non-empty, is scanned for key files; a file's
	// stem is the key name, and a ".pem" extension is parsed as an
	// X25519 PKCS#8 private key.
	SecretKeysDir string
	// SecretEnvEnabled scans the process environment for
	// SecretEnvPrefix-matching variables, each a base64-encoded key.
	SecretEnvEnabled bool
	// SecretEnvPrefix defaults to "C5_SECRETKEY_".
	SecretEnvPrefix string
	// HostCredentials declares additional key material to load from
	// the host credential mechanism (see secret/credential).
	HostCredentials []CredentialSpec

	// SecretSuffix is the terminal keypath segment, without its
	// leading dot, that marks a secret wrapper. Defaults to
	// "c5encval".
	SecretSuffix string

	// DebounceDuration is the notifier's debounce window.
	DebounceDuration time.Duration

	// StrictMode turns unrecognized environment-overlay value shapes
	// (a "#map" suffix applied to a key with no integer-like
	// siblings) into an ingestion error rather than silently
	// accepting the shape as an ordinary map.
	StrictMode bool
}

func (o Options) envPrefix() string {
	if o.EnvPrefix == "" {
		return "C5_"
	}
	return o.EnvPrefix
}

func (o Options) envSeparator() string {
	if o.EnvSeparator == "" {
		return "__"
	}
	return o.EnvSeparator
}

func (o Options) secretEnvPrefix() string {
	if o.SecretEnvPrefix == "" {
		return "C5_SECRETKEY_"
	}
	return o.SecretEnvPrefix
}

func (o Options) secretSuffix() string {
	if o.SecretSuffix == "" {
		return "c5encval"
	}
	return o.SecretSuffix
}
