// Package credential reads key material from a host's per-service
// credential mechanism: a directory of one file per credential, named
// by the credential name, whose location is given by a well-known
// environment variable. This mirrors systemd's LoadCredential=
// facility ($CREDENTIALS_DIRECTORY), the common case on Linux hosts,
// while staying agnostic to any particular init system — callers may
// pass any directory.
package credential

import (
	"os"
	"path/filepath"

	"github.com/normano/c5store/errors"
	"github.com/normano/c5store/secret"
)

// DirectoryEnvVar is the well-known environment variable naming the
// host's credential directory, as set by systemd's LoadCredential=.
const DirectoryEnvVar = "CREDENTIALS_DIRECTORY"

// Format selects how a credential file's bytes are interpreted.
type Format int

// The supported credential formats.
const (
	Raw Format = iota
	PemX25519
)

// Spec declares one credential to load.
type Spec struct {
	// CredentialName is the file to read from the credential
	// directory.
	CredentialName string
	// ReferenceName is the key name the material is registered under
	// in the KeyStore.
	ReferenceName string
	Format        Format
}

// Load reads every credential named in specs from the directory named
// by DirectoryEnvVar and registers it in ks under its reference name.
// A missing credential directory is non-fatal: Load logs nothing
// itself and simply returns nil, leaving specs unregistered (callers
// typically treat an unregistered key name as "key not found" at
// decrypt time, which is already a documented, non-aborting failure).
func Load(specs []Spec, ks *secret.KeyStore) error {
	dir := os.Getenv(DirectoryEnvVar)
	if dir == "" {
		return nil
	}
	return LoadFromDir(dir, specs, ks)
}

// LoadFromDir is Load with an explicit directory, for tests and for
// hosts that locate the directory some other way.
func LoadFromDir(dir string, specs []Spec, ks *secret.KeyStore) error {
	const op = "credential.LoadFromDir"
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	for _, s := range specs {
		path := filepath.Join(dir, s.CredentialName)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return errors.E(errors.Op(op), errors.Path(path), errors.IO, err)
		}

		switch s.Format {
		case PemX25519:
			scalar, err := secret.ScalarFromX25519PEM(data)
			if err != nil {
				return errors.E(errors.Op(op), errors.Path(path), err)
			}
			ks.RegisterKey(s.ReferenceName, scalar)
		default:
			ks.RegisterKey(s.ReferenceName, data)
		}
	}
	return nil
}
