package ingest

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"github.com/normano/c5store/errors"
	"github.com/normano/c5store/secret"
	"github.com/normano/c5store/secret/credential"
)

// loadSecretKeys populates ks from the secret-keys directory, the
// process environment, and the host credential mechanism, per
// Options. It is a no-op if opts.SecretsEnabled is false.
func loadSecretKeys(opts Options, ks *secret.KeyStore) error {
	const op = "ingest.loadSecretKeys"
	if !opts.SecretsEnabled {
		return nil
	}

	if opts.SecretKeysDir != "" {
		entries, err := os.ReadDir(opts.SecretKeysDir)
		if err != nil {
			return errors.E(errors.Op(op), errors.Path(opts.SecretKeysDir), errors.IO, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			path := filepath.Join(opts.SecretKeysDir, e.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				return errors.E(errors.Op(op), errors.Path(path), errors.IO, err)
			}
			name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			if strings.ToLower(filepath.Ext(e.Name())) == ".pem" {
				scalar, err := secret.ScalarFromX25519PEM(data)
				if err != nil {
					return errors.E(errors.Op(op), errors.Path(path), err)
				}
				ks.RegisterKey(name, scalar)
				continue
			}
			ks.RegisterKey(name, data)
		}
	}

	if opts.SecretEnvEnabled {
		prefix := opts.secretEnvPrefix()
		for _, kv := range os.Environ() {
			name, raw, ok := strings.Cut(kv, "=")
			if !ok || !strings.HasPrefix(name, prefix) {
				continue
			}
			keyName := strings.TrimPrefix(name, prefix)
			if keyName == "" {
				continue
			}
			decoded, err := base64.StdEncoding.DecodeString(raw)
			if err != nil {
				return errors.E(errors.Op(op), errors.Path(name), errors.Invalid, err)
			}
			ks.RegisterKey(keyName, decoded)
		}
	}

	if len(opts.HostCredentials) > 0 {
		specs := make([]credential.Spec, len(opts.HostCredentials))
		for i, c := range opts.HostCredentials {
			format := credential.Raw
			if c.Format == CredentialPemX25519 {
				format = credential.PemX25519
			}
			specs[i] = credential.Spec{
				CredentialName: c.CredentialName,
				ReferenceName:  c.ReferenceName,
				Format:         format,
			}
		}
		if err := credential.Load(specs, ks); err != nil {
			return errors.E(errors.Op(op), err)
		}
	}

	return nil
}
