package secret

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"

	"github.com/normano/c5store/errors"
)

// ScalarFromX25519PEM parses a PKCS#8-encoded X25519 private key and
// returns its 32-byte scalar. Go's crypto/x509 has no dedicated X25519
// key type, so this walks the PKCS#8 OneAsymmetricKey structure
// directly via raw ASN.1 unwrapping rather than relying on a
// higher-level decoder, to pull out the raw 32-byte private key octet
// string.
func ScalarFromX25519PEM(data []byte) ([]byte, error) {
	const op = "secret.ScalarFromX25519PEM"
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.E(errors.Op(op), errors.Invalid, errors.Str("no PEM block found"))
	}

	var pk pkcs8Key
	if _, err := asn1.Unmarshal(block.Bytes, &pk); err != nil {
		return nil, errors.E(errors.Op(op), errors.Invalid, err)
	}

	// The PKCS#8 PrivateKey field is a DER OCTET STRING wrapping the
	// raw 32-byte scalar; unwrap it once more.
	var scalar []byte
	if _, err := asn1.Unmarshal(pk.PrivateKey, &scalar); err != nil {
		return nil, errors.E(errors.Op(op), errors.Invalid, err)
	}
	if len(scalar) != x25519ScalarLen {
		return nil, errors.E(errors.Op(op), errors.Invalid,
			errors.Errorf("expected a %d-byte X25519 scalar, got %d", x25519ScalarLen, len(scalar)))
	}
	return scalar, nil
}

// pkcs8Key mirrors the subset of RFC 5958's OneAsymmetricKey needed to
// pull out the private key octets; the algorithm identifier's OID is
// not checked here because key files in a secret-keys directory are
// already scoped to X25519 by the caller (only .pem files are parsed
// this way; see ingest's key-loading step).
type pkcs8Key struct {
	Version    int
	Algo       pkix.AlgorithmIdentifier
	PrivateKey []byte
}
