package secret

import "encoding/base64"

// decryptBase64 is the "base64" algorithm: the ciphertext is actually
// just base64-encoded plaintext, decoded verbatim. It ignores key and
// exists for tests and for non-secret-at-rest scenarios.
func decryptBase64(ciphertext, _ []byte) ([]byte, error) {
	return base64.StdEncoding.DecodeString(string(ciphertext))
}
