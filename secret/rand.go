package secret

import "crypto/rand"

// randReader is crypto/rand.Reader, indirected so tests can swap in a
// deterministic source.
var randReader = rand.Reader
