// Package mediakey derives stable content keys from media identity strings.
//
// The key is the persistence index for playback positions: it must be
// deterministic across runs and independent of engine state. A 128-bit
// digest keeps the collision probability negligible for practical catalog
// sizes, and MD5 specifically matches the md5_hash column layout of the
// position store.
package mediakey

import (
	"crypto/md5" //nolint:gosec // not used for security, only as a stable content key
	"encoding/hex"
)

// Derive returns the content key for a media identity: the lowercase hex
// MD5 digest of the UTF-8 identity string. Pure and deterministic; two
// byte-identical identities always map to the same key.
func Derive(identity string) string {
	sum := md5.Sum([]byte(identity)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
