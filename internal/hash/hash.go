// Package hash provides content version tokens.
package hash

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// BlobSHA returns the git blob hash of the content, i.e. the SHA-1 of
// "blob <len>\x00<content>". The local filesystem store mints version
// tokens with this so they stay byte-compatible with the tokens the
// GitHub contents API reports for the same file.
func BlobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
