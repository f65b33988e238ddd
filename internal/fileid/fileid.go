// Package fileid derives deterministic document ids for imported files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "file-"

// ForPath returns a stable document id for the file at absolutePath imported
// by owner. The same owner and path always yield the same id, so re-importing
// a changed file replaces its document.
func ForPath(owner, absolutePath string) string {
	h := sha256.New()
	h.Write([]byte(owner))
	h.Write([]byte{0})
	h.Write([]byte(filepath.Clean(absolutePath)))
	return prefix + hex.EncodeToString(h.Sum(nil))[:32]
}
