package storage

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/OneOfOne/xxhash"
)

// FingerprintPath returns a deterministic hex digest of an absolute path,
// used as the VDO id so two VDOs for the same path always collapse to the
// same id. aistore leans on the same xxhash family for its object
// checksums (cos.ChecksumXXHash); we reuse it here rather than pulling in
// a second hash primitive for the same job.
func FingerprintPath(absPath string) string {
	h := xxhash.New64()
	_, _ = h.WriteString(absPath)
	return hex.EncodeToString(h.Sum(nil))
}

// FingerprintDataTask computes a deterministic DataTask id from
// (vdo_src.id, vdo_dest.id, kind), so re-running data-task insertion on the
// same (src, dest) pair always produces the same id.
func FingerprintDataTask(srcID, destID, kind string) string {
	h := xxhash.New64()
	_, _ = h.WriteString(srcID)
	_, _ = h.WriteString(destID)
	_, _ = h.WriteString(kind)
	return hex.EncodeToString(h.Sum(nil))
}

// fileDigest hashes file content for the same_content byte comparison - an
// actual content compare rather than a cheap stat-only one, done here via
// streaming hash rather than loading the whole file.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New64()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
