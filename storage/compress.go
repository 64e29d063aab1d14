package storage

import (
	"io"

	"github.com/pierrec/lz4/v3"
)

// CompressCopy streams src through lz4 into dst - the payload-compression
// half of ArchiveMover's transfer command for bandwidth-constrained
// archive tiers.
func CompressCopy(dst io.Writer, src io.Reader) (int64, error) {
	zw := lz4.NewWriter(dst)
	defer zw.Close()
	return io.Copy(zw, src)
}

// DecompressCopy is the receiving half: it un-lz4s src into dst.
func DecompressCopy(dst io.Writer, src io.Reader) (int64, error) {
	zr := lz4.NewReader(src)
	return io.Copy(dst, zr)
}
