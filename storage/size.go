package storage

import (
	"os"

	"github.com/karrick/godirwalk"

	"github.com/dghoshal-lbl/madats/cmn/nlog"
)

// StatSize returns a best-effort byte size for a VDO's backing path. A
// missing path is not an error - it just means the VDO is a workflow
// output that hasn't been produced yet, so size is 0 until staged.
func StatSize(absPath string) int64 {
	info, err := os.Stat(absPath)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return info.Size()
	}
	return dirSize(absPath)
}

// dirSize walks a directory tree with godirwalk and sums the sizes of the
// non-directory entries, each read with one Lstat - VDOs backed by
// "directory" datapaths are common (burst-buffer staging areas holding many
// small files).
func dirSize(root string) int64 {
	var total int64
	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if info, err := os.Lstat(path); err == nil {
				total += info.Size()
			}
			return nil
		},
	})
	if err != nil {
		nlog.Debugf("dirSize(%s): %v", root, err)
	}
	return total
}
