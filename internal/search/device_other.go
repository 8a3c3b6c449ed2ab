//go:build !unix

package search

import "io/fs"

func deviceID(fs.FileInfo) (uint64, bool) {
	return 0, false
}
