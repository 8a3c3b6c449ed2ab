//go:build !linux && !darwin && !windows

package volume

import (
	"fmt"
	"runtime"
)

func listVolumes() ([]Info, error) {
	return nil, fmt.Errorf("volume enumeration is not supported on %s", runtime.GOOS)
}
