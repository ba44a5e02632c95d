//go:build !linux

package memstats

import "os"

func pageSize() int {
	return os.Getpagesize()
}

func peakRSS() uint64 {
	return 0
}
