//go:build linux

package memstats

import "golang.org/x/sys/unix"

func pageSize() int {
	return unix.Getpagesize()
}

// peakRSS returns the maximum resident set size. Linux reports ru_maxrss in
// kilobytes.
func peakRSS() uint64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	return uint64(ru.Maxrss) * 1024
}
