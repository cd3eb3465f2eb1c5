//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// osMap maps f for random access. Record lookups jump to arbitrary offsets,
// so read-ahead is disabled.
func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	if err := unix.Madvise(data, unix.MADV_RANDOM); err != nil && !errors.Is(err, unix.EINVAL) {
		_ = unix.Munmap(data)
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}
