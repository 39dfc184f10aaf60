package frame

import (
	"io"
	"os"
)

// Source is a byte stream that can report how many bytes are readable
// without blocking. Readers that do not implement it are checked for the
// usual standard library equivalents.
type Source interface {
	io.Reader
	Available() int
}

type lener interface{ Len() int }

// Remaining reports the bytes left on r. ok is false when r gives no way of
// knowing, in which case the size check is skipped and truncation surfaces
// while reading the body instead.
//
// Len is checked before Available: *bytes.Buffer has both, and its Available
// reports spare write capacity. A type with both methods is sized by Len.
// *bufio.Reader is unknown: Buffered counts only what it
// has already pulled from the stream behind it.
func Remaining(r io.Reader) (n int, ok bool) {
	switch s := r.(type) {
	case lener:
		return s.Len(), true
	case Source:
		return s.Available(), true
	case *os.File:
		return fileRemaining(s)
	}
	return 0, false
}

func fileRemaining(f *os.File) (int, bool) {
	fi, err := f.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		return 0, false
	}
	off, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, false
	}
	left := fi.Size() - off
	if left < 0 {
		left = 0
	}
	return int(left), true
}
