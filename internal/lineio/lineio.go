// Package lineio reads newline-terminated lines from offset-addressed blobs.
package lineio

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
)

const chunkSize = 256

// ReaderAt is satisfied by blobstore.Blob.
type ReaderAt interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
}

// ReadLineAt returns the line starting at byte offset off, without its line
// terminator. It returns io.EOF if off is at or past the end of the blob.
func ReadLineAt(ctx context.Context, r ReaderAt, off int64) (string, error) {
	if off < 0 {
		return "", io.EOF
	}

	var line []byte
	buf := make([]byte, chunkSize)

	for {
		n, err := r.ReadAt(ctx, buf, off)
		if i := bytes.IndexByte(buf[:n], '\n'); i >= 0 {
			line = append(line, buf[:i]...)
			return trimCR(line), nil
		}
		line = append(line, buf[:n]...)
		off += int64(n)

		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return "", io.EOF
			}
			return trimCR(line), nil
		}
		if err != nil {
			return "", err
		}
		if n == 0 {
			return "", io.ErrNoProgress
		}
	}
}

func trimCR(b []byte) string {
	return string(bytes.TrimSuffix(b, []byte{'\r'}))
}

// Scanner yields lines from a stream together with the byte offset at which
// each one starts.
type Scanner struct {
	r    *bufio.Reader
	next int64
	off  int64
	line string
	err  error
}

// NewScanner reads lines from r. base is the offset of r's first byte.
func NewScanner(r io.Reader, base int64) *Scanner {
	return &Scanner{r: bufio.NewReader(r), next: base}
}

// Scan advances to the next line. The final line need not be terminated.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}

	raw, err := s.r.ReadString('\n')
	if len(raw) == 0 {
		if !errors.Is(err, io.EOF) {
			s.err = err
		} else {
			s.err = io.EOF
		}
		return false
	}
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
		return false
	}

	s.off = s.next
	s.next += int64(len(raw))
	s.line = strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")
	return true
}

// Line returns the current line without its terminator.
func (s *Scanner) Line() string { return s.line }

// Offset returns the byte offset of the current line.
func (s *Scanner) Offset() int64 { return s.off }

// End returns the offset just past the last consumed line.
func (s *Scanner) End() int64 { return s.next }

// Err returns the first non-EOF error encountered.
func (s *Scanner) Err() error {
	if errors.Is(s.err, io.EOF) {
		return nil
	}
	return s.err
}
