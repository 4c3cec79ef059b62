// Package capture delivers decoded barcodes from a line-oriented stream,
// standing in for the camera: one barcode per non-blank line. The shell
// reads its commands through the same source.
package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// maxLine bounds a single line.
const maxLine = 4096

type readResult struct {
	text string
	err  error
}

// LineSource reads barcodes from r. Blank lines and lines starting with
// '#' are skipped. It is not safe for concurrent use.
//
// Reading happens on a background goroutine so that Next can return as
// soon as ctx is done even while r is blocked. A line read before
// cancellation is kept for the next call.
type LineSource struct {
	sc    *bufio.Scanner
	once  sync.Once
	lines chan readResult
	line  int
}

// NewLineSource returns a LineSource over r.
func NewLineSource(r io.Reader) *LineSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 256), maxLine)
	return &LineSource{sc: sc, lines: make(chan readResult)}
}

func (s *LineSource) read() {
	defer close(s.lines)
	for s.sc.Scan() {
		s.lines <- readResult{text: s.sc.Text()}
	}
	if err := s.sc.Err(); err != nil {
		s.lines <- readResult{err: err}
	}
}

// Next blocks until the next barcode is read. It returns io.EOF when the
// stream ends and ctx.Err() once ctx is done.
func (s *LineSource) Next(ctx context.Context) (string, error) {
	s.once.Do(func() { go s.read() })
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		var (
			r  readResult
			ok bool
		)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case r, ok = <-s.lines:
		}
		if !ok {
			return "", io.EOF
		}
		if r.err != nil {
			return "", fmt.Errorf("reading line %d: %w", s.line+1, r.err)
		}
		s.line++
		code := strings.TrimSpace(r.text)
		if code == "" || strings.HasPrefix(code, "#") {
			continue
		}
		return code, nil
	}
}

// Line returns the number of lines consumed so far.
func (s *LineSource) Line() int { return s.line }
