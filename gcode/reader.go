package gcode

import (
	"bufio"
	"io"

	"github.com/john/gcodetime/estimator"
)

// Scan reads r line by line, tokenizing and dispatching each line to
// e, until EOF or a read error. Blank and comment-only lines tokenize
// to an empty Record and are dispatched like any other — the
// estimator core's dispatch table simply does nothing for them.
func Scan(r io.Reader, e *estimator.Estimator) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		e.AddLine(Tokenize(scanner.Text()))
	}
	return scanner.Err()
}

// ScanLines is like Scan but calls progress after every n dispatched
// lines with the running count, so a caller (CLI progress bar, the
// streaming HTTP endpoint) can report partial progress without
// waiting for the whole file — exercising the chunking-independence
// property spec.md §8 calls out: the total doesn't depend on how the
// input was chunked, only on the sequence of records.
func ScanLines(r io.Reader, e *estimator.Estimator, n int, progress func(lines int)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		e.AddLine(Tokenize(scanner.Text()))
		count++
		if progress != nil && n > 0 && count%n == 0 {
			progress(count)
		}
	}
	if progress != nil && (n <= 0 || count%n != 0) {
		progress(count)
	}
	return scanner.Err()
}
