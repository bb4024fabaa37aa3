package core

import (
	"io"
)

// lineReader reads input one byte at a time so nothing past the current line
// is taken away from the commands it runs.
type lineReader struct {
	r io.Reader
}

// ReadLine returns the next line without its newline. An unterminated final
// line is returned on its own, io.EOF comes with the call after it.
func (l *lineReader) ReadLine() (string, error) {
	var line []byte
	var b [1]byte
	for {
		n, err := l.r.Read(b[:])
		if n == 1 {
			if b[0] == '\n' {
				return string(line), nil
			}
			line = append(line, b[0])
			continue
		}
		if err == nil {
			continue
		}
		if err == io.EOF && len(line) > 0 {
			return string(line), nil
		}
		return string(line), err
	}
}
