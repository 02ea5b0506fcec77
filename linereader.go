package cmdmux

import (
	"bufio"
	"bytes"
	"io"
)

const (
	// Initial and maximum scanner buffer sizes. Child processes can emit
	// very long lines; a megabyte matches what real-world CLI tools
	// produce before something else is wrong.
	initialLineBuffer = 64 * 1024
	maxLineBuffer     = 1024 * 1024
)

// LineReader turns a raw byte stream into terminator-delimited lines,
// classifying the terminator style of each line. Usage follows the
// bufio.Scanner pattern:
//
//	lr := cmdmux.NewLineReader(r)
//	for {
//		ending, line, ok := lr.Next()
//		if !ok {
//			break
//		}
//		// ...
//	}
//	if err := lr.Err(); err != nil {
//		// ...
//	}
type LineReader struct {
	s *bufio.Scanner
}

// NewLineReader wraps r in a LineReader.
func NewLineReader(r io.Reader) *LineReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, initialLineBuffer), maxLineBuffer)
	s.Split(scanTerminatedLines)
	return &LineReader{s: s}
}

// Next returns the next logical line with its terminator stripped and
// classified. It reports false once the stream is exhausted or a read
// error occurred; check Err afterwards.
//
// The returned slice is only valid until the next call to Next.
func (lr *LineReader) Next() (LineEnding, []byte, bool) {
	if !lr.s.Scan() {
		return 0, nil, false
	}
	ending, line := classifyLine(lr.s.Bytes())
	return ending, line, true
}

// Err returns the first error encountered while reading, or nil if the
// stream simply ended.
func (lr *LineReader) Err() error { return lr.s.Err() }

// scanTerminatedLines is a bufio.SplitFunc that keeps the terminator bytes
// in the token so classifyLine can inspect them.
//
// A carriage return at the end of the data window needs one more byte to
// decide between CR and CRLF, so more data is requested unless the stream
// already hit EOF. A lone carriage return closes the line by itself and the
// byte after it is left unconsumed to start the next line; that is how
// progress output rewritten with \r stays line-per-update.
func scanTerminatedLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexAny(data, "\r\n")
	if i < 0 {
		if atEOF {
			// Unterminated tail: flush it as the final line.
			return len(data), data, nil
		}
		return 0, nil, nil
	}
	if data[i] == '\n' {
		return i + 1, data[: i+1 : i+1], nil
	}
	// data[i] == '\r'
	if i+1 < len(data) {
		if data[i+1] == '\n' {
			return i + 2, data[: i+2 : i+2], nil
		}
		return i + 1, data[: i+1 : i+1], nil
	}
	if !atEOF {
		// CR at the window edge: the next byte decides CR vs CRLF.
		return 0, nil, nil
	}
	// CR then EOF. The carriage return itself carries no line; any bytes
	// before it flush as an unterminated line.
	if i == 0 {
		return 1, nil, nil
	}
	return i + 1, data[:i:i], nil
}

// classifyLine splits a token produced by scanTerminatedLines into the
// terminator classification and the line body.
func classifyLine(tok []byte) (LineEnding, []byte) {
	switch {
	case bytes.HasSuffix(tok, []byte("\r\n")):
		return LineEndingCRLF, tok[:len(tok)-2]
	case bytes.HasSuffix(tok, []byte("\n")):
		return LineEndingLF, tok[:len(tok)-1]
	case bytes.HasSuffix(tok, []byte("\r")):
		return LineEndingCR, tok[:len(tok)-1]
	default:
		// End of stream without a terminator.
		return LineEndingLF, tok
	}
}
