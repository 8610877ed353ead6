package protocol

// DefaultMaxLineLength caps a buffered command line.
const DefaultMaxLineLength = 200

// LineBuffer assembles command lines from a raw byte stream typed or sent
// by a terminal: carriage returns are dropped, backspace and delete erase
// the last character and only printable ASCII is kept.
type LineBuffer struct {
	buf    []byte
	maxLen int
}

// NewLineBuffer returns a buffer keeping at most maxLen bytes per line.
// A non-positive maxLen selects DefaultMaxLineLength.
func NewLineBuffer(maxLen int) *LineBuffer {
	if maxLen <= 0 {
		maxLen = DefaultMaxLineLength
	}
	return &LineBuffer{
		buf:    make([]byte, 0, maxLen+1),
		maxLen: maxLen,
	}
}

// Feed consumes one byte. It returns the accumulated line and true when c
// terminates it.
func (b *LineBuffer) Feed(c byte) (string, bool) {
	switch {
	case c == '\r':
	case c == '\n':
		line := string(b.buf)
		b.buf = b.buf[:0]
		return line, true
	case c == 0x08 || c == 0x7f:
		if len(b.buf) > 0 {
			b.buf = b.buf[:len(b.buf)-1]
		}
	case c >= 0x20 && c <= 0x7e:
		b.buf = append(b.buf, c)
		if len(b.buf) > b.maxLen {
			// keep the most recent bytes
			n := copy(b.buf, b.buf[len(b.buf)-b.maxLen:])
			b.buf = b.buf[:n]
		}
	}
	return "", false
}

// Write feeds p and calls fn for every completed line.
func (b *LineBuffer) Write(p []byte, fn func(line string)) {
	for _, c := range p {
		if line, ok := b.Feed(c); ok {
			fn(line)
		}
	}
}

// Len returns the number of buffered bytes.
func (b *LineBuffer) Len() int {
	return len(b.buf)
}

// Reset drops the partial line.
func (b *LineBuffer) Reset() {
	b.buf = b.buf[:0]
}
