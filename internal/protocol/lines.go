package protocol

import "bytes"

// MaxLineLength caps the length of a single framed line. Longer lines
// are dropped rather than parsed.
const MaxLineLength = 10000

// LineBuffer frames a byte stream into newline-delimited lines.
// Incoming chunks are appended; complete lines are returned and any
// trailing partial line is retained for the next chunk.
type LineBuffer struct {
	buf []byte
}

// Append adds a chunk to the buffer and returns the complete lines it
// closed. Lines exceeding MaxLineLength are dropped. Carriage returns
// preceding the newline are trimmed.
func (b *LineBuffer) Append(chunk []byte) []string {
	b.buf = append(b.buf, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(b.buf, '\n')
		if i < 0 {
			break
		}
		line := b.buf[:i]
		b.buf = b.buf[i+1:]

		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(line) == 0 || len(line) > MaxLineLength {
			continue
		}
		lines = append(lines, string(line))
	}
	return lines
}

// Rest returns the retained partial line, if any.
func (b *LineBuffer) Rest() string {
	return string(b.buf)
}
