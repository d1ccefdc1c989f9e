package editor

import (
	"bytes"
	"io"
	"strconv"
	"strings"
)

// screen renders the edited line. Output is queued by the drawing methods
// and sent with a single Write by flush.
type screen struct {
	w   io.Writer
	buf bytes.Buffer
}

// redraw clears the current line and redraws prompt and buffer, leaving the
// cursor tail runes from the end.
func (s *screen) redraw(prompt, line string, tail int) {
	b := &s.buf
	b.WriteString("\r\x1b[K")
	b.WriteString(prompt)
	b.WriteString(line)
	if tail > 0 {
		b.WriteString("\x1b[")
		b.WriteString(strconv.Itoa(tail))
		b.WriteByte('D')
	}
}

// list prints candidates below the current line, two-space separated, then
// redraws the prompt underneath.
func (s *screen) list(candidates []string, prompt, line string, tail int) {
	s.buf.WriteString("\r\n")
	s.buf.WriteString(strings.Join(candidates, "  "))
	s.buf.WriteString("\r\n")
	s.redraw(prompt, line, tail)
}

func (s *screen) bell() {
	s.buf.WriteByte('\a')
}

// newline ends the line; raw mode needs the explicit carriage return.
func (s *screen) newline() {
	s.buf.WriteString("\r\n")
}

// flush writes the queued output, if any.
func (s *screen) flush() error {
	if s.buf.Len() == 0 {
		return nil
	}
	_, err := s.w.Write(s.buf.Bytes())
	s.buf.Reset()
	return err
}
