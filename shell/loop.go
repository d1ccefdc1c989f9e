package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Paranoid-AF/ashell/editor"
)

// ErrInterrupt is returned by a LineReader when composition of the current
// line was aborted. The session discards the line and prompts again.
var ErrInterrupt = editor.ErrInterrupt

// LineReader supplies committed lines to a session.
type LineReader interface {
	// ReadLine shows prompt and returns the next committed line. It returns
	// io.EOF at end of input and ErrInterrupt (or an error wrapping it) when
	// the line was abandoned.
	ReadLine(prompt string) (string, error)
}

// Interact reads lines from r and executes them until the exit builtin runs
// or input ends. Both end the session normally and return nil.
func (s *Session) Interact(ctx context.Context, r LineReader, prompt string) error {
	for {
		line, err := r.ReadLine(prompt)
		switch {
		case errors.Is(err, ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("read line: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s.History.Record(line)
		if err := s.Execute(ctx, line); errors.Is(err, ErrExit) {
			return nil
		}
	}
}

// Scanner is a LineReader over non-terminal input. It prints no prompt.
type Scanner struct {
	sc *bufio.Scanner
}

// NewScanner returns a Scanner reading newline-terminated lines from r.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Scanner{sc: sc}
}

// ReadLine returns the next line of input.
func (s *Scanner) ReadLine(string) (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
