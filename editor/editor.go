// Package editor is a raw-mode line editor with cursor movement, tab
// completion and history recall.
package editor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrInterrupt is returned by ReadLine when the user presses Ctrl-C.
var ErrInterrupt = errors.New("interrupted")

// Editor reads lines from a key source and echoes them to a writer. When the
// source is a terminal it is switched to raw mode for the duration of each
// ReadLine, so commands run between calls see a cooked terminal.
type Editor struct {
	fd     int // terminal descriptor, or -1
	keys   *KeyReader
	screen *screen
	m      *Machine
}

// New creates an Editor reading keys from in and drawing on out. Either c or
// r may be nil.
func New(in io.Reader, out io.Writer, c Completer, r Recaller) *Editor {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &Editor{
		fd:     fd,
		keys:   NewKeyReader(in),
		screen: &screen{w: out},
		m:      NewMachine(c, r),
	}
}

// ReadLine displays prompt and edits a line until it is committed.
// It returns the trimmed line on Enter, ErrInterrupt on Ctrl-C and io.EOF on
// Ctrl-D or end of input.
func (e *Editor) ReadLine(prompt string) (string, error) {
	if e.fd >= 0 {
		old, err := term.MakeRaw(e.fd)
		if err != nil {
			return "", fmt.Errorf("raw mode: %w", err)
		}
		defer term.Restore(e.fd, old)
	}

	e.m.Start()
	e.screen.redraw(prompt, "", 0)
	if err := e.screen.flush(); err != nil {
		return "", err
	}

	for {
		key, err := e.keys.ReadKey()
		if errors.Is(err, io.EOF) {
			key = Key{Kind: KeyEOF}
		} else if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}

		eff := e.m.Handle(key)
		switch e.m.State() {
		case Committed:
			e.screen.newline()
			return strings.TrimSpace(e.m.Line()), e.screen.flush()
		case Interrupted:
			e.screen.newline()
			e.screen.flush()
			return "", ErrInterrupt
		case Ended:
			e.screen.newline()
			e.screen.flush()
			return "", io.EOF
		}

		if err := e.render(prompt, eff); err != nil {
			return "", err
		}
	}
}

// render emits the effect of one key as a single write.
func (e *Editor) render(prompt string, eff Effect) error {
	if eff.List != nil {
		slog.Debug("listing completion candidates", "count", len(eff.List))
		e.screen.list(eff.List, prompt, e.m.Line(), e.m.Tail())
	} else if eff.Redraw {
		e.screen.redraw(prompt, e.m.Line(), e.m.Tail())
	}
	if eff.Bell {
		e.screen.bell()
	}
	return e.screen.flush()
}
