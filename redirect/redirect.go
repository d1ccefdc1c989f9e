// Package redirect extracts output redirections from a tokenized stage.
package redirect

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Stream identifies which output stream a redirection replaces.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// Mode selects how the redirection target is opened.
type Mode int

const (
	Truncate Mode = iota
	Append
)

// Spec is one parsed redirection.
type Spec struct {
	Stream Stream
	Mode   Mode
	Target string
}

// operators maps each recognized operator token to its stream and mode.
var operators = map[string]struct {
	stream Stream
	mode   Mode
}{
	">":   {Stdout, Truncate},
	"1>":  {Stdout, Truncate},
	">>":  {Stdout, Append},
	"1>>": {Stdout, Append},
	"2>":  {Stderr, Truncate},
	"2>>": {Stderr, Append},
}

// IsOperator reports whether tok is a redirection operator.
func IsOperator(tok string) bool {
	_, ok := operators[tok]
	return ok
}

// Opener opens redirection targets for writing.
type Opener interface {
	OpenWrite(name string, flag int, perm os.FileMode) (io.WriteCloser, error)
}

// FileOpener opens targets on the real filesystem.
type FileOpener struct{}

// OpenWrite implements Opener with os.OpenFile.
func (FileOpener) OpenWrite(name string, flag int, perm os.FileMode) (io.WriteCloser, error) {
	return os.OpenFile(name, flag, perm)
}

// Destinations holds the opened targets of one stage. A nil field means the
// stream is not redirected.
type Destinations struct {
	Stdout io.WriteCloser
	Stderr io.WriteCloser
	Specs  []Spec
}

// Close releases every opened target.
func (d *Destinations) Close() error {
	var errs []error
	if d.Stdout != nil {
		errs = append(errs, d.Stdout.Close())
		d.Stdout = nil
	}
	if d.Stderr != nil {
		errs = append(errs, d.Stderr.Close())
		d.Stderr = nil
	}
	return errors.Join(errs...)
}

// flags returns the os.OpenFile flags for m.
func (m Mode) flags() int {
	if m == Append {
		return os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	return os.O_CREATE | os.O_WRONLY | os.O_TRUNC
}

// Extract scans args left to right, opens every redirection target it finds
// and returns the residual argv together with the opened destinations.
//
// An operator followed by a filename is removed along with the filename and
// the scan resumes at the same index. An operator in last position is left in
// argv. When the same stream is redirected twice the later target wins and
// the earlier handle is closed. If a target cannot be opened, every handle
// opened so far is closed and the error is returned.
func Extract(args []string, opener Opener) ([]string, *Destinations, error) {
	if opener == nil {
		opener = FileOpener{}
	}
	argv := append([]string(nil), args...)
	dest := &Destinations{}

	i := 0
	for i < len(argv) {
		op, ok := operators[argv[i]]
		if !ok || i+1 >= len(argv) {
			i++
			continue
		}
		target := argv[i+1]

		f, err := opener.OpenWrite(target, op.mode.flags(), 0644)
		if err != nil {
			dest.Close()
			return nil, nil, fmt.Errorf("%s: %w", target, UnwrapPath(err))
		}

		slot := &dest.Stdout
		if op.stream == Stderr {
			slot = &dest.Stderr
		}
		if *slot != nil {
			(*slot).Close()
		}
		*slot = f
		dest.Specs = append(dest.Specs, Spec{Stream: op.stream, Mode: op.mode, Target: target})

		argv = append(argv[:i], argv[i+2:]...)
	}
	return argv, dest, nil
}

// UnwrapPath strips the *fs.PathError wrapper so diagnostics read
// "target: reason" instead of repeating the operation and path.
func UnwrapPath(err error) error {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
