package redirect

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestExtractTruncate(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(out, []byte("old contents\n"), 0644); err != nil {
		t.Fatal(err)
	}

	argv, dest, err := Extract([]string{">", out}, nil)
	qt.Assert(t, err, qt.IsNil)
	defer dest.Close()

	qt.Assert(t, argv, qt.HasLen, 0)
	qt.Assert(t, dest.Stdout, qt.Not(qt.IsNil))
	qt.Assert(t, dest.Stderr, qt.IsNil)

	data, err := os.ReadFile(out)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(data), qt.Equals, "")
}

func TestExtractAppendKeepsSurroundingArgs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(out, []byte("first\n"), 0644); err != nil {
		t.Fatal(err)
	}

	argv, dest, err := Extract([]string{"a", ">>", out, "b"}, nil)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, argv, qt.DeepEquals, []string{"a", "b"})
	qt.Assert(t, dest.Specs, qt.DeepEquals, []Spec{{Stream: Stdout, Mode: Append, Target: out}})

	io.WriteString(dest.Stdout, "second\n")
	qt.Assert(t, dest.Close(), qt.IsNil)

	data, err := os.ReadFile(out)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(data), qt.Equals, "first\nsecond\n")
}

func TestExtractOperators(t *testing.T) {
	tests := []struct {
		op     string
		stream Stream
		mode   Mode
	}{
		{">", Stdout, Truncate},
		{"1>", Stdout, Truncate},
		{">>", Stdout, Append},
		{"1>>", Stdout, Append},
		{"2>", Stderr, Truncate},
		{"2>>", Stderr, Append},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			target := filepath.Join(t.TempDir(), "f")
			argv, dest, err := Extract([]string{"cmd", tt.op, target}, nil)
			qt.Assert(t, err, qt.IsNil)
			defer dest.Close()

			qt.Assert(t, argv, qt.DeepEquals, []string{"cmd"})
			qt.Assert(t, dest.Specs, qt.DeepEquals, []Spec{{Stream: tt.stream, Mode: tt.mode, Target: target}})
			if tt.stream == Stdout {
				qt.Assert(t, dest.Stdout, qt.Not(qt.IsNil))
			} else {
				qt.Assert(t, dest.Stderr, qt.Not(qt.IsNil))
			}
		})
	}
}

func TestExtractMultipleRedirections(t *testing.T) {
	dir := t.TempDir()
	x := filepath.Join(dir, "x")
	y := filepath.Join(dir, "y")

	argv, dest, err := Extract([]string{"a", "1>", x, "2>", y}, nil)
	qt.Assert(t, err, qt.IsNil)
	defer dest.Close()

	qt.Assert(t, argv, qt.DeepEquals, []string{"a"})
	qt.Assert(t, dest.Stdout, qt.Not(qt.IsNil))
	qt.Assert(t, dest.Stderr, qt.Not(qt.IsNil))
}

func TestExtractLastWriteWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first")
	second := filepath.Join(dir, "second")

	_, dest, err := Extract([]string{"echo", "hi", ">", first, ">", second}, nil)
	qt.Assert(t, err, qt.IsNil)
	io.WriteString(dest.Stdout, "hi\n")
	qt.Assert(t, dest.Close(), qt.IsNil)

	// Both targets are created, only the later one receives output.
	data, err := os.ReadFile(first)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(data), qt.Equals, "")

	data, err = os.ReadFile(second)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(data), qt.Equals, "hi\n")
}

func TestExtractTrailingOperatorUntouched(t *testing.T) {
	argv, dest, err := Extract([]string{"echo", "hi", ">"}, nil)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, argv, qt.DeepEquals, []string{"echo", "hi", ">"})
	qt.Assert(t, dest.Stdout, qt.IsNil)
	qt.Assert(t, dest.Specs, qt.HasLen, 0)
}

func TestExtractDoesNotMutateInput(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out")
	in := []string{"a", ">", target, "b"}
	_, dest, err := Extract(in, nil)
	qt.Assert(t, err, qt.IsNil)
	dest.Close()
	qt.Assert(t, in, qt.DeepEquals, []string{"a", ">", target, "b"})
}

type closeCounter struct {
	closed *int
}

func (c closeCounter) Write(p []byte) (int, error) { return len(p), nil }
func (c closeCounter) Close() error               { *c.closed++; return nil }

type failingOpener struct {
	failOn string
	closed int
}

func (o *failingOpener) OpenWrite(name string, flag int, perm os.FileMode) (io.WriteCloser, error) {
	if name == o.failOn {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return closeCounter{closed: &o.closed}, nil
}

func TestExtractOpenFailureClosesOpened(t *testing.T) {
	opener := &failingOpener{failOn: "locked"}
	_, dest, err := Extract([]string{"cmd", ">", "ok", "2>", "locked"}, opener)

	qt.Assert(t, dest, qt.IsNil)
	qt.Assert(t, errors.Is(err, os.ErrPermission), qt.IsTrue)
	qt.Assert(t, err, qt.ErrorMatches, "locked: .*")
	qt.Assert(t, opener.closed, qt.Equals, 1)
}

func TestIsOperator(t *testing.T) {
	for _, op := range []string{">", "1>", ">>", "1>>", "2>", "2>>"} {
		qt.Assert(t, IsOperator(op), qt.IsTrue)
	}
	for _, tok := range []string{"<", "&>", "3>", ">file"} {
		qt.Assert(t, IsOperator(tok), qt.IsFalse)
	}
}

func TestUnwrapPath(t *testing.T) {
	c := qt.New(t)
	_, err := os.Open(filepath.Join(t.TempDir(), "missing"))
	got := UnwrapPath(err)
	c.Assert(errors.Is(got, os.ErrNotExist), qt.IsTrue)
	var pe *os.PathError
	c.Assert(errors.As(got, &pe), qt.IsFalse)

	other := errors.New("plain")
	c.Assert(UnwrapPath(other), qt.Equals, other)
}
