package shell

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Paranoid-AF/ashell/complete"
)

// syncBuffer is a bytes.Buffer safe for the concurrent writers a pipeline
// produces.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testSession struct {
	*Session
	out  *syncBuffer
	errs *syncBuffer
	home string
}

func newTestSession(t *testing.T, idx *complete.PathIndex) *testSession {
	t.Helper()
	if idx == nil {
		idx = complete.NewPathIndex(nil, 0)
		t.Cleanup(idx.Close)
	}
	ts := &testSession{out: &syncBuffer{}, errs: &syncBuffer{}, home: t.TempDir()}
	ts.Session = New(Options{
		Stdin:   strings.NewReader(""),
		Stdout:  ts.out,
		Stderr:  ts.errs,
		Index:   idx,
		HomeDir: func() (string, error) { return ts.home, nil },
	})
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testSession) run(t *testing.T, line string) {
	t.Helper()
	if err := ts.Execute(context.Background(), line); err != nil {
		t.Fatalf("Execute(%q) = %v", line, err)
	}
}

// requireCommands skips the test unless every name resolves on $PATH.
func requireCommands(t *testing.T, s *Session, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, ok := s.Index.Lookup(name); !ok {
			t.Skipf("%s not found on PATH", name)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// cwd returns the working directory with symlinks resolved.
func cwd(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	return resolved(t, dir)
}

func resolved(t *testing.T, path string) string {
	t.Helper()
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatal(err)
	}
	return real
}
