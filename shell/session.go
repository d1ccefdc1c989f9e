// Package shell resolves and runs committed command lines: builtin dispatch,
// external command spawning, redirections and pipelines. All state a command
// needs lives on an explicit Session value.
package shell

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/Paranoid-AF/ashell/complete"
	"github.com/Paranoid-AF/ashell/history"
	"github.com/Paranoid-AF/ashell/redirect"
)

// ErrExit is returned by Execute when the exit builtin ran.
var ErrExit = errors.New("exit")

// Options configure a Session.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// History receives every committed line. Nil creates an empty store.
	History *history.Store
	// Index resolves external commands. Nil indexes $PATH.
	Index *complete.PathIndex
	// Opener opens redirection targets. Nil uses the real filesystem.
	Opener redirect.Opener
	// HomeDir resolves "~" for cd. Nil uses os.UserHomeDir.
	HomeDir func() (string, error)
}

// Session is the state of one interactive shell: its stdio, history,
// search path index and builtin table.
type Session struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	History *history.Store
	Index   *complete.PathIndex

	opener   redirect.Opener
	homeDir  func() (string, error)
	builtins map[string]Builtin
	ownIndex bool
}

// New creates a Session from opts.
func New(opts Options) *Session {
	s := &Session{
		Stdin:   opts.Stdin,
		Stdout:  opts.Stdout,
		Stderr:  opts.Stderr,
		History: opts.History,
		Index:   opts.Index,
		opener:  opts.Opener,
		homeDir: opts.HomeDir,
	}
	if s.Stdin == nil {
		s.Stdin = os.Stdin
	}
	if s.Stdout == nil {
		s.Stdout = os.Stdout
	}
	if s.Stderr == nil {
		s.Stderr = os.Stderr
	}
	if s.History == nil {
		s.History = history.New()
	}
	if s.Index == nil {
		s.Index = complete.NewPathIndex(nil, 0)
		s.ownIndex = true
	}
	if s.opener == nil {
		s.opener = redirect.FileOpener{}
	}
	if s.homeDir == nil {
		s.homeDir = os.UserHomeDir
	}
	s.builtins = builtinTable()
	return s
}

// Close releases resources the Session created itself.
func (s *Session) Close() {
	if s.ownIndex {
		s.Index.Close()
	}
}

// BuiltinNames returns the sorted names of the builtin commands.
func (s *Session) BuiltinNames() []string {
	names := make([]string, 0, len(s.builtins))
	for name := range s.builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsBuiltin reports whether name is a builtin command.
func (s *Session) IsBuiltin(name string) bool {
	_, ok := s.builtins[name]
	return ok
}

// Completer returns a tab completer over this session's builtins and index.
func (s *Session) Completer() *complete.Completer {
	return complete.New(s.BuiltinNames(), s.Index)
}

// logStage records a finished or failed stage at debug level.
func logStage(name string, err error) {
	if err != nil {
		slog.Debug("stage finished", "name", name, "error", err)
		return
	}
	slog.Debug("stage finished", "name", name)
}
