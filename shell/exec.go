package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Paranoid-AF/ashell/lex"
	"github.com/Paranoid-AF/ashell/redirect"
)

// errNotFound marks a stage whose command could not be resolved or started.
var errNotFound = errors.New("command not found")

// stage is one parsed command of a line.
type stage struct {
	argv []string
	dest *redirect.Destinations
}

// stdout returns the stage's redirected stdout, or def.
func (st *stage) stdout(def io.Writer) io.Writer {
	if st.dest != nil && st.dest.Stdout != nil {
		return st.dest.Stdout
	}
	return def
}

// stderr returns the stage's redirected stderr, or def.
func (st *stage) stderr(def io.Writer) io.Writer {
	if st.dest != nil && st.dest.Stderr != nil {
		return st.dest.Stderr
	}
	return def
}

// close releases the stage's redirection targets.
func (st *stage) close() {
	if st.dest != nil {
		if err := st.dest.Close(); err != nil {
			slog.Debug("closing redirection target", "name", st.argv[0], "error", err)
		}
	}
}

// Execute runs one committed line. It returns ErrExit when the exit builtin
// ran; every other failure is reported on the session's stderr and Execute
// returns nil.
func (s *Session) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if lex.HasPipe(line) {
		return s.runPipeline(ctx, line)
	}

	st, ok := s.parseStage(line, s.Stderr)
	if !ok {
		return nil
	}
	defer st.close()
	return s.runStage(ctx, st, s.Stdin)
}

// parseStage tokenizes text and extracts its redirections. Problems are
// reported on errw and yield ok == false.
func (s *Session) parseStage(text string, errw io.Writer) (*stage, bool) {
	argv, dest, err := redirect.Extract(lex.Tokenize(text), s.opener)
	if err != nil {
		fmt.Fprintf(errw, "%v\n", err)
		return nil, false
	}
	if len(argv) == 0 {
		// A line made only of redirections still creates its targets.
		dest.Close()
		return nil, false
	}
	return &stage{argv: argv, dest: dest}, true
}

// runStage runs a single, non-pipelined stage to completion.
func (s *Session) runStage(ctx context.Context, st *stage, stdin io.Reader) error {
	name, args := st.argv[0], st.argv[1:]
	stdout, stderr := st.stdout(s.Stdout), st.stderr(s.Stderr)

	if fn, ok := s.builtins[name]; ok {
		err := fn(s, args, Stdio{Stdin: stdin, Stdout: stdout, Stderr: stderr})
		if errors.Is(err, ErrExit) {
			return ErrExit
		}
		if err != nil {
			fmt.Fprintf(s.Stderr, "%s: %v\n", name, err)
		}
		return nil
	}

	cmd, err := s.command(ctx, st.argv, stdin, stdout, stderr)
	if err == nil {
		err = cmd.Start()
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: command not found\n", name)
		logStage(name, err)
		return nil
	}
	slog.Debug("spawned stage", "name", name, "pid", cmd.Process.Pid)
	logStage(name, cmd.Wait())
	return nil
}

// command resolves argv[0] on the search path and prepares the process.
func (s *Session) command(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) (*exec.Cmd, error) {
	path, ok := s.Index.Lookup(argv[0])
	if !ok {
		return nil, errNotFound
	}
	cmd := exec.CommandContext(ctx, path)
	cmd.Args = argv
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd, nil
}

// runPipeline runs every stage of line concurrently, connecting each stage's
// stdout to the next stage's stdin, and waits for all of them.
func (s *Session) runPipeline(ctx context.Context, line string) error {
	texts, err := lex.SplitPipeline(line)
	if err != nil {
		fmt.Fprintf(s.Stderr, "%v\n", err)
		return nil
	}
	n := len(texts)

	// reads[i] feeds stage i+1; writes[i] is stage i's end of the same pipe.
	reads := make([]*os.File, n-1)
	writes := make([]*os.File, n-1)
	for i := range reads {
		r, w, err := os.Pipe()
		if err != nil {
			for j := 0; j < i; j++ {
				reads[j].Close()
				writes[j].Close()
			}
			fmt.Fprintf(s.Stderr, "pipe: %v\n", err)
			return nil
		}
		reads[i], writes[i] = r, w
	}

	var (
		builtins errgroup.Group
		started  []*exec.Cmd
		stages   []*stage
	)

	for i, text := range texts {
		var stdin io.Reader = s.Stdin
		var stdout io.Writer = s.Stdout
		// owned are the pipe ends this stage must release once it is done.
		var owned []*os.File
		if i > 0 {
			stdin = reads[i-1]
			owned = append(owned, reads[i-1])
		}
		if i < n-1 {
			stdout = writes[i]
			owned = append(owned, writes[i])
		}
		release := func() {
			for _, f := range owned {
				f.Close()
			}
		}

		st, ok := s.parseStage(text, s.Stderr)
		if !ok {
			release()
			continue
		}
		stdout = st.stdout(stdout)
		stderr := st.stderr(s.Stderr)
		name, args := st.argv[0], st.argv[1:]

		if fn, ok := s.builtins[name]; ok {
			// Each builtin stage works on its own copy of the history.
			view := *s
			view.History = s.History.Clone()
			builtins.Go(func() error {
				defer release()
				defer st.close()
				err := fn(&view, args, Stdio{Stdin: stdin, Stdout: stdout, Stderr: stderr, InPipeline: true})
				logStage(name, err)
				return nil
			})
			continue
		}

		cmd, err := s.command(ctx, st.argv, stdin, stdout, stderr)
		if err == nil {
			err = cmd.Start()
		}
		// The child holds its own copies of the pipe descriptors.
		release()
		if err != nil {
			fmt.Fprintf(stderr, "%s: command not found\n", name)
			logStage(name, err)
			st.close()
			continue
		}
		slog.Debug("spawned stage", "name", name, "pid", cmd.Process.Pid, "index", i)
		started = append(started, cmd)
		stages = append(stages, st)
	}

	for i, cmd := range started {
		logStage(stages[i].argv[0], cmd.Wait())
		stages[i].close()
	}
	builtins.Wait()
	return nil
}
