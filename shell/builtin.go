package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Paranoid-AF/ashell/redirect"
)

// Stdio is the set of streams a builtin runs with.
type Stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// InPipeline is set when the builtin is one stage of a pipeline. Such a
	// builtin must not change session-wide process state; its session
	// carries a private copy of the history.
	InPipeline bool
}

// Builtin is a command implemented inside the shell process. Diagnostics go
// to std.Stderr; a returned error is reserved for ErrExit and write failures.
type Builtin func(s *Session, args []string, std Stdio) error

func builtinTable() map[string]Builtin {
	return map[string]Builtin{
		"cd":      builtinCd,
		"echo":    builtinEcho,
		"exit":    builtinExit,
		"history": builtinHistory,
		"pwd":     builtinPwd,
		"type":    builtinType,
	}
}

func builtinExit(s *Session, args []string, std Stdio) error {
	if std.InPipeline {
		return nil
	}
	return ErrExit
}

func builtinEcho(s *Session, args []string, std Stdio) error {
	_, err := fmt.Fprintln(std.Stdout, strings.Join(args, " "))
	return err
}

func builtinType(s *Session, args []string, std Stdio) error {
	for _, name := range args {
		switch {
		case s.IsBuiltin(name):
			fmt.Fprintf(std.Stdout, "%s is a shell builtin\n", name)
		default:
			if path, ok := s.Index.Lookup(name); ok {
				fmt.Fprintf(std.Stdout, "%s is %s\n", name, path)
			} else {
				fmt.Fprintf(std.Stdout, "%s: not found\n", name)
			}
		}
	}
	return nil
}

func builtinPwd(s *Session, args []string, std Stdio) error {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(std.Stderr, "pwd: %v\n", err)
		return nil
	}
	_, err = fmt.Fprintln(std.Stdout, dir)
	return err
}

func builtinCd(s *Session, args []string, std Stdio) error {
	arg := "~"
	if len(args) > 0 {
		arg = args[0]
	}

	target := arg
	if arg == "~" || strings.HasPrefix(arg, "~/") {
		home, err := s.homeDir()
		if err != nil || home == "" {
			fmt.Fprintln(std.Stderr, "cd: HOME not set")
			return nil
		}
		target = filepath.Join(home, strings.TrimPrefix(arg, "~"))
	}

	if std.InPipeline {
		// Subshell semantics: validate only.
		if info, err := os.Stat(target); err != nil || !info.IsDir() {
			fmt.Fprintf(std.Stderr, "cd: %s: No such file or directory\n", arg)
		}
		return nil
	}

	if err := os.Chdir(target); err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			fmt.Fprintf(std.Stderr, "cd: %s: No such file or directory\n", arg)
		case errors.Is(err, os.ErrPermission):
			fmt.Fprintf(std.Stderr, "cd: %s: Permission denied\n", arg)
		default:
			fmt.Fprintf(std.Stderr, "cd: %s: %v\n", arg, redirect.UnwrapPath(err))
		}
	}
	return nil
}

func builtinHistory(s *Session, args []string, std Stdio) error {
	if len(args) == 0 {
		return s.History.List(std.Stdout, 0)
	}

	switch flag := args[0]; flag {
	case "-r", "-w", "-a":
		if len(args) < 2 {
			fmt.Fprintf(std.Stderr, "history: %s: option requires an argument\n", flag)
			return nil
		}
		path := args[1]
		var err error
		switch flag {
		case "-r":
			err = s.History.Load(path)
		case "-w":
			err = s.History.Save(path)
		case "-a":
			err = s.History.AppendNew(path)
		}
		if err != nil {
			fmt.Fprintf(std.Stderr, "history: %s: %v\n", path, redirect.UnwrapPath(err))
		}
		return nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		fmt.Fprintf(std.Stderr, "history: %s: numeric argument required\n", args[0])
		return nil
	}
	if n == 0 {
		return nil
	}
	return s.History.List(std.Stdout, n)
}
