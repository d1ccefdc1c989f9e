// Command ashell is an interactive shell.
// On a terminal it edits lines in raw mode with tab completion and history
// recall; otherwise it runs the lines read from stdin.
//
// Usage:
//
//	ashell                 # interactive
//	ashell < script.txt    # batch, no prompt
//	ashell -c 'echo hi'    # run one command
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	ashell "github.com/Paranoid-AF/ashell"
	"github.com/Paranoid-AF/ashell/complete"
	"github.com/Paranoid-AF/ashell/editor"
	"github.com/Paranoid-AF/ashell/history"
	"github.com/Paranoid-AF/ashell/shell"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	os.Exit(main1())
}

func main1() int {
	flags := pflag.NewFlagSet("ashell", pflag.ContinueOnError)
	command := flags.StringP("command", "c", "", "run `line` and exit")
	configPath := flags.String("config", "", "read configuration from `file`")
	verbose := flags.BoolP("verbose", "v", false, "log debug diagnostics")
	showVersion := flags.Bool("version", false, "print version and exit")
	noHistory := flags.Bool("no-history", false, "neither load nor save the history file")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "ashell: %v\n", err)
		flags.Usage()
		return 2
	}

	if *showVersion {
		fmt.Println("ashell", Version)
		return 0
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ashell: %v\n", err)
		return 1
	}
	closeLog := setupLogging(cfg, *verbose)
	defer closeLog()
	for _, w := range ashell.ValidateConfig(cfg) {
		slog.Warn("config", "warning", w)
	}

	// Ctrl-C reaches the foreground children; the shell itself survives it.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			slog.Debug("interrupt received")
		}
	}()

	store := history.New()
	histFile := ""
	if !*noHistory {
		histFile = ashell.ResolveHistoryFile(cfg)
	}
	if histFile != "" {
		if err := store.LoadTail(histFile, cfg.History.MaxLoad); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to load history", "path", histFile, "error", err)
		}
		slog.Debug("loaded history", "path", histFile, "entries", store.Len())
	}

	index := complete.NewPathIndex(nil, ashell.PathCacheTTL(cfg))
	defer index.Close()
	sess := shell.New(shell.Options{History: store, Index: index})
	defer sess.Close()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	slog.Debug("session starting", "version", Version, "interactive", interactive, "history", histFile)

	ctx := context.Background()
	if flags.Changed("command") {
		if err := sess.Execute(ctx, *command); err != nil && !errors.Is(err, shell.ErrExit) {
			fmt.Fprintf(os.Stderr, "ashell: %v\n", err)
		}
		return 0
	}

	var reader shell.LineReader
	prompt := ""
	if interactive {
		reader = editor.New(os.Stdin, os.Stdout, sess.Completer(), store.Navigator())
		prompt = ashell.ResolvePrompt(cfg)
	} else {
		reader = shell.NewScanner(os.Stdin)
	}

	status := 0
	if err := sess.Interact(ctx, reader, prompt); err != nil {
		fmt.Fprintf(os.Stderr, "ashell: %v\n", err)
		status = 1
	}

	if histFile != "" && ashell.SaveHistoryOnExit(cfg) {
		if err := store.Save(histFile); err != nil {
			slog.Warn("failed to save history", "path", histFile, "error", err)
		}
	}
	return status
}

func loadConfig(path string) (*ashell.Config, error) {
	if path == "" {
		return ashell.LoadConfig()
	}
	return ashell.LoadConfigFile(path)
}

// setupLogging installs the default slog handler and returns a func that
// releases the log file, if any.
func setupLogging(cfg *ashell.Config, verbose bool) func() {
	level := ashell.LogLevel(cfg)
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closeLog := func() {}
	if path := ashell.ResolveLogFile(cfg); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ashell: log file: %v\n", err)
		} else {
			w = f
			closeLog = func() { f.Close() }
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return closeLog
}
