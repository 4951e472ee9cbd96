package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"rehydrator/internal/config"
	"rehydrator/internal/logging"
	"rehydrator/pkg/rehydrator"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rehydrator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file (default ./"+config.DefaultPath+" if present)")
	dir := fs.String("dir", "", "store directory (overrides config)")
	prefix := fs.String("prefix", "", "store file prefix (overrides config)")
	format := fs.String("format", "", "store format: json, proto or bolt (overrides config)")
	lock := fs.Bool("lock", false, "hold an exclusive file lock during each operation")
	logLevel := fs.String("log-level", "", "debug, info, warn or error (overrides config)")

	reg := newRegistry()
	registerStoreCommands(reg)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: rehydrator [flags] <command> [args]\n\nCommands:\n%s\nFlags:\n", reg.helpText())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	// Load config (TOML file over defaults)
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	// CLI flags override config file values
	if *dir != "" {
		cfg.Store.Dir = config.ExpandHome(*dir)
	}
	if *prefix != "" {
		cfg.Store.Prefix = *prefix
	}
	if *format != "" {
		cfg.Store.Format = *format
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "lock" {
			cfg.Store.Lock = *lock
		}
	})
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if err := logging.Init(stderr, cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(stderr, "logging: %v\n", err)
		return 1
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}

	ctx := commandContext{
		Out:    stdout,
		Opts:   rehydrator.OptionsFromConfig(cfg.Store),
		Args:   rest[1:],
		Pretty: isTerminal(stdout),
	}
	err = reg.dispatch(rest[0], ctx)
	var usage *usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usage):
		fmt.Fprintf(stderr, "%v\n", usage)
		return 2
	default:
		fmt.Fprintf(stderr, "rehydrator: %v\n", err)
		return 1
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
