package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/protonpass/android-pass-sub021/internal/config"
	"github.com/protonpass/android-pass-sub021/internal/service"
)

const cliVersion = "0.1.0"

type userError struct {
	msg string
}

func (e userError) Error() string { return e.msg }

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		handleError(err)
	}
}

func handleError(err error) {
	if err == nil {
		return
	}

	var uerr userError
	if errors.As(err, &uerr) {
		fmt.Fprintln(os.Stderr, uerr.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "unexpected error: %v\n", err)
	os.Exit(2)
}

// run parses the global flags, opens the service and dispatches one command.
//
// Args:
//
//	args: command line without the program name.
//	in: input for the interactive session.
//	out: destination for command output.
//
// Returns:
//
//	error: userError for bad invocations, any other error for runtime failures.
//
// Behavior:
//  1. Parses --config, --dir and --debug, which must precede the command name.
//  2. Loads the TOML config, applies overrides and sets the log level.
//  3. Opens the service and runs the command or the session loop until completion or a signal.
func run(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("pm", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configPath string
	var dir string
	var debug bool
	fs.StringVar(&configPath, "config", "", "config file")
	fs.StringVar(&dir, "dir", "", "vault directory")
	fs.BoolVar(&debug, "debug", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() == 0 {
		printUsage()
		return userError{msg: "missing command"}
	}
	name, rest := fs.Arg(0), fs.Args()[1:]

	if name == "version" {
		fmt.Fprintln(out, cliVersion)
		return nil
	}
	cmd, known := commands[name]
	if !known && name != "session" && name != "init" {
		printUsage()
		return userError{msg: fmt.Sprintf("unknown command: %s", name)}
	}

	cfg, configPath, err := loadConfig(configPath, dir, debug)
	if err != nil {
		return err
	}
	if name == "init" {
		return runInit(cfg, configPath, rest, out)
	}

	svc, err := service.New(cfg)
	if err != nil {
		return fmt.Errorf("open vault: %w", err)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if name == "session" {
		return runSession(ctx, svc, rest, in, out)
	}
	return cmd.run(ctx, svc, rest, out)
}

func loadConfig(path, dir string, debug bool) (*config.Config, string, error) {
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", userError{msg: err.Error()}
	}
	if dir != "" {
		cfg.Vault.Dir = dir
	}

	log.SetLevel(cfg.LogLevel())
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	return cfg, path, nil
}

// runInit writes the config file when it does not exist yet and creates the
// vault database.
func runInit(cfg *config.Config, path string, args []string, out io.Writer) error {
	if len(args) != 0 {
		return userError{msg: "unexpected positional arguments"}
	}
	if path == "" {
		return userError{msg: "no config path; pass --config"}
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := config.Save(cfg, path); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote config %s\n", path)
	} else if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}

	svc, err := service.New(cfg)
	if err != nil {
		return fmt.Errorf("create vault: %w", err)
	}
	svc.Close()
	fmt.Fprintf(out, "vault ready at %s\n", cfg.DatabasePath())
	return nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: pm [--config <file>] [--dir <vault-dir>] [--debug] <command>")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  version")
	fmt.Fprintln(os.Stderr, "  init")
	for _, name := range commandNames() {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(os.Stderr, "  session")
}
