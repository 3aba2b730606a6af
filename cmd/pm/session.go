package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/protonpass/android-pass-sub021/internal/service"
)

func runSession(ctx context.Context, svc *service.Service, args []string, in io.Reader, out io.Writer) error {
	if len(args) != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	if interactive {
		fmt.Fprintln(out, "session ready; type 'help' for commands")
	}
	return sessionLoop(ctx, svc, in, out, interactive)
}

func sessionLoop(ctx context.Context, svc *service.Service, in io.Reader, out io.Writer, interactive bool) error {
	scanner := bufio.NewScanner(in)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if interactive {
			fmt.Fprint(out, "pm> ")
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			if interactive {
				fmt.Fprintln(out)
			}
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		name := fields[0]
		args := fields[1:]

		switch name {
		case "help":
			printSessionHelp(out)
		case "exit", "quit":
			return nil
		default:
			cmd, ok := commands[name]
			if !ok {
				fmt.Fprintf(out, "unknown command: %s\n", name)
				continue
			}
			handleSessionError(out, cmd.run(ctx, svc, args, out))
		}
	}
}

func handleSessionError(out io.Writer, err error) {
	if err == nil {
		return
	}

	var uerr userError
	if errors.As(err, &uerr) {
		fmt.Fprintln(out, uerr.Error())
		return
	}

	fmt.Fprintf(out, "error: %v\n", err)
}

func printSessionHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	for _, name := range commandNames() {
		fmt.Fprintf(out, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(out, "  exit | quit")
}
