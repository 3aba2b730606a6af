package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/protonpass/android-pass-sub021/domaincheck"
	"github.com/protonpass/android-pass-sub021/internal/service"
	"github.com/protonpass/android-pass-sub021/suggestion"
)

type command struct {
	usage string
	run   func(ctx context.Context, svc *service.Service, args []string, out io.Writer) error
}

var commands = map[string]command{
	"add": {
		usage: "add --user <username> [--title <title>] [--site <website>]... [--package <name>]...",
		run:   runAdd,
	},
	"list": {
		usage: "list",
		run:   runList,
	},
	"delete": {
		usage: "delete --id <id>",
		run:   runDelete,
	},
	"parse": {
		usage: "parse <address>...",
		run:   runParse,
	},
	"suggest": {
		usage: "suggest [--url <address>] [--package <name>]",
		run:   runSuggest,
	},
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func runAdd(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := newFlagSet("add")

	var title string
	var user string
	var sites stringList
	var packages stringList
	fs.StringVar(&title, "title", "", "credential title")
	fs.StringVar(&user, "user", "", "username")
	fs.Var(&sites, "site", "website (repeatable)")
	fs.Var(&packages, "package", "app package name (repeatable)")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid add arguments"}
	}
	if user == "" {
		return userError{msg: "add requires --user"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	id, err := svc.Add(ctx, title, user, sites, packages)
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	fmt.Fprintf(out, "stored credential for %s (id=%d)\n", user, id)
	return nil
}

func runList(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	if len(args) != 0 {
		return userError{msg: "list takes no arguments"}
	}

	items, err := svc.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "no credentials stored")
		return nil
	}
	for _, it := range items {
		printCredential(out, it)
	}
	return nil
}

func runDelete(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := newFlagSet("delete")

	var id int64
	fs.Int64Var(&id, "id", 0, "credential id")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid delete arguments"}
	}
	if id <= 0 {
		return userError{msg: "delete requires --id"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	if err := svc.Delete(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return userError{msg: err.Error()}
		}
		return err
	}
	fmt.Fprintf(out, "deleted credential %d\n", id)
	return nil
}

func runParse(_ context.Context, svc *service.Service, args []string, out io.Writer) error {
	if len(args) == 0 {
		return userError{msg: "parse requires at least one address"}
	}

	for _, raw := range args {
		info, err := svc.Parse(raw)
		if err != nil {
			fmt.Fprintf(out, "%s\tunparseable: %v\n", raw, err)
			continue
		}
		switch info.Kind {
		case domaincheck.KindIPAddress:
			fmt.Fprintf(out, "%s\tip\tprotocol=%s\taddress=%s\n", raw, info.Protocol, info.Address)
		case domaincheck.KindDomainName:
			fmt.Fprintf(out, "%s\tdomain\tprotocol=%s\thost=%s\tregistrable=%s\n",
				raw, info.Protocol, info.Host, info.RegistrableDomain)
		}
	}
	return nil
}

func runSuggest(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := newFlagSet("suggest")

	var target suggestion.Target
	fs.StringVar(&target.URL, "url", "", "address being filled")
	fs.StringVar(&target.PackageName, "package", "", "app package being filled")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid suggest arguments"}
	}
	if target.IsEmpty() {
		return userError{msg: "suggest requires --url or --package"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	items, err := svc.Suggest(ctx, target)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "no suggestions")
		return nil
	}
	for _, it := range items {
		printCredential(out, it)
	}
	return nil
}

func printCredential(out io.Writer, c suggestion.Credential) {
	fmt.Fprintf(out, "%d\t%s\t%s\tsites=%s\tpackages=%s\n",
		c.ID, c.Username, c.Title, strings.Join(c.Websites, ","), strings.Join(c.PackageNames, ","))
}
