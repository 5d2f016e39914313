package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

// Version is set at build time via ldflags
var Version = "dev"

// errValidationFailed makes the process exit non-zero after the report has
// already been printed.
var errValidationFailed = errors.New("validation failed")

var errUnknownCommand = errors.New("unknown command")

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1], os.Args[2:], os.Stdout)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, errValidationFailed):
		os.Exit(1)
	case errors.Is(err, errUnknownCommand):
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, out io.Writer) error {
	var err error
	switch command {
	case "validate":
		err = cmdValidate(ctx, args, out)
	case "list":
		err = cmdList(ctx, args, out)
	case "info":
		err = cmdInfo(ctx, args, out)
	case "stats":
		err = cmdStats(ctx, args, out)
	case "export":
		err = cmdExport(ctx, args, out)
	case "publish":
		err = cmdPublish(ctx, args, out)
	case "history":
		err = cmdHistory(ctx, args, out)
	case "sync":
		err = cmdSync(ctx, args, out)
	case "watch":
		err = cmdWatch(ctx, args, out)
	case "help", "-h", "--help":
		printUsage(out)
	case "version", "-v", "--version":
		fmt.Fprintf(out, "curriculum %s\n", Version)
	default:
		return errUnknownCommand
	}

	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	return err
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Curriculum - exercise content library tooling

Usage:
  curriculum <command> [arguments]

Content Commands:
  validate        Check the corpus and print a report (exit 1 on errors)
  list            List exercises
  info <id>       Show exercise details
  stats           Show corpus statistics
  sync            Clone or pull the configured content repository

Publishing Commands:
  export          Write a validated catalog to a SQLite file
  publish         Write a validated catalog to every configured sink
  history         Show past publications recorded in SQLite
  watch           Print catalog publication events from AMQP

Other:
  help            Show this help message
  version         Show version information

Global Flags:
  --config        Config file (default curriculum.yaml if present)
  --content       Content directory (default: built-in content)
  --log-level     debug, info, warn or error

Examples:
  curriculum validate --strict             # CI gate
  curriculum list --subject cs101 --kind coding
  curriculum export --out catalog.db
  curriculum publish --config prod.yaml`)
}
