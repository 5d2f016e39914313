package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/callumalpass/study-program/internal/exercise"
	"github.com/callumalpass/study-program/internal/notify"
	"github.com/callumalpass/study-program/internal/publish"
)

// cmdPublish writes a validated catalog to every configured sink and
// announces it over AMQP when a broker is configured.
func cmdPublish(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	fs := newFlagSet("publish", &g)
	strict := fs.Bool("strict", false, "block on exercises without visible test cases")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(g, out)
	if err != nil {
		return err
	}
	registry, err := a.registry(ctx)
	if err != nil {
		return err
	}

	set, err := openSinks(ctx, a.cfg.Publish)
	if err != nil {
		return err
	}
	defer set.Close()

	opts := publish.Options{
		Strict: *strict || a.cfg.Validation.Strict,
		Retry:  retryConfig(a.cfg.Publish.MaxAttempts),
		Logger: a.logger,
	}

	if url := a.cfg.Notify.AMQPURL; url != "" {
		conn, err := notify.NewConnection(url)
		if err != nil {
			return err
		}
		defer conn.Close()
		opts.Notifier = notify.NewProducer(conn)
	}

	return reportPublication(ctx, publish.NewService(set.sinks, opts), registry, out)
}

func reportPublication(ctx context.Context, svc *publish.Service, registry *exercise.Registry, out io.Writer) error {
	result, err := svc.Publish(ctx, registry.Corpus(), registry.Rejections()...)

	var blocked *publish.BlockedError
	if errors.As(err, &blocked) {
		printReport(out, blocked.Report)
		return errValidationFailed
	}
	if err != nil {
		return err
	}

	for _, w := range result.Report.Warnings() {
		fmt.Fprintf(out, "  %s\n", w)
	}
	fmt.Fprintf(out, "Published %s: %d subjects, %d exercises\n",
		shortDigest(result.Snapshot.Digest), len(result.Snapshot.Subjects), len(result.Snapshot.Exercises))
	for _, name := range result.Sinks {
		fmt.Fprintf(out, "  -> %s\n", name)
	}
	if result.Event != nil {
		fmt.Fprintf(out, "  announced as %s\n", result.Event.ID)
	}
	if result.NotifyErr != nil {
		fmt.Fprintf(out, "  announcement failed: %v\n", result.NotifyErr)
	}
	return nil
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
