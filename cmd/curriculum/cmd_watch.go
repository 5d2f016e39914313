package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/callumalpass/study-program/internal/notify"
)

// cmdWatch prints catalog events until interrupted. It reads from its own
// subscription queue, so the work queue keeps every event for the
// downstream consumers.
func cmdWatch(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	fs := newFlagSet("watch", &g)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(g, out)
	if err != nil {
		return err
	}
	if a.cfg.Notify.AMQPURL == "" {
		return errors.New("no AMQP URL configured (set CURRICULUM_AMQP_URL)")
	}

	conn, err := notify.NewConnection(a.cfg.Notify.AMQPURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	consumer := notify.NewConsumer(conn, func(ctx context.Context, event *notify.CatalogPublished) error {
		_, err := fmt.Fprintf(out, "%s  %s  %d exercises  subjects=%s  sinks=%s\n",
			event.PublishedAt.Local().Format(time.DateTime),
			shortDigest(event.Digest),
			event.ExerciseCount,
			strings.Join(event.Subjects, ","),
			strings.Join(event.Sinks, ","),
		)
		return err
	}, notify.ConsumerConfig{Workers: 1, Prefetch: 1, Subscribe: true})

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("watching catalog events", "exchange", notify.CatalogExchangeName)

	select {
	case <-ctx.Done():
		consumer.Stop()
		return nil
	case <-consumer.Done():
		if ctx.Err() != nil {
			return nil
		}
		return errEventStreamClosed
	}
}

// errEventStreamClosed is returned when the broker drops the subscription,
// for example across a reconnect.
var errEventStreamClosed = errors.New("catalog event stream closed")
