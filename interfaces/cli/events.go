package cli

import (
	"os/signal"
	"syscall"
	"time"

	"task-tracker/domain/ports"

	"github.com/spf13/cobra"
)

func newEventsCommand(o *rootOptions) *cobra.Command {
	var replay bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow task lifecycle events until interrupted",
		Long: `Prints created, updated, completed, deleted and subtask_added events from
the NATS event stream. --replay starts from the oldest retained event.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withDeps(func(d *Deps) error {
				if d.Events == nil {
					return &Error{Code: CodeUnavailable, Message: "event stream is not configured (set NATS_URL)"}
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				err := d.Events.Follow(ctx, replay, func(event *ports.TaskEvent) {
					o.printEvent(event)
				})
				if err != nil && ctx.Err() == nil {
					return &Error{Code: CodeInternal, Message: err.Error()}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&replay, "replay", false, "start from the oldest retained event")
	return cmd
}

func (o *rootOptions) printEvent(event *ports.TaskEvent) {
	switch o.format() {
	case FormatJSON:
		_ = writeJSON(o.out, event)
	case FormatYAML:
		_ = writeYAML(o.out, event)
	default:
		messagef(o.out, "%s  %-14s %s  %s",
			event.OccurredAt.Format(time.RFC3339),
			event.Type,
			event.TaskID,
			event.Title,
		)
	}
}

