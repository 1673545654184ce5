// Package cli implements the taskctl command line over the task service.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"task-tracker/domain/dto"
	"task-tracker/domain/services"
	natspkg "task-tracker/infrastructure/nats"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

type SnapshotService interface {
	Export(ctx context.Context) (string, error)
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, objectPath string) (*dto.TaskSnapshot, error)
}

type EventFollower interface {
	Follow(ctx context.Context, replay bool, handler natspkg.EventHandler) error
}

// Deps is what commands run against. Events is nil when no event stream is
// configured.
type Deps struct {
	Tasks     services.TaskService
	Snapshots SnapshotService
	Events    EventFollower
	Close     func() error
}

// Loader builds Deps for the selected store ("" means the configured one).
type Loader func(storeType string) (*Deps, error)

type rootOptions struct {
	output  string
	store   string
	noColor bool

	load Loader
	out  io.Writer
	err  io.Writer
}

// NewRootCommand assembles the taskctl command tree.
func NewRootCommand(load Loader) *cobra.Command {
	opts := &rootOptions{load: load, out: os.Stdout, err: os.Stderr}

	root := &cobra.Command{
		Use:   "taskctl",
		Short: "Manage hierarchical tasks from the command line",
		Long: `taskctl creates, queries and completes tasks in the same store the
task-tracker API uses. Store and infrastructure settings come from the
environment (or a .env file); --store overrides STORE_TYPE.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.out = cmd.OutOrStdout()
			opts.err = cmd.ErrOrStderr()
			if opts.noColor || os.Getenv("NO_COLOR") != "" {
				disableColor()
			}
			if _, err := parseFormat(opts.output); err != nil {
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format: table, json or yaml")
	root.PersistentFlags().StringVar(&opts.store, "store", "", "task store: postgres, neo4j or memory (default $STORE_TYPE)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable color output")

	root.AddCommand(
		newCreateCommand(opts),
		newListCommand(opts),
		newShowCommand(opts),
		newUpdateCommand(opts),
		newCompleteCommand(opts),
		newDeleteCommand(opts),
		newSubtaskCommand(opts),
		newExportCommand(opts),
		newEventsCommand(opts),
	)
	return root
}

// withDeps connects to the store, runs fn and releases the connections.
func (o *rootOptions) withDeps(fn func(d *Deps) error) error {
	deps, err := o.load(o.store)
	if err != nil {
		return &Error{Code: CodeInternal, Message: fmt.Sprintf("initialize: %v", err)}
	}
	if deps.Close != nil {
		defer func() {
			if cerr := deps.Close(); cerr != nil {
				fmt.Fprintln(o.err, "Warning: cleanup failed:", cerr)
			}
		}()
	}
	return fn(deps)
}

func (o *rootOptions) format() Format {
	f, _ := parseFormat(o.output)
	return f
}

// Execute runs the command tree and exits with the error's exit code.
func Execute(load Loader) {
	root := NewRootCommand(load)
	cmd, err := root.ExecuteC()
	if err == nil {
		return
	}

	format, _ := cmd.Flags().GetString("output")
	if f, _ := parseFormat(format); f == FormatJSON {
		writeJSONError(os.Stdout, err)
	} else {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}

	var cliErr *Error
	if errors.As(err, &cliErr) {
		os.Exit(cliErr.ExitCode())
	}
	os.Exit(1)
}
