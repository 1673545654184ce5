package cli

import (
	"github.com/spf13/cobra"
)

func newExportCommand(o *rootOptions) *cobra.Command {
	var list, latest bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of every task to snapshot storage",
		Long: `Exports all root tasks with their subtrees to the configured storage
(STORAGE_TYPE local or s3). --list shows stored snapshots, newest first;
--latest prints the most recent one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list && latest {
				return validationError("list", "cannot be combined with --latest")
			}

			return o.withDeps(func(d *Deps) error {
				if d.Snapshots == nil {
					return &Error{Code: CodeUnavailable, Message: "snapshot storage is not configured"}
				}
				ctx := cmd.Context()

				switch {
				case list:
					paths, err := d.Snapshots.List(ctx)
					if err != nil {
						return &Error{Code: CodeInternal, Message: err.Error()}
					}
					return render(o.out, o.format(), paths, func() {
						for _, p := range paths {
							messagef(o.out, "%s", p)
						}
					})

				case latest:
					paths, err := d.Snapshots.List(ctx)
					if err != nil {
						return &Error{Code: CodeInternal, Message: err.Error()}
					}
					if len(paths) == 0 {
						return &Error{Code: CodeNotFound, Message: "no snapshots yet"}
					}
					snapshot, err := d.Snapshots.Load(ctx, paths[0])
					if err != nil {
						return &Error{Code: CodeInternal, Message: err.Error()}
					}
					return render(o.out, o.format(), snapshot, func() {
						messagef(o.out, "Snapshot %s (%d tasks)", paths[0], snapshot.Count)
						taskTable(o.out, snapshot.Tasks)
					})

				default:
					objectPath, err := d.Snapshots.Export(ctx)
					if err != nil {
						return &Error{Code: CodeInternal, Message: err.Error()}
					}
					return render(o.out, o.format(), map[string]string{"path": objectPath}, func() {
						messagef(o.out, "Exported %s", objectPath)
					})
				}
			})
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list stored snapshots")
	cmd.Flags().BoolVar(&latest, "latest", false, "print the latest snapshot")
	return cmd
}
