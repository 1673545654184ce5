package cli

import (
	"strconv"
	"strings"

	"task-tracker/domain/dto"
	"task-tracker/domain/models"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// normalizeAliases lets --desc stand in for --description.
func normalizeAliases(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "desc" {
		name = "description"
	}
	return pflag.NormalizedName(name)
}

// parsePriority reads an optional numeric flag value.
func parsePriority(flags *pflag.FlagSet) (*float64, error) {
	if !flags.Changed("priority") {
		return nil, nil
	}
	raw, _ := flags.GetString("priority")
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, validationError("priority", "must be a number")
	}
	return &v, nil
}

// titleArg takes the title from the positional argument or --title.
func titleArg(cmd *cobra.Command, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	title, _ := cmd.Flags().GetString("title")
	return title
}

func (o *rootOptions) printTask(task *models.Task) error {
	resp := dto.TaskToTaskResponse(task)
	return render(o.out, o.format(), resp, func() { taskDetail(o.out, resp) })
}

func newCreateCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "create [TITLE]",
		Aliases: []string{"add"},
		Short:   "Create a task",
		Long: `Creates a root task, or a subtask when --parent is given. The title can be
a positional argument or --title.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			priority, err := parsePriority(cmd.Flags())
			if err != nil {
				return err
			}
			description, _ := cmd.Flags().GetString("description")
			parent, _ := cmd.Flags().GetString("parent")

			req := &dto.CreateTaskRequest{
				Title:       titleArg(cmd, args),
				Description: description,
				Priority:    priority,
				ParentID:    parent,
			}

			return o.withDeps(func(d *Deps) error {
				task, err := d.Tasks.CreateTask(cmd.Context(), req)
				if err != nil {
					return fromService(err)
				}
				return o.printTask(task)
			})
		},
	}

	cmd.Flags().String("title", "", "task title")
	cmd.Flags().String("description", "", "task description")
	cmd.Flags().String("priority", "", "numeric priority")
	cmd.Flags().String("parent", "", "parent task ID")
	cmd.Flags().SetNormalizeFunc(normalizeAliases)
	return cmd
}

func newListCommand(o *rootOptions) *cobra.Command {
	var filter dto.TaskFilterRequest

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List root tasks with their subtasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withDeps(func(d *Deps) error {
				tasks, err := d.Tasks.ListTasks(cmd.Context(), &filter)
				if err != nil {
					return fromService(err)
				}
				resp := dto.TasksToTaskResponses(tasks)
				return render(o.out, o.format(), resp, func() { taskTable(o.out, resp) })
			})
		},
	}

	cmd.Flags().StringVar(&filter.Status, "status", "", "only tasks with this status (todo, done)")
	cmd.Flags().StringVar(&filter.PriorityMin, "priority-min", "", "minimum priority, inclusive")
	cmd.Flags().StringVar(&filter.PriorityMax, "priority-max", "", "maximum priority, inclusive")
	cmd.Flags().StringVar(&filter.Title, "title", "", "case-insensitive title substring")
	cmd.Flags().StringVar(&filter.SortBy, "sort-by", "", "sort field: title, description, priority, status, createdAt, completedAt")
	cmd.Flags().StringVar(&filter.Order, "order", "", "sort order: asc or desc")
	return cmd
}

func newShowCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a task and its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withDeps(func(d *Deps) error {
				task, err := d.Tasks.GetTask(cmd.Context(), args[0])
				if err != nil {
					return fromService(err)
				}
				return o.printTask(task)
			})
		},
	}
}

func newUpdateCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "update ID",
		Aliases: []string{"edit"},
		Short:   "Change a task's title, description or priority",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			req := &dto.UpdateTaskRequest{}

			if flags.Changed("title") {
				title, _ := flags.GetString("title")
				req.Title = &title
			}
			if flags.Changed("description") {
				description, _ := flags.GetString("description")
				req.Description = &description
			}

			clearPriority, _ := flags.GetBool("clear-priority")
			switch {
			case clearPriority && flags.Changed("priority"):
				return validationError("priority", "cannot be combined with --clear-priority")
			case clearPriority:
				req.Priority = dto.ClearPriority()
			case flags.Changed("priority"):
				priority, err := parsePriority(flags)
				if err != nil {
					return err
				}
				req.Priority = dto.SetPriority(*priority)
			}

			return o.withDeps(func(d *Deps) error {
				task, err := d.Tasks.UpdateTask(cmd.Context(), args[0], req)
				if err != nil {
					return fromService(err)
				}
				return o.printTask(task)
			})
		},
	}

	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().String("priority", "", "new numeric priority")
	cmd.Flags().Bool("clear-priority", false, "remove the priority")
	cmd.Flags().SetNormalizeFunc(normalizeAliases)
	return cmd
}

func newCompleteCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "complete ID",
		Aliases: []string{"done"},
		Short:   "Mark a task done once all its subtasks are done",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withDeps(func(d *Deps) error {
				task, err := d.Tasks.CompleteTask(cmd.Context(), args[0])
				if err != nil {
					return fromService(err)
				}
				return o.printTask(task)
			})
		},
	}
}

func newDeleteCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a task and its subtasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withDeps(func(d *Deps) error {
				if err := d.Tasks.DeleteTask(cmd.Context(), args[0]); err != nil {
					return fromService(err)
				}
				return render(o.out, o.format(), map[string]string{"deleted": args[0]}, func() {
					messagef(o.out, "Deleted task %s", args[0])
				})
			})
		},
	}
}

func newSubtaskCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtask PARENT_ID [TITLE]",
		Short: "Append a subtask to a task",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			priority, err := parsePriority(cmd.Flags())
			if err != nil {
				return err
			}
			description, _ := cmd.Flags().GetString("description")

			req := &dto.AddSubtaskRequest{
				Title:       titleArg(cmd, args[1:]),
				Description: description,
				Priority:    priority,
			}

			return o.withDeps(func(d *Deps) error {
				task, err := d.Tasks.AddSubtask(cmd.Context(), args[0], req)
				if err != nil {
					return fromService(err)
				}
				return o.printTask(task)
			})
		},
	}

	cmd.Flags().String("title", "", "subtask title")
	cmd.Flags().String("description", "", "subtask description")
	cmd.Flags().String("priority", "", "numeric priority")
	cmd.Flags().SetNormalizeFunc(normalizeAliases)
	return cmd
}
