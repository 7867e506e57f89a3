// ABOUTME: Task CLI commands
// ABOUTME: Listing pulls the calendar first; add and delete push to it when connected
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/models"
)

func newTasksCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage tasks and their calendar events",
	}
	cmd.AddCommand(newTasksListCommand(opts))
	cmd.AddCommand(newTasksAddCommand(opts))
	cmd.AddCommand(newTasksDoneCommand(opts))
	cmd.AddCommand(newTasksDeleteCommand(opts))
	return cmd
}

func newTasksListCommand(opts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			out := cmd.OutOrStdout()

			var rows [][]string
			for _, t := range svc.GetTasks(cmd.Context()) {
				if t.IsCompleted && !all {
					continue
				}
				rows = append(rows, []string{
					shortID(t.ID),
					checkbox(t.IsCompleted),
					t.Title,
					string(t.Type),
					orDash(t.DueDate),
					taskTime(t),
					string(t.Priority),
					calendarMark(t),
				})
			}
			if len(rows) == 0 {
				printf(out, "No tasks found.\n")
				return nil
			}
			table(out, []string{"ID", "DONE", "TITLE", "TYPE", "DUE", "TIME", "PRIORITY", "CALENDAR"}, rows)
			printf(out, "\nTotal: %d task(s)\n", len(rows))
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed tasks")
	return cmd
}

func newTasksAddCommand(opts *RootOptions) *cobra.Command {
	var (
		due      string
		taskType string
		priority string
		start    string
		end      string
		contact  string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Long:  "Add a task. When the calendar is connected and the task has a due date, an event is created for it.",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, args []string) error {
			dueDate, err := app.ParseDue(due, time.Now())
			if err != nil {
				return err
			}
			t := models.Task{
				Title:     args[0],
				Type:      models.TaskType(taskType),
				Priority:  models.Priority(priority),
				DueDate:   dueDate,
				StartTime: start,
				EndTime:   end,
				IsAllDay:  start == "" && dueDate != "",
			}
			if contact != "" {
				id, err := resolveID(svc.GetContacts(), contact)
				if err != nil {
					return err
				}
				t.ContactID = id
			}

			saved, err := svc.SaveTask(cmd.Context(), t)
			if err != nil {
				return fmt.Errorf("failed to add task: %w", err)
			}
			out := cmd.OutOrStdout()
			success(out, "Added task %s (%s)", saved.Title, shortID(saved.ID))
			reportLink(out, saved.CalendarSync)
			return nil
		}),
	}
	cmd.Flags().StringVar(&due, "due", "", "due date: YYYY-MM-DD or a phrase like \"next friday\"")
	cmd.Flags().StringVar(&taskType, "type", "", "call, email, meeting or todo")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&start, "start", "", "start time HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "end time HH:MM")
	cmd.Flags().StringVar(&contact, "contact", "", "contact ID or prefix")
	return cmd
}

func newTasksDoneCommand(opts *RootOptions) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, args []string) error {
			id, err := resolveID(svc.Cache().Tasks.List(), args[0])
			if err != nil {
				return err
			}
			t, _, err := svc.CompleteTask(cmd.Context(), id, !undo)
			if err != nil {
				return fmt.Errorf("failed to update task: %w", err)
			}
			if t.IsCompleted {
				success(cmd.OutOrStdout(), "Completed %s", t.Title)
			} else {
				success(cmd.OutOrStdout(), "Reopened %s", t.Title)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the task open again")
	return cmd
}

func newTasksDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task and its calendar event",
		Args:    cobra.ExactArgs(1),
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, args []string) error {
			id, err := resolveID(svc.Cache().Tasks.List(), args[0])
			if err != nil {
				return err
			}
			_, link, err := svc.DeleteTask(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to delete task: %w", err)
			}
			out := cmd.OutOrStdout()
			success(out, "Deleted task %s", shortID(id))
			reportLink(out, link)
			return nil
		}),
	}
}

func reportLink(w io.Writer, l *models.CalendarLink) {
	switch {
	case l == nil:
	case l.IsSynced():
		printf(w, "%s\n", mutedStyle.Render("calendar event "+l.EventID))
	default:
		warning(w, "Calendar not updated: %s", l.Reason)
	}
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func taskTime(t models.Task) string {
	if t.DueDate == "" {
		return "-"
	}
	if !t.Timed() {
		return "all day"
	}
	if t.EndTime == "" {
		return t.StartTime
	}
	return t.StartTime + "-" + t.EndTime
}

func calendarMark(t models.Task) string {
	switch {
	case t.Synced():
		return "synced"
	case t.CalendarSync != nil && !t.CalendarSync.IsSynced():
		return "local only"
	}
	return "-"
}
