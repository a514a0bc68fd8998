package cli

import (
	"fmt"

	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/spf13/cobra"
)

func newScheduleCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage scheduled tasks",
	}

	var (
		name  string
		sched models.Schedule
		kind  string
	)
	createCmd := &cobra.Command{
		Use:   "create TARGET ACTION",
		Short: "Schedule an action",
		Example: `  groqpilot schedule create files organize_files -p directory=/tmp --type daily --time 09:00
  groqpilot schedule create system get_system_info --type weekly --days 1,3,5 --time 18:30
  groqpilot schedule create browser open --type interval --every 2h -p url=https://example.com`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := requestFromFlags(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			sched.Type = models.ScheduleType(kind)
			task := models.ScheduledTask{
				Name:         name,
				Target:       req.Target,
				Action:       req.Action,
				Parameters:   req.Parameters,
				ConfirmRisky: req.ConfirmRisky,
				Schedule:     sched,
			}
			res, err := opts.client().CreateSchedule(cmd.Context(), task)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, res)
			}
			if res.RequiresConfirmation {
				fmt.Fprintf(out, "Confirmation required: %s\nRe-run with --confirm to proceed.\n", res.ConfirmationMessage)
				return nil
			}
			fmt.Fprintf(out, "Scheduled task %s, next run %s\n", res.TaskID, formatTime(res.NextRun))
			return nil
		},
	}
	addParamFlags(createCmd)
	createCmd.Flags().StringVar(&name, "name", "", "display name")
	createCmd.Flags().StringVar(&kind, "type", string(models.DailySchedule), "once, daily, weekly, monthly or interval")
	createCmd.Flags().StringVar(&sched.Time, "time", "", "time of day as HH:MM")
	createCmd.Flags().StringVar(&sched.Date, "date", "", "date as YYYY-MM-DD (once, monthly)")
	createCmd.Flags().IntSliceVar(&sched.Days, "days", nil, "weekdays, 0=Sunday (weekly)")
	createCmd.Flags().StringVar(&sched.Every, "every", "", "interval such as 30m (interval)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := opts.client().ListSchedules(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), tasks)
			}
			printSchedules(cmd.OutOrStdout(), tasks)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a scheduled task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := opts.client().DeleteSchedule(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), task)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted scheduled task %s (%s)\n", task.ID, task.Name)
			return nil
		},
	}

	cmd.AddCommand(createCmd, listCmd, deleteCmd)
	return cmd
}
