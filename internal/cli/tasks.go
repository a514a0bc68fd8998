package cli

import (
	"github.com/spf13/cobra"
)

func newTasksCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect background tasks and workflows",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := opts.client().ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), tasks)
			}
			printTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}

	var wait bool
	getCmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if wait {
				return waitAndPrint(cmd, opts, args[0])
			}
			task, err := opts.client().GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), task)
			}
			printTask(cmd.OutOrStdout(), task)
			return nil
		},
	}
	getCmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait until the task finishes")

	cmd.AddCommand(listCmd, getCmd)
	return cmd
}
