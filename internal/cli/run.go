package cli

import (
	"fmt"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/internal/log"
	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run TARGET ACTION",
		Short: "Run an action and wait for its result",
		Example: `  groqpilot run files list_files -p directory=/tmp
  groqpilot run email send -p to='["ops@example.com"]' -p subject=Hi -p body=Hello --confirm`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := requestFromFlags(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			log.GetLogger().Debugf("Running %s on %s against %s", req.Action, req.Target, opts.server)
			res, err := opts.client().Automate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else if err := printResult(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success && !res.RequiresConfirmation {
				return errors.Errorf("%s on %s failed", req.Action, req.Target)
			}
			return nil
		},
	}
	addParamFlags(cmd)
	return cmd
}

func newSubmitCommand(opts *rootOptions) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "submit TARGET ACTION",
		Short: "Run an action in the background",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := requestFromFlags(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			c := opts.client()
			sub, err := c.Submit(cmd.Context(), req)
			if err != nil {
				return err
			}
			return reportSubmission(cmd, opts, sub, wait)
		},
	}
	addParamFlags(cmd)
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait for the task to finish")
	return cmd
}

// reportSubmission prints the acknowledgement of a background request and,
// with wait, polls the task until it ends.
func reportSubmission(cmd *cobra.Command, opts *rootOptions, sub service.Submission, wait bool) error {
	out := cmd.OutOrStdout()
	if sub.Status == service.StatusRequiresConfirmation {
		if opts.jsonOutput {
			return printJSON(out, sub)
		}
		fmt.Fprintf(out, "Confirmation required: %s\nRe-run with --confirm to proceed.\n", sub.ConfirmationMessage)
		return nil
	}
	if !wait {
		if opts.jsonOutput {
			return printJSON(out, sub)
		}
		fmt.Fprintf(out, "Started task %s\n", sub.TaskID)
		return nil
	}
	return waitAndPrint(cmd, opts, sub.TaskID)
}

func waitAndPrint(cmd *cobra.Command, opts *rootOptions, id string) error {
	var s interface{ Stop() }
	if !opts.jsonOutput {
		s = startSpinner(cmd.ErrOrStderr(), "Waiting for "+id+"...")
	}
	task, err := opts.client().WaitTask(cmd.Context(), id, 500*time.Millisecond)
	if s != nil {
		s.Stop()
	}
	if err != nil {
		return err
	}
	if opts.jsonOutput {
		return printJSON(cmd.OutOrStdout(), task)
	}
	printTask(cmd.OutOrStdout(), task)
	return nil
}
