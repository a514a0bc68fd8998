package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newWorkflowCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Run multi-step workflows",
	}

	var (
		file    string
		confirm bool
		wait    bool
	)
	runCmd := &cobra.Command{
		Use:   "run -f FILE",
		Short: "Submit a workflow definition from a YAML file",
		Example: `  groqpilot workflow run -f report.yaml --wait

  # report.yaml
  name: Daily report
  steps:
    - target: files
      action: list_files
      parameters: {directory: /tmp/reports}
      pass_result_to_next: true
    - target: files
      action: write_file
      parameters: {file_path: /tmp/reports/index.json}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := LoadWorkflow(afero.NewOsFs(), file)
			if err != nil {
				return err
			}
			if confirm {
				def.ConfirmRisky = true
			}
			sub, err := opts.client().ExecuteWorkflow(cmd.Context(), def)
			if err != nil {
				return err
			}
			if !wait && !opts.jsonOutput && sub.ConfirmationMessage == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Started workflow %s (%d steps)\n", sub.TaskID, len(def.Steps))
				return nil
			}
			return reportSubmission(cmd, opts, sub, wait)
		},
	}
	runCmd.Flags().StringVarP(&file, "file", "f", "", "workflow definition file")
	runCmd.Flags().BoolVar(&confirm, "confirm", false, "confirm risky steps")
	runCmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait for the workflow to finish")
	_ = runCmd.MarkFlagRequired("file")

	cmd.AddCommand(runCmd)
	return cmd
}
