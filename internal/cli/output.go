package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pkg/errors"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "failed to encode output")
}

func startSpinner(w io.Writer, suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + suffix
	s.Start()
	return s
}

func colorStatus(status models.TaskStatus) string {
	switch status {
	case models.CompletedTaskStatus:
		return text.FgGreen.Sprint(status)
	case models.FailedTaskStatus:
		return text.FgRed.Sprint(status)
	case models.RunningTaskStatus:
		return text.FgYellow.Sprint(status)
	}
	return string(status)
}

func printResult(w io.Writer, res models.AutomationResult) error {
	switch {
	case res.RequiresConfirmation:
		fmt.Fprintf(w, "%s %s\n", text.FgYellow.Sprint("Confirmation required:"), res.ConfirmationMessage)
		fmt.Fprintln(w, "Re-run with --confirm to proceed.")
		return nil
	case !res.Success:
		fmt.Fprintf(w, "%s %s (%s)\n", text.FgRed.Sprint("Failed:"), res.Error, res.ErrorType)
		return nil
	}
	fmt.Fprintf(w, "%s in %.3fs\n", text.FgGreen.Sprint("Completed"), res.ExecutionTime)
	return printJSON(w, res.Result)
}

func printTasks(w io.Writer, tasks map[string]models.TaskRecord) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}
	records := make([]models.TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, t)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartTime.Before(records[j].StartTime)
	})

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Kind", "Status", "Started", "Duration", "Error"})
	for _, r := range records {
		duration := "-"
		if r.ExecutionTime != nil {
			duration = fmt.Sprintf("%.3fs", *r.ExecutionTime)
		}
		t.AppendRow(table.Row{r.ID, r.Kind, colorStatus(r.Status), r.StartTime.Local().Format(time.DateTime), duration, r.Error})
	}
	t.AppendFooter(table.Row{"Total", len(records)})
	t.Render()
}

func printTask(w io.Writer, r models.TaskRecord) {
	t := newTable(w)
	t.AppendRow(table.Row{"ID", r.ID})
	t.AppendRow(table.Row{"Kind", r.Kind})
	if r.Name != "" {
		t.AppendRow(table.Row{"Name", r.Name})
	}
	t.AppendRow(table.Row{"Status", colorStatus(r.Status)})
	t.AppendRow(table.Row{"Started", r.StartTime.Local().Format(time.DateTime)})
	if r.ExecutionTime != nil {
		t.AppendRow(table.Row{"Duration", fmt.Sprintf("%.3fs", *r.ExecutionTime)})
	}
	if r.Kind == models.WorkflowTaskKind {
		t.AppendRow(table.Row{"Steps", fmt.Sprintf("%d/%d", r.StepsCompleted, r.TotalSteps)})
	}
	if r.Error != "" {
		t.AppendRow(table.Row{"Error", text.FgRed.Sprint(r.Error)})
	}
	t.Render()

	if len(r.Results) > 0 {
		steps := newTable(w)
		steps.AppendHeader(table.Row{"#", "Step", "Success", "Time", "Error"})
		for _, sr := range r.Results {
			steps.AppendRow(table.Row{sr.Step, sr.Name, sr.Success, fmt.Sprintf("%.3fs", sr.ExecutionTime), sr.Error})
		}
		steps.Render()
	}
}

func printSchedules(w io.Writer, tasks []models.ScheduledTask) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No scheduled tasks found.")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Schedule", "Active", "Next Run", "Last Result"})
	for _, s := range tasks {
		t.AppendRow(table.Row{s.ID, s.Name, describeSchedule(s.Schedule), s.Active, formatTime(s.NextRun), s.LastResult})
	}
	t.Render()
}

func describeSchedule(s models.Schedule) string {
	switch s.Type {
	case models.IntervalSchedule:
		return "every " + s.Every
	case models.WeeklySchedule:
		days := make([]string, len(s.Days))
		for i, d := range s.Days {
			days[i] = time.Weekday(d).String()[:3]
		}
		return fmt.Sprintf("weekly %s at %s", strings.Join(days, ","), s.Time)
	case models.OnceSchedule:
		return fmt.Sprintf("once %s %s", s.Date, s.Time)
	case models.MonthlySchedule:
		return fmt.Sprintf("monthly from %s at %s", s.Date, s.Time)
	}
	return fmt.Sprintf("%s at %s", s.Type, s.Time)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
