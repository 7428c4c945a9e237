// File: internal/reporting/table.go
package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteSummary renders the per-engine overview table.
func WriteSummary(out io.Writer, report *RunReport) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("farescout run %s", shortID(report.RunID))

	t.AppendHeader(table.Row{"Engine", "Outcome", "Steps", "Cheapest", "Policy", "Elapsed"})
	for _, run := range report.Runs {
		completed := 0
		for _, s := range run.Steps {
			if s.Status == StepCompleted {
				completed++
			}
		}

		price, policy := "-", "-"
		if run.Selection != nil {
			policy = run.Selection.Policy
			if run.Selection.Priced {
				price = fmt.Sprintf("%.2f", run.Selection.Price)
			}
		}

		t.AppendRow(table.Row{
			run.Engine,
			run.Outcome,
			fmt.Sprintf("%d/%d", completed, len(run.Steps)),
			price,
			policy,
			(time.Duration(run.ElapsedMS) * time.Millisecond).Round(time.Millisecond),
		})
	}
	t.Render()
}

// WriteSteps renders the stage-by-stage breakdown of one engine run.
func WriteSteps(out io.Writer, run EngineRun) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("%s steps", run.Engine)

	t.AppendHeader(table.Row{"Stage", "Status", "Confirmed By", "Elapsed", "Error"})
	for _, s := range run.Steps {
		strategy := s.Strategy
		if strategy == "" {
			strategy = "-"
		}
		errText := s.Error
		if errText == "" {
			errText = "-"
		}
		t.AppendRow(table.Row{
			s.Name,
			s.Status,
			strategy,
			(time.Duration(s.ElapsedMS) * time.Millisecond).Round(time.Millisecond),
			errText,
		})
	}
	t.Render()
}
