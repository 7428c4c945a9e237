// File: internal/reporting/report.go

// Package reporting renders funnel runs into JSON artifacts and console
// summaries. Reports are plain data; everything here is constructed by the
// orchestrator and the command layer.
package reporting

import (
	"time"

	"github.com/xkilldash9x/farescout-cli/internal/funnel/pages"
	"github.com/xkilldash9x/farescout-cli/internal/funnel/selection"
)

// RunOutcome classifies how an engine run ended.
type RunOutcome string

const (
	// RunCompleted means the funnel reached the payment checkpoint.
	RunCompleted RunOutcome = "completed"
	// RunAborted means the funnel stopped short of the checkpoint.
	RunAborted RunOutcome = "aborted"
)

// StepStatus classifies one funnel stage within a run.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	// StepSkipped marks an optional stage whose ready state never showed.
	StepSkipped StepStatus = "skipped"
	StepFailed  StepStatus = "failed"
)

// StepResult records one funnel stage attempt.
type StepResult struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	// Strategy is the detection strategy that confirmed the stage's ready
	// state, empty when none did.
	Strategy  string `json:"strategy,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Error     string `json:"error,omitempty"`
}

// Selection records which option won and how it was chosen.
type Selection struct {
	Index     int     `json:"index"`
	SubOption int     `json:"sub_option"`
	Policy    string  `json:"policy"`
	Price     float64 `json:"price,omitempty"`
	Priced    bool    `json:"priced"`
}

// SelectionFromOutcome converts a ranker outcome for the report. Nil in,
// nil out.
func SelectionFromOutcome(out *selection.Outcome) *Selection {
	if out == nil {
		return nil
	}
	return &Selection{
		Index:     out.Index,
		SubOption: out.SubOption,
		Policy:    string(out.Policy),
		Price:     out.Price,
		Priced:    out.Priced,
	}
}

// EngineRun is the full record of one engine's walk through the funnel.
type EngineRun struct {
	Engine    string       `json:"engine"`
	Outcome   RunOutcome   `json:"outcome"`
	Steps     []StepResult `json:"steps"`
	Selection *Selection   `json:"selection,omitempty"`
	// Dismissals counts consent overlays clicked away during the run.
	Dismissals int    `json:"overlay_dismissals"`
	Error      string `json:"error,omitempty"`
	ElapsedMS  int64  `json:"elapsed_ms"`
}

// Completed reports whether the run reached the checkpoint.
func (r EngineRun) Completed() bool { return r.Outcome == RunCompleted }

// Itinerary is the search that was executed, with dates resolved.
type Itinerary struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Departure   string `json:"departure"`
	Return      string `json:"return,omitempty"`
	Travellers  int    `json:"travellers"`
	Cabin       string `json:"cabin,omitempty"`
}

// ItineraryFromQuery flattens a search query for the report.
func ItineraryFromQuery(q pages.Query, cabin string) Itinerary {
	it := Itinerary{
		Origin:      q.Origin,
		Destination: q.Destination,
		Departure:   q.Departure.Format("2006-01-02"),
		Travellers:  q.Travellers,
		Cabin:       cabin,
	}
	if !q.Return.IsZero() {
		it.Return = q.Return.Format("2006-01-02")
	}
	return it
}

// RunReport is the artifact for one invocation: the itinerary plus one
// EngineRun per configured engine.
type RunReport struct {
	RunID      string      `json:"run_id"`
	TargetURL  string      `json:"target_url"`
	Itinerary  Itinerary   `json:"itinerary"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Runs       []EngineRun `json:"runs"`
}

// AllCompleted reports whether every engine run reached the checkpoint.
func (r *RunReport) AllCompleted() bool {
	if len(r.Runs) == 0 {
		return false
	}
	for _, run := range r.Runs {
		if !run.Completed() {
			return false
		}
	}
	return true
}
