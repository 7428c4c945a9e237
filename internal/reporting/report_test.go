// File: internal/reporting/report_test.go
package reporting

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/farescout-cli/internal/funnel/pages"
	"github.com/xkilldash9x/farescout-cli/internal/funnel/selection"
)

func sampleReport() *RunReport {
	started := time.Date(2026, time.March, 22, 14, 5, 9, 0, time.UTC)
	return &RunReport{
		RunID:     "1f2e3d4c-5b6a-7988-9900-aabbccddeeff",
		TargetURL: "https://booking.example.com",
		Itinerary: Itinerary{
			Origin:      "YYZ",
			Destination: "NRT",
			Departure:   "2026-04-12",
			Return:      "2026-04-19",
			Travellers:  2,
		},
		StartedAt:  started,
		FinishedAt: started.Add(94 * time.Second),
		Runs: []EngineRun{
			{
				Engine:  "chromedp",
				Outcome: RunCompleted,
				Steps: []StepResult{
					{Name: "search", Status: StepCompleted, Strategy: "role:searchbox[name~(?i)(from|origin)]", ElapsedMS: 1250},
					{Name: "results", Status: StepCompleted, Strategy: "css:.fare-card", ElapsedMS: 8100},
					{Name: "seats", Status: StepSkipped, ElapsedMS: 30000},
					{Name: "payment", Status: StepCompleted, Strategy: "url~(?i)(payment|checkout|purchase|pay)", ElapsedMS: 2300},
				},
				Selection:  &Selection{Index: 2, SubOption: 1, Policy: "price-ranked", Price: 245.5, Priced: true},
				Dismissals: 1,
				ElapsedMS:  94000,
			},
		},
	}
}

func TestSelectionFromOutcome(t *testing.T) {
	require.Nil(t, SelectionFromOutcome(nil))

	got := SelectionFromOutcome(&selection.Outcome{
		Index:     3,
		SubOption: -1,
		Policy:    selection.PolicyBadgeFallback,
		Priced:    false,
	})
	require.Equal(t, &Selection{Index: 3, SubOption: -1, Policy: "badge-fallback"}, got)
}

func TestItineraryFromQuery(t *testing.T) {
	dep := time.Date(2026, time.April, 12, 0, 0, 0, 0, time.UTC)

	t.Run("Round Trip", func(t *testing.T) {
		it := ItineraryFromQuery(pages.Query{
			Origin: "YYZ", Destination: "NRT",
			Departure: dep, Return: dep.AddDate(0, 0, 7),
			Travellers: 2,
		}, "business")
		require.Equal(t, "2026-04-12", it.Departure)
		require.Equal(t, "2026-04-19", it.Return)
		require.Equal(t, "business", it.Cabin)
	})

	t.Run("One Way Omits Return", func(t *testing.T) {
		it := ItineraryFromQuery(pages.Query{Origin: "YYZ", Destination: "NRT", Departure: dep, Travellers: 1}, "")
		require.Empty(t, it.Return)
	})
}

func TestAllCompleted(t *testing.T) {
	report := sampleReport()
	require.True(t, report.AllCompleted())

	report.Runs = append(report.Runs, EngineRun{Engine: "playwright", Outcome: RunAborted})
	require.False(t, report.AllCompleted())

	require.False(t, (&RunReport{}).AllCompleted())
}

func TestWriter(t *testing.T) {
	t.Run("Writes A Readable Artifact", func(t *testing.T) {
		dir := t.TempDir()
		w := NewWriter(dir, zaptest.NewLogger(t))

		path, err := w.Write(sampleReport())
		require.NoError(t, err)
		require.Equal(t, dir, filepath.Dir(path))
		require.Equal(t, "farescout-20260322-140509-1f2e3d4c.json", filepath.Base(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var got RunReport
		require.NoError(t, json.Unmarshal(data, &got))
		if diff := cmp.Diff(*sampleReport(), got); diff != "" {
			t.Fatalf("artifact roundtrip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Creates The Directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "reports")
		w := NewWriter(dir, zaptest.NewLogger(t))

		path, err := w.Write(sampleReport())
		require.NoError(t, err)
		require.FileExists(t, path)
	})

	t.Run("Rejects Nil Reports", func(t *testing.T) {
		w := NewWriter(t.TempDir(), zaptest.NewLogger(t))
		_, err := w.Write(nil)
		require.Error(t, err)
	})
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, sampleReport())

	out := buf.String()
	require.Contains(t, out, "chromedp")
	require.Contains(t, out, "completed")
	require.Contains(t, out, "245.50")
	require.Contains(t, out, "price-ranked")
	require.Contains(t, out, "3/4")
}

func TestWriteSteps(t *testing.T) {
	var buf bytes.Buffer
	WriteSteps(&buf, sampleReport().Runs[0])

	out := buf.String()
	for _, stage := range []string{"search", "results", "seats", "payment"} {
		require.Contains(t, out, stage)
	}
	require.Contains(t, out, "skipped")
	require.True(t, strings.Contains(out, "role:searchbox"))
}
