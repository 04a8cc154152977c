package audit

import (
	"encoding/csv"
	"io"
	"slices"
	"time"
)

// CSVHeader is the column layout written by WriteCSV.
var CSVHeader = []string{
	"timestamp", "request_id", "document", "event", "details", "ai_result", "user_decision",
}

// WriteCSV writes events in chronological order.
func WriteCSV(w io.Writer, events []Event) error {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b Event) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, e := range sorted {
		row := []string{
			e.Timestamp.Format(time.DateTime),
			e.RequestID.String(),
			e.Filename,
			e.Type,
			e.Details,
			e.AIResult,
			e.UserDecision,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
