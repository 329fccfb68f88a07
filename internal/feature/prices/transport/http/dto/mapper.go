package dto

import (
	"time"

	"stockpulse/internal/feature/prices/domain/entity"
	"stockpulse/internal/feature/prices/usecase"
)

// FromRunSummary converts a run summary for JSON output. runErr is the run-level error, if any.
func FromRunSummary(s usecase.RunSummary, runErr error) RunSummaryResponse {
	out := RunSummaryResponse{
		RunID:      s.RunID,
		StartedAt:  s.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: s.FinishedAt.UTC().Format(time.RFC3339),
		Failed:     s.Failed(),
		Results:    make([]TickerResultResponse, 0, len(s.Results)),
	}
	if runErr != nil {
		out.Aborted = runErr.Error()
	}

	for _, r := range s.Results {
		tr := TickerResultResponse{
			Symbol:     r.Symbol,
			Fetched:    r.Fetched,
			Created:    r.Created,
			Updated:    r.Updated,
			Rejected:   make([]string, 0, len(r.Rejected)),
			Notified:   r.Notified,
			Suppressed: r.Suppressed,
			Skipped:    r.Skipped,
		}
		for _, rej := range r.Rejected {
			tr.Rejected = append(tr.Rejected, rej.Error())
		}
		if a := r.Alert; a != nil {
			tr.Alert = &AlertResponse{
				Direction:     string(a.Direction),
				ChangePercent: a.DisplayPercent().StringFixed(2),
				PreviousClose: a.PreviousClose.StringFixed(2),
				LatestClose:   a.LatestClose.StringFixed(2),
				LatestDate:    a.LatestDate.UTC().Format(entity.DateLayout),
			}
		}
		if r.NotifyErr != nil {
			tr.NotifyError = r.NotifyErr.Error()
		}
		if r.Err != nil {
			tr.Error = r.Err.Error()
		}
		out.Results = append(out.Results, tr)
	}
	return out
}
