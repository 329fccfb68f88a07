package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"stockpulse/internal/feature/analytics/domain/entity"
	priceentity "stockpulse/internal/feature/prices/domain/entity"
	"stockpulse/internal/feature/prices/usecase"
)

// printSummary は銘柄ごとの結果を表形式で出力します。
func printSummary(out io.Writer, s usecase.RunSummary) {
	if s.RunID == "" {
		return
	}
	fmt.Fprintf(out, "run %s (%s)\n", s.RunID, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tFETCHED\tCREATED\tUPDATED\tREJECTED\tALERT\tSTATUS")
	for _, r := range s.Results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.Symbol, r.Fetched, r.Created, r.Updated, len(r.Rejected), alertCell(r), statusCell(r))
	}
	_ = w.Flush()
	fmt.Fprintf(out, "%d of %d tickers failed\n", s.Failed(), len(s.Results))
}

func alertCell(r usecase.TickerResult) string {
	if r.Alert == nil {
		return "-"
	}
	cell := r.Alert.DisplayPercent().StringFixed(2) + "%"
	switch {
	case r.Suppressed:
		cell += " (already sent)"
	case r.NotifyErr != nil:
		cell += " (notify failed)"
	case r.Notified:
		cell += " (sent)"
	}
	return cell
}

func statusCell(r usecase.TickerResult) string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.Err != nil:
		return "error: " + r.Err.Error()
	default:
		return "ok"
	}
}

func printAnalysis(out io.Writer, symbol string, avg *decimal.Decimal, dyn *entity.Dynamics, mm *entity.MinMax) {
	fmt.Fprintf(out, "--- analysis for %s ---\n", symbol)

	if avg != nil {
		fmt.Fprintf(out, "average close, last %d days: $%s\n", analyzeAverageDays, avg.StringFixed(2))
	} else {
		fmt.Fprintln(out, "not enough data for the average close")
	}

	if dyn != nil {
		fmt.Fprintf(out, "\ndynamics, last %d days:\n", analyzeDynamicsDays)
		fmt.Fprintf(out, "  start (%s): $%s\n", dyn.StartDate.Format(priceentity.DateLayout), dyn.StartPrice.StringFixed(2))
		fmt.Fprintf(out, "  end   (%s): $%s\n", dyn.EndDate.Format(priceentity.DateLayout), dyn.EndPrice.StringFixed(2))
		fmt.Fprintf(out, "  change: %s$ (%s%%)\n", dyn.AbsoluteChange.StringFixed(2), dyn.PercentChange.StringFixed(2))
	} else {
		fmt.Fprintln(out, "not enough data for dynamics")
	}

	if mm != nil {
		fmt.Fprintf(out, "\nlast %d days:\n", entity.MinMaxDays)
		fmt.Fprintf(out, "  min: $%s\n", mm.Min.StringFixed(2))
		fmt.Fprintf(out, "  max: $%s\n", mm.Max.StringFixed(2))
	} else {
		fmt.Fprintln(out, "not enough data for min/max")
	}
}
