package output

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/leapview/pkg/core"
)

// Aging writes a receivables aging report.
func (r *Renderer) Aging(rep *core.AgingReport) error {
	if r.EffectiveMode() == ModeJSON {
		return r.JSON(rep)
	}

	r.Header(1, "Aging as of "+rep.AsOf.Format(core.DateLayout))
	tw := r.newTable([]string{"Bucket", "Count", "Amount"})
	for _, b := range rep.Buckets {
		tw.AppendRow(table.Row{b.Label, r.format.Number(float64(b.Count), 0), r.format.Currency(b.Amount)})
	}
	tw.AppendFooter(table.Row{"Total", r.format.Number(float64(rep.Count), 0), r.format.Currency(rep.Amount)})
	r.render(tw)

	if r.EffectiveMode() != ModeCSV {
		r.KeyValue("Overdue", fmt.Sprintf("%d records, %s", rep.OverdueCount, r.format.Currency(rep.OverdueAmount)))
		if rep.Undated > 0 {
			r.Warning(fmt.Sprintf("%d records have no valid due date", rep.Undated))
		}
	}

	if len(rep.Groups) == 0 {
		return nil
	}
	r.Println()
	headers := []string{"Group"}
	for _, b := range rep.Buckets {
		headers = append(headers, b.Label)
	}
	headers = append(headers, "Total")
	tw = r.newTable(headers)
	for _, g := range rep.Groups {
		row := table.Row{g.Key}
		for _, a := range g.Amounts {
			row = append(row, r.format.Currency(a))
		}
		row = append(row, r.format.Currency(g.Total))
		tw.AppendRow(row)
	}
	r.render(tw)
	return nil
}

// SLA writes a deadline report.
func (r *Renderer) SLA(rep *core.SLAReport) error {
	if r.EffectiveMode() == ModeJSON {
		return r.JSON(rep)
	}

	r.Header(1, "SLA as of "+rep.AsOf.Format(core.DateLayout))
	tw := r.newTable([]string{"State", "Count"})
	tw.AppendRow(table.Row{"On track", strconv.Itoa(rep.OnTrack)})
	tw.AppendRow(table.Row{fmt.Sprintf("At risk (<= %d days)", rep.WarnDays), strconv.Itoa(rep.AtRisk)})
	tw.AppendRow(table.Row{"Breached", strconv.Itoa(rep.Breached)})
	if rep.Undated > 0 {
		tw.AppendRow(table.Row{"No deadline", strconv.Itoa(rep.Undated)})
	}
	r.render(tw)

	if len(rep.Items) == 0 {
		return nil
	}
	r.Println()
	tw = r.newTable([]string{"Record", "Deadline", "Remaining", "State"})
	for _, it := range rep.Items {
		tw.AppendRow(table.Row{
			it.Key,
			it.Deadline.Format(core.DateLayout),
			r.format.Format(float64(it.Remaining), core.FormatDays),
			it.State,
		})
	}
	r.render(tw)
	return nil
}
