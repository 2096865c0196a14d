package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/leapstack-labs/leapview/internal/export"
	"github.com/leapstack-labs/leapview/pkg/core"
)

// Grid writes plain rows under a header. In JSON mode each row becomes an
// object keyed by header.
func (r *Renderer) Grid(headers []string, rows [][]string) error {
	if r.EffectiveMode() == ModeJSON {
		objs := make([]map[string]string, len(rows))
		for i, row := range rows {
			obj := make(map[string]string, len(headers))
			for j, h := range headers {
				if j < len(row) {
					obj[h] = row[j]
				}
			}
			objs[i] = obj
		}
		return r.JSON(objs)
	}

	tw := r.newTable(headers)
	for _, row := range rows {
		tw.AppendRow(toRow(row))
	}
	r.render(tw)
	return nil
}

// Records writes the rows of a query result, followed by a line with the
// match count and page. Statistics are rendered separately with Stats.
func (r *Renderer) Records(t *core.Table) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(t)
	case ModeCSV:
		return export.WriteCSV(r.w, t)
	}

	tw := r.newTable(columnLabels(t.Columns))
	aligns := make([]table.ColumnConfig, 0, len(t.Columns))
	for i, c := range t.Columns {
		if c.Kind == core.KindNumber {
			aligns = append(aligns, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	tw.SetColumnConfigs(aligns)
	for _, row := range t.Rows {
		cells := make(table.Row, len(row))
		for i, v := range row {
			cells[i] = r.format.Value(v)
		}
		tw.AppendRow(cells)
	}
	r.render(tw)

	summary := fmt.Sprintf("%s of %s records", r.format.Number(float64(t.Matched), 0), r.format.Number(float64(t.Total), 0))
	if t.Page.Pages > 1 {
		summary += fmt.Sprintf(", page %d of %d", t.Page.Page, t.Page.Pages)
	}
	if !t.Sort.IsZero() {
		summary += ", sorted by " + t.Sort.String()
	}
	r.Println()
	r.Muted(summary)
	return nil
}

// Stats writes computed statistics. On a terminal they render as cards;
// elsewhere as a two-column table. Group breakdowns follow as tables.
func (r *Renderer) Stats(stats []core.Statistic) error {
	if len(stats) == 0 {
		return nil
	}
	mode := r.EffectiveMode()
	if mode == ModeJSON {
		return r.JSON(stats)
	}

	if mode == ModeText {
		r.Println(r.cards(stats))
	} else {
		tw := r.newTable([]string{"Statistic", "Value"})
		for _, s := range stats {
			tw.AppendRow(table.Row{s.Label, r.format.Stat(s)})
		}
		r.render(tw)
	}

	for _, s := range stats {
		if len(s.Groups) == 0 {
			continue
		}
		r.Println()
		r.Header(2, s.Label)
		tw := r.newTable([]string{"Group", "Count", "Sum"})
		for _, g := range s.Groups {
			tw.AppendRow(table.Row{g.Key, r.format.Number(float64(g.Count), 0), r.format.Format(g.Sum, s.Format)})
		}
		r.render(tw)
	}
	return nil
}

// Changes writes the difference between two snapshots.
func (r *Renderer) Changes(changes []core.StatChange) error {
	if r.EffectiveMode() == ModeJSON {
		return r.JSON(changes)
	}
	tw := r.newTable([]string{"Statistic", "Before", "After", "Change"})
	for _, c := range changes {
		before, after := "", ""
		if c.Change != core.ChangeAdded {
			before = r.format.Format(c.Before, c.Format)
		}
		if c.Change != core.ChangeRemoved {
			after = r.format.Format(c.After, c.Format)
		}
		change := r.format.Change(c)
		if r.EffectiveMode() == ModeText && c.Change == core.ChangeChanged {
			if c.Delta > 0 {
				change = r.styles.Positive.Render(change)
			} else {
				change = r.styles.Negative.Render(change)
			}
		}
		tw.AppendRow(table.Row{c.Label, before, after, change})
	}
	r.render(tw)
	return nil
}

func (r *Renderer) cards(stats []core.Statistic) string {
	boxes := make([]string, len(stats))
	for i, s := range stats {
		boxes[i] = r.styles.Card.Render(
			r.styles.CardName.Render(s.Label) + "\n" + r.styles.CardText.Render(r.format.Stat(s)),
		)
	}
	// Wrap cards four to a row.
	var rows []string
	for i := 0; i < len(boxes); i += 4 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes[i:min(i+4, len(boxes))]...))
	}
	return strings.Join(rows, "\n")
}

func (r *Renderer) newTable(headers []string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(toRow(headers))
	return tw
}

func (r *Renderer) render(tw table.Writer) {
	var out string
	switch r.EffectiveMode() {
	case ModeMarkdown:
		out = tw.RenderMarkdown()
	case ModeCSV:
		out = tw.RenderCSV()
	default:
		out = tw.Render()
	}
	r.Println(out)
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func columnLabels(cols []core.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Label
		if out[i] == "" {
			out[i] = c.Name
		}
	}
	return out
}
