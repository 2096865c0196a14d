package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/leapview/pkg/core"
)

const (
	dataSheet  = "Data"
	statsSheet = "Statistics"
	dateFormat = "yyyy-mm-dd"
)

// WriteXLSX writes t as a workbook with a data sheet and, when t carries
// statistics, a statistics sheet. Numbers and dates are written as typed
// cells; unparseable dates keep their original text.
func WriteXLSX(w io.Writer, t *core.Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	numFmt := dateFormat
	date, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeData(f, t, header, date); err != nil {
		return err
	}
	if len(t.Stats) > 0 {
		if err := writeStats(f, t.Stats, header); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeData(f *excelize.File, t *core.Table, header, date int) error {
	labels := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		labels[i] = c.Label
	}
	if err := f.SetSheetRow(dataSheet, "A1", &labels); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(dataSheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
		// SetSheetRow writes excelize.Cell through fmt, so date styles are
		// applied cell by cell.
		for j, v := range row {
			if v.Kind != core.KindDate || !v.Valid {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(dataSheet, ref, ref, date); err != nil {
				return fmt.Errorf("failed to style date %s: %w", ref, err)
			}
		}
	}

	if len(t.Columns) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(t.Columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(dataSheet, "A1", last, header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	end, err := excelize.CoordinatesToCellName(len(t.Columns), len(t.Rows)+1)
	if err != nil {
		return err
	}
	if err := f.AutoFilter(dataSheet, "A1:"+end, nil); err != nil {
		return fmt.Errorf("failed to add filter: %w", err)
	}
	return f.SetPanes(dataSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cellValue converts a value to a typed cell value.
func cellValue(v core.Value) any {
	if !v.Valid {
		return v.Display()
	}
	switch v.Kind {
	case core.KindNumber:
		return v.Num
	case core.KindBool:
		return v.Bool
	case core.KindDate:
		return v.Time
	default:
		return v.Str
	}
}

func writeStats(f *excelize.File, stats []core.Statistic, header int) error {
	if _, err := f.NewSheet(statsSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	rows := [][]any{{"Statistic", "Value", "Count"}}
	for _, st := range stats {
		rows = append(rows, []any{st.Label, st.Value, nil})
		if st.Kind == core.StatDelta {
			rows = append(rows, []any{st.Label + " (baseline)", st.Baseline, nil})
			rows = append(rows, []any{st.Label + " (change %)", st.DeltaPercent, nil})
		}
		for _, g := range st.Groups {
			var value any = g.Count
			if st.Kind == core.StatGroupSum {
				value = g.Sum
			}
			rows = append(rows, []any{"  " + g.Key, value, g.Count})
		}
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(statsSheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write statistics: %w", err)
		}
	}
	if err := f.SetCellStyle(statsSheet, "A1", "C1", header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return f.SetColWidth(statsSheet, "A", "A", 32)
}
