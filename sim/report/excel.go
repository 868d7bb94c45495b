package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/facmaker/facmaker/sim"
)

const (
	summarySheet  = "Summary"
	machinesSheet = "Machines"
	seriesSheet   = "Series"
)

// WriteXLSX writes a workbook with the summary, the machine counters and one column of
// stock levels per item (one row per tick).
func WriteXLSX(w io.Writer, s *Summary, c *sim.Cache) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if err := writeSummarySheet(f, s, headerStyle); err != nil {
		return err
	}
	if _, err := f.NewSheet(machinesSheet); err != nil {
		return err
	}
	if err := writeMachinesSheet(f, s, headerStyle); err != nil {
		return err
	}
	if _, err := f.NewSheet(seriesSheet); err != nil {
		return err
	}
	if err := writeSeriesSheet(f, s, c, headerStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, row int, style int, headers ...any) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(headers), row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, start, &headers); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, style)
}

func writeSummarySheet(f *excelize.File, s *Summary, style int) error {
	if err := f.SetCellValue(summarySheet, "A1", "Ticks simulated"); err != nil {
		return err
	}
	if err := f.SetCellValue(summarySheet, "B1", s.Horizon); err != nil {
		return err
	}
	if err := f.SetCellValue(summarySheet, "A2", "Operations in flight"); err != nil {
		return err
	}
	if err := f.SetCellValue(summarySheet, "B2", s.InFlight); err != nil {
		return err
	}

	if err := writeHeader(f, summarySheet, 4, style, "ID", "Item", "Role", "Start", "Final", "Max", "Max tick", "Net per tick"); err != nil {
		return err
	}
	for i, it := range s.Items {
		cell, _ := excelize.CoordinatesToCellName(1, 5+i)
		rate, _ := it.NetRate.Float64()
		row := []any{uint32(it.ID), it.Name, it.Role, it.Start, it.Final, it.Max, it.MaxTick, rate}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeMachinesSheet(f *excelize.File, s *Summary, style int) error {
	if err := writeHeader(f, machinesSheet, 1, style, "ID", "Machine", "Dispatches", "Completions", "Busy ticks", "Utilization"); err != nil {
		return err
	}
	for i, m := range s.Machines {
		cell, _ := excelize.CoordinatesToCellName(1, 2+i)
		util, _ := m.Utilization.Float64()
		row := []any{uint32(m.ID), m.Name, m.Dispatches, m.Completions, m.BusyTicks, util}
		if err := f.SetSheetRow(machinesSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeSeriesSheet(f *excelize.File, s *Summary, c *sim.Cache, style int) error {
	headers := []any{"Tick"}
	var columns []sim.SeriesReader
	for _, it := range s.Items {
		series, ok := c.Series(it.ID)
		if !ok {
			continue
		}
		headers = append(headers, it.Name)
		columns = append(columns, series)
	}
	if s.Horizon+2 > excelize.TotalRows {
		return fmt.Errorf("%d ticks do not fit in one sheet (max %d rows)", s.Horizon+1, excelize.TotalRows-1)
	}

	sw, err := f.NewStreamWriter(seriesSheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", headers, excelize.RowOpts{StyleID: style}); err != nil {
		return err
	}
	row := make([]any, len(columns)+1)
	for tick := int64(0); tick <= s.Horizon; tick++ {
		row[0] = tick
		for i, col := range columns {
			row[i+1] = col.At(tick)
		}
		cell, err := excelize.CoordinatesToCellName(1, int(tick)+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}
