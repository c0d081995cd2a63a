// Package export renders page views as XLSX workbooks.
package export

import (
	"errors"
	"fmt"

	"github.com/stwalsh4118/mppl/dashboard/internal/aggregate"
	"github.com/stwalsh4118/mppl/dashboard/internal/models"
	"github.com/stwalsh4118/mppl/dashboard/internal/pages"
	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of the workbooks produced here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names.
const (
	ConnectionsSheet  = "Connections"
	FiltersSheet      = "Filters"
	ApplicationsSheet = "Applications"
)

// ErrNotLoaded is returned when exporting a chart that has no data yet.
var ErrNotLoaded = errors.New("chart data has not been loaded")

// GridWorkbook writes the displayed rows of view under their column labels,
// plus a sheet describing the filters that produced them.
func GridWorkbook(view pages.GridView) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", ConnectionsSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(view.Columns))
	for i, col := range view.Columns {
		header[i] = col.Label
	}
	if err := f.SetSheetRow(ConnectionsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range view.Rows {
		row := make([]interface{}, len(view.Columns))
		for j, col := range view.Columns {
			row[j] = cellValue(r, col.Key)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(ConnectionsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if _, err := f.NewSheet(FiltersSheet); err != nil {
		return nil, fmt.Errorf("failed to add filters sheet: %w", err)
	}
	summary := [][]interface{}{
		{"Search", view.Criteria.Search},
		{"From", optionalDate(view.Criteria.Range.Start)},
		{"To", optionalDate(view.Criteria.Range.End)},
		{"Page size", int(view.PageSize)},
		{"Matched", view.Matched},
		{"Total", view.Total},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(FiltersSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write filters: %w", err)
		}
	}

	return write(f)
}

// ChartWorkbook writes the monthly counts of view and a column chart of them.
func ChartWorkbook(view pages.ChartView) ([]byte, error) {
	if view.Buckets == nil {
		return nil, ErrNotLoaded
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", ApplicationsSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"Month", seriesName(view.Filter)}
	if err := f.SetSheetRow(ApplicationsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, mc := range view.Buckets {
		row := []interface{}{mc.Month, mc.Count}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(ApplicationsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", mc.Month, err)
		}
	}

	last := len(view.Buckets) + 1
	sheet := "'" + ApplicationsSheet + "'"
	err := f.AddChart(ApplicationsSheet, "D2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", sheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", sheet, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Applications per month"}},
		Legend: excelize.ChartLegend{Position: "bottom"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add chart: %w", err)
	}

	return write(f)
}

// GridFilename names the grid download of a page session.
func GridFilename(sessionID string) string {
	return fmt.Sprintf("connections-%s.xlsx", sessionID)
}

// ChartFilename names the chart download of a page session.
func ChartFilename(sessionID string) string {
	return fmt.Sprintf("applications-%s.xlsx", sessionID)
}

func write(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func cellValue(r models.ConnectionRecord, key string) interface{} {
	switch key {
	case "id":
		return r.ID
	case "loadApplied":
		return r.LoadApplied
	}
	return r.Value(key)
}

func optionalDate(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func seriesName(filter string) string {
	if filter == "" || filter == aggregate.StatusAll {
		return "Applications"
	}
	return filter + " applications"
}
