package report

import (
	"fmt"
	"io"

	"github.com/superbmd/superbmd/internal/query"
	"github.com/xuri/excelize/v2"
)

// Table is a report rendered as a header row plus data rows
type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]interface{}
}

// LocationTable renders the by-location report
func LocationTable(rows []LocationRow) Table {
	t := Table{
		Sheet:   "Aset per Lokasi",
		Headers: []string{"Kode Lokasi", "Nama Lokasi", "Total Aset", "Baik", "Rusak Ringan", "Rusak Berat"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{r.LocationCode, r.LocationName, r.TotalAssets, r.Good, r.LightDamage, r.HeavyDamage})
	}
	return t
}

// ConditionTable renders the by-condition report
func ConditionTable(rows []ConditionRow) Table {
	t := Table{
		Sheet:   "Aset per Kondisi",
		Headers: []string{"Kondisi", "Total Aset"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{r.Label, r.TotalAssets})
	}
	return t
}

// InOutTable renders the in/out activity report
func InOutTable(rows []InOutRow) Table {
	t := Table{
		Sheet:   "Aset Masuk-Keluar",
		Headers: []string{"Tanggal", "Tipe Transaksi", "Kode Barang", "Nama Barang", "Lokasi", "Kondisi Lama", "Kondisi Baru"},
	}
	for _, r := range rows {
		old := "-"
		if r.OldCondition != nil {
			old = r.OldCondition.Label()
		}
		t.Rows = append(t.Rows, []interface{}{
			r.Date.Format(query.DateLayout), r.Type, r.AssetCode, r.AssetName, r.Location, old, r.NewCondition.Label(),
		})
	}
	return t
}

// WriteXLSX writes the table as a single-sheet workbook with a bold frozen header
func (t Table) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", t.Sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range t.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(t.Sheet, cell, h); err != nil {
			return err
		}
	}
	if len(t.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
		if err := f.SetCellStyle(t.Sheet, "A1", last, headerStyle); err != nil {
			return err
		}
		if err := f.AutoFilter(t.Sheet, "A1:"+last, []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
		if err := f.SetPanes(t.Sheet, &excelize.Panes{Freeze: true, Split: true, YSplit: 1}); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(t.Sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
