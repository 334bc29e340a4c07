package interfaces

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"fastrack/internal/tracking/application"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// ErrUnsupportedFormat is returned for unknown export formats.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// ContentType returns the MIME type for an export format.
func ContentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// BuildReport renders a report in one of the file formats.
func BuildReport(format string, report *application.Report) ([]byte, error) {
	if report == nil {
		return nil, errors.New("export: nil report")
	}
	switch format {
	case FormatCSV:
		return BuildReportCSV(report)
	case FormatXLSX:
		return BuildReportXLSX(report)
	case FormatPDF:
		return BuildReportPDF(report)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// BuildReportCSV renders the header and rows as UTF-8 CSV.
func BuildReportCSV(report *application.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(report.Columns); err != nil {
		return nil, err
	}
	if err := w.WriteAll(report.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportXLSX renders a single-sheet workbook.
func BuildReportXLSX(report *application.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "reporte"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for i, col := range report.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, col)
	}
	for r, row := range report.Rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(sheet, cell, value)
		}
	}
	if len(report.Columns) > 0 {
		last, err := excelize.ColumnNumberToName(len(report.Columns))
		if err == nil {
			_ = f.SetColWidth(sheet, "A", last, 16)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportPDF renders a landscape table with the report title.
func BuildReportPDF(report *application.Report) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, tr(report.Title))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generado: %s", report.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(8)
	if report.Warning != "" {
		pdf.Cell(0, 6, tr(report.Warning))
		pdf.Ln(8)
	}

	if len(report.Columns) > 0 {
		width, _ := pdf.GetPageSize()
		left, _, right, _ := pdf.GetMargins()
		colWidth := (width - left - right) / float64(len(report.Columns))

		pdf.SetFont("Arial", "B", 9)
		for _, col := range report.Columns {
			pdf.CellFormat(colWidth, 6, tr(col), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		for _, row := range report.Rows {
			for _, value := range row {
				pdf.CellFormat(colWidth, 6, tr(value), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
