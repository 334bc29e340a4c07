package interfaces

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"fastrack/internal/tracking/application"
)

func sampleReport() *application.Report {
	return &application.Report{
		ID:       "r-1",
		Mode:     application.ModeCustomer,
		Title:    "Cilindros actualmente en el cliente: Compañía",
		FileBase: "cilindros_Compañía",
		Columns:  []string{"SERIE", "IDPROC", "FECHA"},
		Rows: [][]string{
			{"12345", "10", "2024-02-05"},
			{"67890", "11", "2024-02-06"},
		},
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildReportCSV(t *testing.T) {
	data, err := BuildReportCSV(sampleReport())
	if err != nil {
		t.Fatalf("build csv: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 || records[0][0] != "SERIE" || records[2][0] != "67890" {
		t.Fatalf("unexpected records: %v", records)
	}
}

func TestBuildReportXLSX(t *testing.T) {
	data, err := BuildReportXLSX(sampleReport())
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("reporte")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 || rows[0][1] != "IDPROC" || rows[1][0] != "12345" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestBuildReportPDF(t *testing.T) {
	report := sampleReport()
	report.Rows = nil
	report.Warning = "El cliente no tiene cilindros pendientes de devolución."
	data, err := BuildReportPDF(report)
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected pdf header")
	}
}

func TestBuildReportRejectsUnknownFormat(t *testing.T) {
	if _, err := BuildReport("docx", sampleReport()); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if ContentType(FormatCSV) != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected csv content type")
	}
}
