package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"fastrack/internal/auth"
	tracking "fastrack/internal/tracking/domain"
	"fastrack/internal/tracking/infrastructure/memory"
)

var serviceNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func validSession() auth.Session {
	return auth.Session{Subject: auth.SharedSubject, IssuedAt: serviceNow, ExpiresAt: serviceNow.Add(time.Hour)}
}

func acmeStore(rows ...[]string) *memory.EventStore {
	process := [][]string{{"1", "01/01/2024", "08:00", "ENTREGA", "ACME", "CLIENTE"}}
	process = append(process, rows...)
	details := [][]string{{"1", "555", "OXIGENO"}}
	if len(rows) > 0 {
		details = append(details, []string{"2", "555", "OXIGENO"})
	}
	return memory.NewEventStore(
		tracking.Table{
			Name:   tracking.SheetProcess,
			Header: []string{"IDPROC", "FECHA", "HORA", "PROCESO", "CLIENTE", "UBICACION"},
			Rows:   process,
		},
		tracking.Table{
			Name:   tracking.SheetDetail,
			Header: []string{"IDPROC", "SERIE", "SERVICIO"},
			Rows:   details,
		},
	)
}

func newService(t *testing.T, store tracking.EventStore, now time.Time) *ReportService {
	t.Helper()
	service, err := NewReportService(store, WithClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestAcmeDeliveryLifecycle(t *testing.T) {
	ctx := context.Background()
	service := newService(t, acmeStore(), serviceNow)

	report, err := service.CylindersByCustomer(ctx, validSession(), "ACME")
	if err != nil {
		t.Fatalf("customer report: %v", err)
	}
	if len(report.Rows) != 1 || report.Rows[0][0] != "555" {
		t.Fatalf("expected cylinder 555 at ACME, got %v", report.Rows)
	}
	if report.FileName("csv") != "cilindros_ACME.csv" {
		t.Fatalf("unexpected file name %q", report.FileName("csv"))
	}

	overdue, err := service.OverdueCylinders(ctx, validSession())
	if err != nil {
		t.Fatalf("overdue report: %v", err)
	}
	if len(overdue.Rows) != 1 {
		t.Fatalf("expected cylinder 555 overdue, got %v", overdue.Rows)
	}

	returned := newService(t, acmeStore([]string{"2", "01/02/2024", "09:00", "RECEPCION", "", "LOCAL"}), serviceNow)
	report, err = returned.CylindersByCustomer(ctx, validSession(), "ACME")
	if err != nil {
		t.Fatalf("customer report: %v", err)
	}
	if !report.Empty() || report.Warning == "" {
		t.Fatalf("returned cylinder should leave ACME, got %v", report.Rows)
	}
	overdue, err = returned.OverdueCylinders(ctx, validSession())
	if err != nil {
		t.Fatalf("overdue report: %v", err)
	}
	if !overdue.Empty() {
		t.Fatalf("returned cylinder should not be overdue, got %v", overdue.Rows)
	}
}

func TestReportColumnsFollowMode(t *testing.T) {
	ctx := context.Background()
	service := newService(t, acmeStore(), serviceNow)

	report, err := service.MovementsBySerial(ctx, validSession(), "555.0")
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	want := []string{"2024-01-01", "08:00", "1", "ENTREGA", "ACME", "CLIENTE", "555", "OXIGENO"}
	if len(report.Rows) != 1 {
		t.Fatalf("expected one movement, got %v", report.Rows)
	}
	for i, value := range want {
		if report.Rows[0][i] != value {
			t.Fatalf("column %s: expected %q, got %q", report.Columns[i], value, report.Rows[0][i])
		}
	}
	if report.Mode != ModeMovements || report.ID == "" || !report.GeneratedAt.Equal(serviceNow) {
		t.Fatalf("unexpected report metadata: %+v", report)
	}

	location, err := service.CylindersByLocation(ctx, validSession(), "cliente")
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if location.FileBase != "Ultimo_Movimiento_cliente" || len(location.Rows) != 1 {
		t.Fatalf("unexpected location report: %+v", location)
	}
}

func TestRejectsInvalidSessions(t *testing.T) {
	ctx := context.Background()
	service := newService(t, acmeStore(), serviceNow)

	if _, err := service.OverdueCylinders(ctx, auth.Session{}); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	expired := validSession()
	expired.ExpiresAt = serviceNow
	if _, err := service.Customers(ctx, expired); !errors.Is(err, auth.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestValidatesInputsBeforeLoading(t *testing.T) {
	ctx := context.Background()
	store := acmeStore()
	store.Fail(errors.New("offline"))
	service := newService(t, store, serviceNow)

	if _, err := service.MovementsBySerial(ctx, validSession(), " , "); !errors.Is(err, tracking.ErrEmptySerial) {
		t.Fatalf("expected ErrEmptySerial, got %v", err)
	}
	if _, err := service.CylindersByCustomer(ctx, validSession(), ""); !errors.Is(err, tracking.ErrEmptyCustomer) {
		t.Fatalf("expected ErrEmptyCustomer, got %v", err)
	}
	if _, err := service.CylindersByLocation(ctx, validSession(), "  "); !errors.Is(err, tracking.ErrEmptyLocation) {
		t.Fatalf("expected ErrEmptyLocation, got %v", err)
	}
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if _, err := service.MovementsByDateRange(ctx, validSession(), start, start.AddDate(0, 0, -1)); !errors.Is(err, tracking.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := service.OverdueCylinders(ctx, validSession()); !errors.Is(err, tracking.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

type plainErrorStore struct{}

func (plainErrorStore) Load(context.Context, string) (tracking.Table, error) {
	return tracking.Table{}, errors.New("boom")
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	service := newService(t, plainErrorStore{}, serviceNow)
	if _, err := service.Locations(context.Background(), validSession()); !errors.Is(err, tracking.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestMissingColumnsAreReported(t *testing.T) {
	store := acmeStore()
	store.Put(tracking.Table{Name: tracking.SheetProcess, Header: []string{"IDPROC", "FECHA"}})
	service := newService(t, store, serviceNow)
	_, err := service.OverdueCylinders(context.Background(), validSession())
	var missing *tracking.MissingColumnsError
	if !errors.As(err, &missing) || missing.Sheet != tracking.SheetProcess {
		t.Fatalf("expected MissingColumnsError for PROCESO, got %v", err)
	}
}

func TestNewReportServiceValidates(t *testing.T) {
	if _, err := NewReportService(nil); err == nil {
		t.Fatalf("expected error for nil store")
	}
	bad := tracking.DefaultPolicy()
	bad.OverdueAfter = 0
	if _, err := NewReportService(acmeStore(), WithPolicy(bad)); !errors.Is(err, tracking.ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}
}

func TestFileNameSanitizes(t *testing.T) {
	report := &Report{FileBase: "cilindros_A/B:C"}
	if got := report.FileName(".pdf"); got != "cilindros_A_B_C.pdf" {
		t.Fatalf("unexpected file name %q", got)
	}
	var empty *Report
	if got := empty.FileName("csv"); got != "reporte.csv" {
		t.Fatalf("unexpected default file name %q", got)
	}
	if mode, ok := ParseMode(" Overdue "); !ok || mode != ModeOverdue {
		t.Fatalf("expected overdue mode, got %q", mode)
	}
}
