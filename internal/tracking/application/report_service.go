package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fastrack/internal/auth"
	"fastrack/internal/observability/metrics"
	tracking "fastrack/internal/tracking/domain"
)

// Option configures a ReportService.
type Option func(*ReportService)

// WithPolicy overrides the movement classification policy.
func WithPolicy(policy tracking.Policy) Option {
	return func(s *ReportService) {
		s.policy = policy
	}
}

// WithNormalizer overrides date/time parsing.
func WithNormalizer(n tracking.Normalizer) Option {
	return func(s *ReportService) {
		s.normalizer = n
	}
}

// WithClock overrides the clock used for overdue cut-offs.
func WithClock(clock tracking.Clock) Option {
	return func(s *ReportService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger for report runs.
func WithLogger(logger *log.Logger) Option {
	return func(s *ReportService) {
		s.logger = logger
	}
}

// ReportService answers the cylinder report queries.
// Every call reloads both sheets from the store.
type ReportService struct {
	store      tracking.EventStore
	normalizer tracking.Normalizer
	policy     tracking.Policy
	clock      tracking.Clock
	logger     *log.Logger
}

// NewReportService constructs a service.
func NewReportService(store tracking.EventStore, opts ...Option) (*ReportService, error) {
	if store == nil {
		return nil, errors.New("report service: nil store")
	}
	s := &ReportService{
		store:      store,
		normalizer: tracking.NewNormalizer(nil, nil, time.UTC),
		policy:     tracking.DefaultPolicy(),
		clock:      tracking.SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.policy.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

type dataset struct {
	events  []tracking.ProcessEvent
	details []tracking.MovementDetail
}

func (d dataset) movements() []tracking.Movement {
	return tracking.Join(d.events, d.details)
}

// MovementsBySerial lists every movement of one cylinder.
func (s *ReportService) MovementsBySerial(ctx context.Context, sess auth.Session, serial string) (*Report, error) {
	if err := s.authorize(sess); err != nil {
		return nil, err
	}
	target := tracking.NormalizeSerial(serial)
	if target == "" {
		return nil, tracking.ErrEmptySerial
	}
	return s.run(ctx, ModeMovements, func(data dataset, now time.Time) (*Report, error) {
		found := tracking.ForSerial(data.movements(), target)
		return newReport(ModeMovements,
			fmt.Sprintf("Movimientos para el cilindro ID %s", target),
			"movimientos_"+target,
			"No se encontraron movimientos para el cilindro ingresado.",
			found, now), nil
	})
}

// CylindersByCustomer lists cylinders whose latest movement delivered them to customer.
func (s *ReportService) CylindersByCustomer(ctx context.Context, sess auth.Session, customer string) (*Report, error) {
	if err := s.authorize(sess); err != nil {
		return nil, err
	}
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return nil, tracking.ErrEmptyCustomer
	}
	return s.run(ctx, ModeCustomer, func(data dataset, now time.Time) (*Report, error) {
		latest := tracking.LatestBySerial(data.movements())
		found := tracking.AtCustomer(latest, customer, s.policy)
		return newReport(ModeCustomer,
			fmt.Sprintf("Cilindros actualmente en el cliente: %s", customer),
			"cilindros_"+customer,
			"El cliente no tiene cilindros pendientes de devolución.",
			found, now), nil
	})
}

// OverdueCylinders lists cylinders delivered longer ago than the policy allows and not returned.
func (s *ReportService) OverdueCylinders(ctx context.Context, sess auth.Session) (*Report, error) {
	if err := s.authorize(sess); err != nil {
		return nil, err
	}
	return s.run(ctx, ModeOverdue, func(data dataset, now time.Time) (*Report, error) {
		found := tracking.Overdue(data.movements(), now, s.policy)
		days := int(s.policy.OverdueAfter / (24 * time.Hour))
		return newReport(ModeOverdue,
			fmt.Sprintf("Cilindros entregados hace más de %d días y no retornados", days),
			"Cilindros_No_Retornados",
			fmt.Sprintf("No se encontraron cilindros entregados hace más de %d días y no retornados.", days),
			found, now), nil
	})
}

// CylindersByLocation lists cylinders whose latest movement was at location.
// Latest is taken over all locations first, so a cylinder that passed
// through location and has moved on since is not listed.
func (s *ReportService) CylindersByLocation(ctx context.Context, sess auth.Session, location string) (*Report, error) {
	if err := s.authorize(sess); err != nil {
		return nil, err
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, tracking.ErrEmptyLocation
	}
	return s.run(ctx, ModeLocation, func(data dataset, now time.Time) (*Report, error) {
		latest := tracking.LatestBySerial(data.movements())
		found := tracking.AtLocation(latest, location)
		return newReport(ModeLocation,
			fmt.Sprintf("Últimos movimientos para ubicación: %s", location),
			"Ultimo_Movimiento_"+location,
			"No se encontraron movimientos para la ubicación seleccionada.",
			found, now), nil
	})
}

// MovementsByDateRange lists every movement of events dated within [start, end].
func (s *ReportService) MovementsByDateRange(ctx context.Context, sess auth.Session, start, end time.Time) (*Report, error) {
	if err := s.authorize(sess); err != nil {
		return nil, err
	}
	if _, err := tracking.EventsInRange(nil, start, end); err != nil {
		return nil, err
	}
	return s.run(ctx, ModeRange, func(data dataset, now time.Time) (*Report, error) {
		events, err := tracking.EventsInRange(data.events, start, end)
		if err != nil {
			return nil, err
		}
		from, to := start.Format("2006-01-02"), end.Format("2006-01-02")
		return newReport(ModeRange,
			fmt.Sprintf("Movimientos desde %s hasta %s", from, to),
			fmt.Sprintf("movimientos_%s_a_%s", from, to),
			"No se encontraron movimientos en ese rango de fechas.",
			tracking.JoinEvents(events, data.details), now), nil
	})
}

// Customers lists the customers seen in the process sheet.
func (s *ReportService) Customers(ctx context.Context, sess auth.Session) ([]string, error) {
	if err := s.authorize(sess); err != nil {
		return nil, err
	}
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return tracking.Customers(data.events), nil
}

// Locations lists the locations seen in the process sheet.
func (s *ReportService) Locations(ctx context.Context, sess auth.Session) ([]string, error) {
	if err := s.authorize(sess); err != nil {
		return nil, err
	}
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return tracking.Locations(data.events), nil
}

func (s *ReportService) run(ctx context.Context, mode Mode, build func(dataset, time.Time) (*Report, error)) (*Report, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	rows := 0
	defer func() {
		metrics.ObserveReport(string(mode), result, rows, time.Since(start))
	}()

	data, err := s.load(ctx)
	if err != nil {
		result = metrics.ResultError
		s.logf("report %s failed: %v", mode, err)
		return nil, err
	}
	report, err := build(data, s.clock.Now())
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	rows = len(report.Rows)
	if report.Empty() {
		result = metrics.ResultEmpty
	}
	s.logf("report %s id=%s rows=%d duration=%s", mode, report.ID, rows, time.Since(start))
	return report, nil
}

func (s *ReportService) authorize(sess auth.Session) error {
	return sess.Check(s.clock.Now())
}

func (s *ReportService) load(ctx context.Context) (dataset, error) {
	processTable, err := s.loadSheet(ctx, tracking.SheetProcess)
	if err != nil {
		return dataset{}, err
	}
	detailTable, err := s.loadSheet(ctx, tracking.SheetDetail)
	if err != nil {
		return dataset{}, err
	}
	events, err := tracking.ParseProcessEvents(processTable, s.normalizer)
	if err != nil {
		return dataset{}, err
	}
	details, err := tracking.ParseMovementDetails(detailTable)
	if err != nil {
		return dataset{}, err
	}
	return dataset{events: events, details: details}, nil
}

func (s *ReportService) loadSheet(ctx context.Context, sheet string) (tracking.Table, error) {
	start := time.Now()
	table, err := s.store.Load(ctx, sheet)
	if err != nil {
		metrics.ObserveStoreLoad(sheet, metrics.ResultError, time.Since(start))
		if !errors.Is(err, tracking.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", tracking.ErrStoreUnavailable, err)
		}
		return tracking.Table{}, err
	}
	metrics.ObserveStoreLoad(sheet, metrics.ResultSuccess, time.Since(start))
	if table.Name == "" {
		table.Name = sheet
	}
	return table, nil
}

func (s *ReportService) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
