package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"fastrack/internal/audit"
	"fastrack/internal/auth"
	"fastrack/internal/observability/metrics"
	"fastrack/internal/tracking/application"
	tracking "fastrack/internal/tracking/domain"
	"fastrack/internal/tracking/interfaces"
)

const (
	reportsPrefix = "/api/v1/reports/"
)

// reportQuery holds the query parameters of a report request.
type reportQuery struct {
	Mode     string `validate:"required,oneof=movements customer overdue location range"`
	Format   string `validate:"required,oneof=json csv xlsx pdf"`
	Serial   string `validate:"required_if=Mode movements,max=64"`
	Customer string `validate:"required_if=Mode customer,max=200"`
	Location string `validate:"required_if=Mode location,max=200"`
	From     string `validate:"omitempty,datetime=2006-01-02"`
	To       string `validate:"omitempty,datetime=2006-01-02"`
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithRangeDays sets the window used when a range request omits its dates.
func WithRangeDays(days int) HandlerOption {
	return func(h *Handler) {
		if days > 0 {
			h.rangeDays = days
		}
	}
}

// WithLocation sets the time zone used to resolve "today".
func WithLocation(loc *time.Location) HandlerOption {
	return func(h *Handler) {
		if loc != nil {
			h.loc = loc
		}
	}
}

// WithNow overrides the clock used for default ranges.
func WithNow(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithHandlerLogger sets the logger for failed requests.
func WithHandlerLogger(logger *log.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// Handler serves the report and selector endpoints.
type Handler struct {
	service     *application.ReportService
	auditLogger audit.Logger
	validate    *validator.Validate
	rangeDays   int
	loc         *time.Location
	now         func() time.Time
	logger      *log.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *application.ReportService, auditLogger audit.Logger, opts ...HandlerOption) (*Handler, error) {
	if service == nil {
		return nil, errors.New("report handler: nil service")
	}
	h := &Handler{
		service:     service,
		auditLogger: auditLogger,
		validate:    validator.New(),
		rangeDays:   application.DefaultRangeDays,
		loc:         time.UTC,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP routes GET /api/v1/reports/{mode}, /api/v1/customers and /api/v1/locations.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch {
	case r.URL.Path == "/api/v1/customers":
		h.handleSelector(w, r, h.service.Customers)
	case r.URL.Path == "/api/v1/locations":
		h.handleSelector(w, r, h.service.Locations)
	case strings.HasPrefix(r.URL.Path, reportsPrefix):
		mode := strings.Trim(strings.TrimPrefix(r.URL.Path, reportsPrefix), "/")
		if mode == "" || strings.Contains(mode, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.handleReport(w, r, mode)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request, name string) {
	mode, ok := application.ParseMode(name)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	values := r.URL.Query()
	query := reportQuery{
		Mode:     string(mode),
		Format:   strings.ToLower(strings.TrimSpace(values.Get("format"))),
		Serial:   strings.TrimSpace(values.Get("serial")),
		Customer: strings.TrimSpace(values.Get("customer")),
		Location: strings.TrimSpace(values.Get("location")),
		From:     strings.TrimSpace(values.Get("from")),
		To:       strings.TrimSpace(values.Get("to")),
	}
	if query.Format == "" {
		query.Format = interfaces.FormatJSON
	}
	if err := h.validate.Struct(query); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	sess := auth.SessionFromContext(r.Context())
	report, err := h.runReport(r, sess, query)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.logAudit(r, sess, "report."+query.Mode, report.ID, map[string]any{
		"format":   query.Format,
		"rows":     len(report.Rows),
		"serial":   query.Serial,
		"customer": query.Customer,
		"location": query.Location,
		"from":     query.From,
		"to":       query.To,
	})

	if query.Format == interfaces.FormatJSON {
		w.Header().Set("Content-Type", interfaces.ContentType(interfaces.FormatJSON))
		_ = json.NewEncoder(w).Encode(report)
		return
	}
	h.writeExport(w, query.Format, report)
}

func (h *Handler) runReport(r *http.Request, sess auth.Session, query reportQuery) (*application.Report, error) {
	ctx := r.Context()
	switch application.Mode(query.Mode) {
	case application.ModeMovements:
		return h.service.MovementsBySerial(ctx, sess, query.Serial)
	case application.ModeCustomer:
		return h.service.CylindersByCustomer(ctx, sess, query.Customer)
	case application.ModeOverdue:
		return h.service.OverdueCylinders(ctx, sess)
	case application.ModeLocation:
		return h.service.CylindersByLocation(ctx, sess, query.Location)
	case application.ModeRange:
		start, end, err := application.ResolveRange(h.now(), h.loc, h.rangeDays, query.From, query.To)
		if err != nil {
			return nil, err
		}
		return h.service.MovementsByDateRange(ctx, sess, start, end)
	default:
		return nil, fmt.Errorf("report handler: unknown mode %q", query.Mode)
	}
}

func (h *Handler) writeExport(w http.ResponseWriter, format string, report *application.Report) {
	if report.Empty() {
		http.Error(w, report.Warning, http.StatusNotFound)
		return
	}
	start := time.Now()
	data, err := interfaces.BuildReport(format, report)
	if err != nil {
		metrics.ObserveReportExport(format, metrics.ResultError, time.Since(start))
		h.logf("export %s report %s failed: %v", format, report.ID, err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	metrics.ObserveReportExport(format, metrics.ResultSuccess, time.Since(start))

	w.Header().Set("Content-Type", interfaces.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(format)))
	_, _ = w.Write(data)
}

type selectorFunc func(context.Context, auth.Session) ([]string, error)

func (h *Handler) handleSelector(w http.ResponseWriter, r *http.Request, list selectorFunc) {
	values, err := list(r.Context(), auth.SessionFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if values == nil {
		values = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(values)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logf("%s %s failed: %v", r.Method, r.URL.Path, err)
	}
	var missing *tracking.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		http.Error(w, missing.Error(), status)
	case status == http.StatusBadRequest:
		http.Error(w, err.Error(), status)
	default:
		http.Error(w, http.StatusText(status), status)
	}
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, auth.ErrSessionExpired),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, tracking.ErrEmptySerial),
		errors.Is(err, tracking.ErrEmptyCustomer),
		errors.Is(err, tracking.ErrEmptyLocation),
		errors.Is(err, tracking.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, tracking.ErrMissingColumn),
		errors.Is(err, tracking.ErrStoreUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" "+fe.Tag())
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

func (h *Handler) logAudit(r *http.Request, sess auth.Session, action, resourceID string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.FromRequest(r, sess.Subject, action, "report", resourceID, meta))
}

func (h *Handler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
