package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"fastrack/internal/auth"
	"fastrack/internal/config"
	"fastrack/internal/tracking/application"
	tracking "fastrack/internal/tracking/domain"
	"fastrack/internal/tracking/infrastructure/postgres"
	"fastrack/internal/tracking/infrastructure/xlsx"
	"fastrack/internal/tracking/interfaces"
)

type options struct {
	store        string
	dbURL        string
	schema       string
	processTable string
	detailTable  string
	orderColumn  string
	workbook     string
	secret       string
	policyFile   string
	timezone     string
	mode         string
	serial       string
	customer     string
	location     string
	from         string
	to           string
	format       string
	outDir       string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	store, closeStore, err := openStore(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(2)
	}
	defer closeStore()

	path, report, err := run(context.Background(), opts, store, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if report.Empty() {
		fmt.Println(report.Warning)
		return
	}
	fmt.Printf("%s: %d rows -> %s\n", report.Title, len(report.Rows), path)
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.store, "store", getenvDefault("FASTRACK_STORE", config.StorePostgres), "event store: postgres or xlsx")
	fs.StringVar(&opts.dbURL, "db", getenvDefault("FASTRACK_DATABASE_URL", getenvDefault("PG_DSN", "")), "Postgres DSN")
	fs.StringVar(&opts.schema, "schema", getenvDefault("FASTRACK_DB_SCHEMA", ""), "Postgres schema")
	fs.StringVar(&opts.processTable, "process-table", getenvDefault("FASTRACK_PROCESS_TABLE", postgres.DefaultProcessTable), "process table")
	fs.StringVar(&opts.detailTable, "detail-table", getenvDefault("FASTRACK_DETAIL_TABLE", postgres.DefaultDetailTable), "detail table")
	fs.StringVar(&opts.orderColumn, "order-column", getenvDefault("FASTRACK_ORDER_COLUMN", ""), "column giving source row order")
	fs.StringVar(&opts.workbook, "workbook", getenvDefault("FASTRACK_WORKBOOK", ""), "workbook path for the xlsx store")
	fs.StringVar(&opts.secret, "secret", getenvDefault("FASTRACK_SHARED_SECRET", ""), "shared secret")
	fs.StringVar(&opts.policyFile, "policy", getenvDefault("FASTRACK_POLICY_FILE", ""), "report policy YAML (optional)")
	fs.StringVar(&opts.timezone, "tz", getenvDefault("FASTRACK_TIMEZONE", "UTC"), "time zone of the sheet dates")
	fs.StringVar(&opts.mode, "mode", "", "movements, customer, overdue, location or range")
	fs.StringVar(&opts.serial, "serial", "", "cylinder serial (movements)")
	fs.StringVar(&opts.customer, "customer", "", "customer name (customer)")
	fs.StringVar(&opts.location, "location", "", "location (location)")
	fs.StringVar(&opts.from, "from", "", "range start YYYY-MM-DD (range)")
	fs.StringVar(&opts.to, "to", "", "range end YYYY-MM-DD (range)")
	fs.StringVar(&opts.format, "format", interfaces.FormatCSV, "csv, xlsx or pdf")
	fs.StringVar(&opts.outDir, "out", "./out", "output directory")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if _, ok := application.ParseMode(opts.mode); !ok {
		return opts, errors.New("missing or unknown --mode")
	}
	switch opts.format {
	case interfaces.FormatCSV, interfaces.FormatXLSX, interfaces.FormatPDF:
	default:
		return opts, fmt.Errorf("unsupported --format %q", opts.format)
	}
	if opts.secret == "" {
		return opts, errors.New("missing --secret or FASTRACK_SHARED_SECRET")
	}
	return opts, nil
}

func openStore(opts options) (tracking.EventStore, func(), error) {
	switch opts.store {
	case config.StoreXLSX:
		store, err := xlsx.NewEventStore(opts.workbook)
		return store, func() {}, err
	case config.StorePostgres:
		if opts.dbURL == "" {
			return nil, nil, errors.New("missing --db or FASTRACK_DATABASE_URL/PG_DSN")
		}
		db, err := sql.Open("pgx", opts.dbURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := postgres.NewEventStore(db,
			postgres.WithSchema(opts.schema),
			postgres.WithTables(opts.processTable, opts.detailTable),
			postgres.WithOrderColumn(opts.orderColumn),
		)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown --store %q", opts.store)
	}
}

// run executes one report and writes it under opts.outDir. Empty reports
// write no file.
func run(ctx context.Context, opts options, store tracking.EventStore, now time.Time) (string, *application.Report, error) {
	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return "", nil, fmt.Errorf("timezone: %w", err)
	}
	policy, err := config.LoadReportPolicy(opts.policyFile)
	if err != nil {
		return "", nil, err
	}

	clock := fixedClock{now: now}
	// The signing key only lives for this run.
	authenticator, err := auth.NewAuthenticator([]byte(opts.secret), []byte(uuid.NewString()), time.Hour, clock)
	if err != nil {
		return "", nil, err
	}
	_, sess, err := authenticator.Login(opts.secret)
	if err != nil {
		return "", nil, err
	}

	service, err := application.NewReportService(store,
		application.WithPolicy(policy.Policy),
		application.WithNormalizer(policy.Normalizer(loc)),
		application.WithClock(clock),
	)
	if err != nil {
		return "", nil, err
	}

	report, err := runMode(ctx, service, sess, opts, policy.RangeDays, now.In(loc))
	if err != nil {
		return "", nil, err
	}
	if report.Empty() {
		return "", report, nil
	}

	data, err := interfaces.BuildReport(opts.format, report)
	if err != nil {
		return "", nil, err
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create out dir: %w", err)
	}
	path := filepath.Join(opts.outDir, report.FileName(opts.format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", nil, fmt.Errorf("write report: %w", err)
	}
	return path, report, nil
}

func runMode(ctx context.Context, service *application.ReportService, sess auth.Session, opts options, rangeDays int, now time.Time) (*application.Report, error) {
	mode, _ := application.ParseMode(opts.mode)
	switch mode {
	case application.ModeMovements:
		return service.MovementsBySerial(ctx, sess, opts.serial)
	case application.ModeCustomer:
		return service.CylindersByCustomer(ctx, sess, opts.customer)
	case application.ModeOverdue:
		return service.OverdueCylinders(ctx, sess)
	case application.ModeLocation:
		return service.CylindersByLocation(ctx, sess, opts.location)
	case application.ModeRange:
		start, end, err := application.ResolveRange(now, now.Location(), rangeDays, opts.from, opts.to)
		if err != nil {
			return nil, err
		}
		return service.MovementsByDateRange(ctx, sess, start, end)
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.mode)
	}
}

// fixedClock pins report cut-offs and session checks to the run time.
type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func getenvDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
