package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fastrack/internal/audit"
	"fastrack/internal/auth"
	"fastrack/internal/config"
	"fastrack/internal/observability/metrics"
	"fastrack/internal/tracking/application"
	tracking "fastrack/internal/tracking/domain"
	"fastrack/internal/tracking/infrastructure/postgres"
	"fastrack/internal/tracking/infrastructure/xlsx"
	trackinghttp "fastrack/internal/tracking/interfaces/http"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatalf("timezone error: %v", err)
	}
	reportPolicy, err := config.LoadReportPolicy(cfg.PolicyFile)
	if err != nil {
		logger.Fatalf("report policy error: %v", err)
	}

	var store tracking.EventStore
	switch cfg.Store {
	case config.StoreXLSX:
		workbook, err := xlsx.NewEventStore(cfg.WorkbookPath)
		if err != nil {
			logger.Fatalf("xlsx store error: %v", err)
		}
		store = workbook
		metrics.Init(nil, nil, logger)
	default:
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		pgStore, err := postgres.NewEventStore(db,
			postgres.WithSchema(cfg.DBSchema),
			postgres.WithTables(cfg.ProcessTable, cfg.DetailTable),
			postgres.WithOrderColumn(cfg.OrderColumn),
		)
		if err != nil {
			logger.Fatalf("postgres store error: %v", err)
		}
		store = pgStore
		metrics.Init(db, dbGauges(pgStore), logger)
	}

	service, err := application.NewReportService(store,
		application.WithPolicy(reportPolicy.Policy),
		application.WithNormalizer(reportPolicy.Normalizer(loc)),
		application.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("report service error: %v", err)
	}

	authenticator, err := auth.NewAuthenticator([]byte(cfg.SharedSecret), []byte(cfg.JWTSecret), cfg.SessionTTL, nil)
	if err != nil {
		logger.Fatalf("authenticator error: %v", err)
	}
	auditWriter := audit.NewWriter(logger)

	reportHandler, err := trackinghttp.NewHandler(service, auditWriter,
		trackinghttp.WithRangeDays(reportPolicy.RangeDays),
		trackinghttp.WithLocation(loc),
		trackinghttp.WithHandlerLogger(logger),
	)
	if err != nil {
		logger.Fatalf("report handler error: %v", err)
	}
	loginHandler, err := trackinghttp.NewLoginHandler(authenticator, auditWriter, cfg.SecureCookie)
	if err != nil {
		logger.Fatalf("login handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics", "/api/v1/login"}, nil)
	authMiddleware := auth.NewMiddleware(authenticator, policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/login", loginHandler)
	mux.Handle("/api/v1/reports/", reportHandler)
	mux.Handle("/api/v1/customers", reportHandler)
	mux.Handle("/api/v1/locations", reportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Printf("http listening on %s (store=%s)", cfg.HTTPAddr, cfg.Store)
	logger.Fatal(server.ListenAndServe())
}

func dbGauges(store *postgres.EventStore) []metrics.DBGauge {
	var gauges []metrics.DBGauge
	if query, ok := store.CountQuery(tracking.SheetProcess); ok {
		gauges = append(gauges, metrics.DBGauge{Name: "process_rows", Help: "Rows in the process table", Query: query})
	}
	if query, ok := store.CountQuery(tracking.SheetDetail); ok {
		gauges = append(gauges, metrics.DBGauge{Name: "detail_rows", Help: "Rows in the detail table", Query: query})
	}
	return gauges
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
