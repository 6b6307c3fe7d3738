package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/auth"
	"hrcore/internal/domain/leave"
	"hrcore/internal/domain/notifications"
	"hrcore/internal/domain/org"
	"hrcore/internal/domain/payroll"
	"hrcore/internal/domain/payslip"
	"hrcore/internal/domain/wellbeing"
	"hrcore/internal/platform/config"
	"hrcore/internal/platform/db"
	"hrcore/internal/platform/email"
	"hrcore/internal/platform/jobs"
	"hrcore/internal/platform/metrics"
	"hrcore/internal/platform/storage"
	"hrcore/internal/transport/http/api"
	audithandler "hrcore/internal/transport/http/handlers/audit"
	authhandler "hrcore/internal/transport/http/handlers/auth"
	employeeshandler "hrcore/internal/transport/http/handlers/employees"
	leavehandler "hrcore/internal/transport/http/handlers/leave"
	notificationshandler "hrcore/internal/transport/http/handlers/notifications"
	payrollhandler "hrcore/internal/transport/http/handlers/payroll"
	paysliphandler "hrcore/internal/transport/http/handlers/payslips"
	wellbeinghandler "hrcore/internal/transport/http/handlers/wellbeing"
	"hrcore/internal/transport/http/middleware"
)

func Run() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			slog.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	files, err := storage.New(cfg.PayslipDir, cfg.PayslipTempDir)
	if err != nil {
		slog.Error("storage init failed", "err", err)
		os.Exit(1)
	}

	mailer := email.New(cfg)
	collector := metrics.New()

	orgStore := org.NewStore(pool)
	authStore := auth.NewStore(pool)
	auditSvc := audit.New(pool)
	notifier := notifications.New(pool, mailer, cfg.EmailFrom)

	leaveSvc := leave.NewService(leave.NewStore(pool), orgStore, auditSvc, notifier)
	wellbeingSvc := wellbeing.NewService(wellbeing.NewStore(pool), orgStore, auditSvc)
	payrollSvc := payroll.NewService(payroll.NewStore(pool), orgStore, payroll.DefaultTaxTables())
	payrollSvc.Notifier = notifier
	payslipSvc := &payslip.Service{
		Store:       payslip.NewStore(pool),
		Payroll:     payrollSvc.Store,
		Org:         orgStore,
		Files:       files,
		Mailer:      mailer,
		Audit:       auditSvc,
		Notifier:    notifier,
		CompanyName: cfg.CompanyName,
		From:        cfg.EmailFrom,
	}

	jobsSvc := jobs.New(pool)
	jobsSvc.Start(ctx)
	jobsSvc.Schedule(ctx, jobs.JobTempCleanup, cfg.CleanupInterval, func(ctx context.Context) (any, error) {
		maxAge := time.Duration(cfg.TempFileMaxAgeDays) * 24 * time.Hour
		deleted, err := payslipSvc.CleanupTemp(ctx, maxAge)
		return map[string]any{"deleted": deleted}, err
	})

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), "")
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authStore, cfg.JWTSecret).RegisterRoutes(r)
		employeeshandler.NewHandler(orgStore, auditSvc).RegisterRoutes(r)
		leavehandler.NewHandler(leaveSvc).RegisterRoutes(r)
		wellbeinghandler.NewHandler(wellbeingSvc).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollSvc).RegisterRoutes(r)
		paysliphandler.NewHandler(payslipSvc, jobsSvc).RegisterRoutes(r)
		notificationshandler.NewHandler(notifier).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
	})

	slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
