package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterOptions carries the deployment details that only affect request logging
// and CORS.
type RouterOptions struct {
	Env            string
	Version        string
	AllowedOrigins []string
}

func NewRouter(
	JWTService jwt.Service,
	attendanceHandler AttendanceHandler,
	leaveHandler LeaveHandler,
	employeeHandler EmployeeHandler,
	payrollHandler PayrollHandler,
	opts RouterOptions,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll-engine"),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired)

		r.Route("/attendance", func(r chi.Router) {
			r.Post("/clock-in", attendanceHandler.ClockIn)
			r.Post("/clock-out", attendanceHandler.ClockOut)
			r.Get("/me", attendanceHandler.GetMyAttendance)

			// Admin only
			r.With(middleware.AdminOnly).Get("/summary", attendanceHandler.GetWorkedSummary)
		})

		r.Route("/leaves", func(r chi.Router) {
			r.Post("/", leaveHandler.CreateRequest)

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminOnly)
				r.Put("/{id}/decision", leaveHandler.DecideRequest)
				r.Get("/approved", leaveHandler.ListApproved)
			})
		})

		r.Route("/employees", func(r chi.Router) {
			r.Use(middleware.AdminOnly)
			r.Get("/", employeeHandler.ListActive)
			r.Post("/", employeeHandler.Create)
			r.Get("/{id}", employeeHandler.Get)
			r.Put("/{id}/status", employeeHandler.UpdateStatus)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Use(middleware.AdminOnly)
			r.Post("/preview", payrollHandler.Preview)
			r.Post("/runs", payrollHandler.Run)
			r.Get("/summary", payrollHandler.Summary)

			r.Route("/records", func(r chi.Router) {
				r.Get("/", payrollHandler.ListRecords)
				r.Post("/pay", payrollHandler.MarkPaid)
				r.Get("/{id}", payrollHandler.GetRecord)
				r.Put("/{id}/line-items", payrollHandler.UpdateLineItems)
			})

			r.Route("/line-items", func(r chi.Router) {
				r.Post("/", payrollHandler.AddLineItems)
				r.Post("/import", payrollHandler.ImportLineItems)
			})
		})
	})
	return r
}
