package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinichq/clinic-booking/internal/auth"
	"github.com/clinichq/clinic-booking/internal/booking"
	"github.com/clinichq/clinic-booking/internal/clinic"
	"github.com/clinichq/clinic-booking/internal/observability/metrics"
	"github.com/clinichq/clinic-booking/internal/schedule"
)

type RouterConfig struct {
	Clinic   *clinic.Service
	Schedule *schedule.Service
	Booking  *booking.Service
	Tokens   *auth.TokenIssuer
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	HTTP     *metrics.HTTPMetrics
	Env      string
	Version  string
	Log      zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(RequestLogger(cfg.Log))
	r.Use(Metrics(cfg.HTTP))

	authn := Authenticator(cfg.Tokens)
	doctorOnly := RequireRole(auth.RoleDoctor)
	patientOnly := RequireRole(auth.RolePatient)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	authHandler := NewAuthHandler(cfg.Clinic, cfg.Tokens, cfg.Log)
	r.Post("/auth/login", authHandler.Login)

	doctors := NewDoctorHandler(cfg.Clinic, cfg.Log)
	r.Route("/doctors", func(r chi.Router) {
		r.Post("/", doctors.Register)
		r.Get("/", doctors.List)
		r.Get("/{id}", doctors.Get)

		r.Group(func(r chi.Router) {
			r.Use(authn, doctorOnly)
			r.Get("/me", doctors.Me)
			r.Put("/me", doctors.UpdateMe)
			r.Post("/me/work-experience", doctors.AddWorkExperience)
			r.Post("/me/academic-history", doctors.AddAcademicHistory)
		})
	})

	patients := NewPatientHandler(cfg.Clinic, cfg.Log)
	r.Route("/patients", func(r chi.Router) {
		r.Post("/", patients.Register)
		r.Get("/{id}", patients.Get)

		r.Group(func(r chi.Router) {
			r.Use(authn, patientOnly)
			r.Get("/me", patients.Me)
			r.Put("/me", patients.UpdateMe)
		})
	})

	availabilities := NewAvailabilityHandler(cfg.Schedule, cfg.Log)
	r.Route("/availabilities", func(r chi.Router) {
		r.Get("/doctor/{doctor_id}", availabilities.ListByDoctor)

		r.Group(func(r chi.Router) {
			r.Use(authn, doctorOnly)
			r.Post("/", availabilities.Create)
			r.Get("/", availabilities.ListOwn)
			r.Get("/{id}", availabilities.Get)
			r.Put("/{id}", availabilities.Update)
			r.Delete("/{id}", availabilities.Delete)
		})
	})

	appointments := NewAppointmentHandler(cfg.Booking, cfg.Log)
	r.Route("/appointments", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authn, patientOnly)
			r.Post("/", appointments.Create)
			r.Get("/patient", appointments.ListForPatient)
			r.Put("/{id}/reschedule", appointments.Reschedule)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn, doctorOnly)
			r.Get("/doctor", appointments.ListForDoctor)
			r.Put("/{id}/cancel", appointments.Cancel)
		})
	})

	return r
}
