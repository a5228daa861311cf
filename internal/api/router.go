package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"healthgenie.io/assistant/internal/auth"
	"healthgenie.io/assistant/internal/session"
)

type RouterConfig struct {
	Sessions     *session.Manager
	Tokens       *auth.SessionTokens
	SecureCookie bool
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
}

func NewRouter(apiHandler *APIHandler, pages *PageHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Everything below is scoped to the caller's session.
	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(cfg.Sessions, cfg.Tokens, cfg.SecureCookie))

		r.Get("/", pages.PageHandler)

		r.Route("/ui", func(r chi.Router) {
			r.Post("/chat", pages.ChatFormHandler)
			r.Post("/documents", pages.UploadFormHandler)
			r.Post("/profile", pages.ProfileFormHandler)
			r.Post("/insights", pages.InsightsFormHandler)
			r.Post("/medications", pages.AddMedicationFormHandler)
			r.Post("/medications/{index}/remove", pages.RemoveMedicationFormHandler)
			r.Post("/appointments", pages.ScheduleAppointmentFormHandler)
			r.Post("/appointments/{index}/remove", pages.RemoveAppointmentFormHandler)
			r.Post("/symptoms", pages.LogSymptomFormHandler)
			r.Post("/symptoms/analysis", pages.AnalyzeSymptomsFormHandler)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/sidebar", apiHandler.SidebarHandler)

			r.Get("/chat", apiHandler.ChatHistoryHandler)
			r.Post("/chat", apiHandler.PostMessageHandler)
			r.Post("/documents/summarize", apiHandler.SummarizeDocumentHandler)

			r.Get("/profile", apiHandler.GetProfileHandler)
			r.Put("/profile", apiHandler.UpdateProfileHandler)
			r.Post("/insights", apiHandler.InsightsHandler)
			r.Get("/insights/symptom-trend", apiHandler.SymptomTrendHandler)

			r.Get("/medications", apiHandler.ListMedicationsHandler)
			r.Post("/medications", apiHandler.AddMedicationHandler)
			r.Delete("/medications/{index}", apiHandler.RemoveMedicationHandler)

			r.Get("/appointments", apiHandler.ListAppointmentsHandler)
			r.Post("/appointments", apiHandler.ScheduleAppointmentHandler)
			r.Delete("/appointments/{index}", apiHandler.RemoveAppointmentHandler)

			r.Get("/symptoms", apiHandler.ListSymptomsHandler)
			r.Post("/symptoms", apiHandler.LogSymptomHandler)
			r.Post("/symptoms/analysis", apiHandler.SymptomAnalysisHandler)
		})
	})

	return r
}
