package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/openhire/jobboard-api/internal/domain/auth"
	"github.com/openhire/jobboard-api/internal/ports"
	"github.com/openhire/jobboard-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs     *service.JobService
	Search   *service.JobSearchService
	Verifier ports.TokenVerifier
	Logger   *slog.Logger
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jobHandlers := &JobHandlers{Jobs: services.Jobs, Search: services.Search}
	registerJobRoutes(mux, jobHandlers, services.Verifier)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return RequestID()(Logging(logger)(Recover(logger)(mux)))
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers, verifier ports.TokenVerifier) {
	optionalAuth := OptionalAuth(verifier)
	requireAuth := RequireAuth(verifier)
	posterOnly := RequireRole(verifier, domainauth.RoleHR, domainauth.RoleAdmin)
	adminOnly := RequireRole(verifier, domainauth.RoleAdmin)

	// Public read surface. Literal segments take precedence over the {id}
	// wildcard in the mux, so /tags/popular and friends are never shadowed.
	// Search takes optional auth: the postedBy filter needs a principal.
	mux.Handle("GET /api/jobs", optionalAuth(http.HandlerFunc(h.List)))
	mux.HandleFunc("GET /api/jobs/tags/popular", h.PopularTags)
	mux.HandleFunc("GET /api/jobs/categories", h.Categories)
	mux.HandleFunc("GET /api/jobs/{id}", h.Get)

	// Posting lifecycle, owner-gated in the service layer.
	mux.Handle("POST /api/jobs", posterOnly(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/jobs/my", requireAuth(http.HandlerFunc(h.My)))
	mux.Handle("PATCH /api/jobs/{id}", requireAuth(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/jobs/{id}", requireAuth(http.HandlerFunc(h.Delete)))
	mux.Handle("POST /api/jobs/{id}/publish", requireAuth(http.HandlerFunc(h.Publish)))
	mux.Handle("POST /api/jobs/{id}/unpublish", requireAuth(http.HandlerFunc(h.Unpublish)))
	mux.Handle("POST /api/jobs/{id}/close", requireAuth(http.HandlerFunc(h.Close)))

	// Applicant-side actions.
	mux.Handle("POST /api/jobs/{id}/apply", requireAuth(http.HandlerFunc(h.Apply)))
	mux.Handle("POST /api/jobs/{id}/bookmark", requireAuth(http.HandlerFunc(h.AddBookmark)))
	mux.Handle("DELETE /api/jobs/{id}/bookmark", requireAuth(http.HandlerFunc(h.RemoveBookmark)))

	// Aggregate statistics are admin-only.
	mux.Handle("GET /api/jobs/stats", adminOnly(http.HandlerFunc(h.Stats)))
}
