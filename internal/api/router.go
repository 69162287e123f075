package api

import (
	"net/http"
	"time"

	"github.com/HarshSoni1801/NullByte/internal/api/handler"
	"github.com/HarshSoni1801/NullByte/internal/app/service"
	"github.com/HarshSoni1801/NullByte/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	problemService *service.ProblemService,
	submissionService *service.SubmissionService,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	// The submission path blocks on judge polling; its budget is the poll
	// bound, not the default handler timeout.
	r.Use(chiMiddleware.Timeout(5 * time.Minute))

	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(pub chi.Router) {
			authHandler.RegisterRoutes(pub)
		})

		problemHandler := handler.NewProblemHandler(problemService)
		v1.Route("/problems", problemHandler.RegisterRoutes)

		submissionHandler := handler.NewSubmissionHandler(submissionService)
		v1.Route("/submissions", submissionHandler.RegisterRoutes)
	})

	return r
}
