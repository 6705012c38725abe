package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/tournament-draw/handlers"
	"github.com/Dosada05/tournament-draw/middleware"
	"github.com/Dosada05/tournament-draw/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

const requestTimeout = 60 * time.Second

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	authHandler *handlers.AuthHandler,
	drawHandler *handlers.DrawHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/doc.json", handlers.ServeOpenAPI)
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Get("/ws/draws/{runID}", webSocketHandler.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(requestTimeout))

		r.Post("/auth/token", authHandler.IssueToken)

		r.Route("/draws", func(r chi.Router) {
			r.Get("/", drawHandler.ListRuns)
			r.Get("/{runID}", drawHandler.GetRun)
			r.Get("/{runID}/export", drawHandler.Export)
			r.Get("/{runID}/classes/{classKey}/snapshots/{index}", drawHandler.GetSnapshot)

			r.With(organizerOnly(opts.JWTSecret)...).Post("/", drawHandler.RunDraw)
			r.With(organizerOnly(opts.JWTSecret)...).Delete("/{runID}", drawHandler.DeleteRun)
		})

		r.With(organizerOnly(opts.JWTSecret)...).Post("/brackets", drawHandler.BuildBrackets)
	})
}

func organizerOnly(secret string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.Authenticate(secret),
		middleware.Authorize(models.RoleOrganizer),
	}
}
