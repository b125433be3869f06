package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"dextrack/internal/apperr"
	"dextrack/internal/auth"
	"dextrack/internal/claims"
	"dextrack/internal/config"
	"dextrack/internal/favorites"
	"dextrack/internal/http/handler"
	mw "dextrack/internal/http/middleware"
	"dextrack/internal/http/response"
	"dextrack/internal/metrics"
	"dextrack/internal/tracker"
	"dextrack/internal/validate"
)

func NewRouter(cfg config.Config, db *gorm.DB, verifier auth.Verifier, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.AccessLog(log))
	r.Use(chimw.Recoverer)
	r.Use(mw.Metrics)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Err(w, r, apperr.NotFound("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Err(w, r, apperr.MethodNotAllowed(r.Method+" is not allowed on this route"))
	})

	health := &handler.HealthHandler{Service: cfg.ServiceName}
	r.Get("/health", health.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	owner := auth.OwnerPolicy{ElevatedRoles: cfg.ElevatedRoles}
	valid := validate.New(cfg.StripUnknownFields)
	valid.MaxBodyBytes = cfg.MaxBodyBytes

	trackerRepo := &tracker.Repo{DB: db, Log: log.With().Str("component", "tracker").Logger()}
	claimRepo := &claims.Repo{DB: db, Log: log.With().Str("component", "claims").Logger()}
	favoriteRepo := &favorites.Repo{DB: db, Log: log.With().Str("component", "favorites").Logger()}

	trackers := make([]*handler.TrackerHandler, 0, len(tracker.Families))
	for _, f := range tracker.Families {
		trackers = append(trackers, &handler.TrackerHandler{
			Family:   f,
			Store:    trackerRepo,
			Valid:    valid,
			Owner:    owner,
			Log:      log.With().Str("component", "tracker_api").Str("family", f.Name).Logger(),
			MaxBatch: cfg.BatchMaxItems,
		})
	}
	claimH := &handler.ClaimHandler{Store: claimRepo, Valid: valid, Owner: owner}
	favoriteH := &handler.FavoriteHandler{Store: favoriteRepo, Valid: valid, Owner: owner}
	me := &handler.MeHandler{Owner: owner}

	userRoutes := func(r chi.Router) {
		for _, th := range trackers {
			r.Route("/"+th.Family.Name, th.Routes)
		}
		r.Route("/claims", claimH.Routes)
		r.Route("/favorites", favoriteH.Routes)
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.RLEnabled {
			r.Use(httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow))
		}
		r.Use(auth.RequireAuth(verifier, log.With().Str("component", "auth").Logger()))

		r.Get("/me", me.Me)

		// the caller's own data
		userRoutes(r)

		// another user's data; owner or elevated role only
		r.Route("/users/{"+handler.UserParam+"}", func(r chi.Router) {
			r.Use(owner.RequireParam(handler.UserParam))
			userRoutes(r)
		})
	})

	return r
}
