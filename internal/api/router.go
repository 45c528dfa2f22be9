package api

import (
	"net/http"

	"github.com/dom/ridecore/internal/api/handlers"
	"github.com/dom/ridecore/internal/api/middleware"
	"github.com/dom/ridecore/internal/api/responses"
	"github.com/dom/ridecore/internal/config"
	"github.com/dom/ridecore/internal/logger"
	"github.com/dom/ridecore/internal/metrics"
	"github.com/dom/ridecore/internal/ratelimit"
	"github.com/dom/ridecore/internal/service"
	"github.com/dom/ridecore/internal/websocket"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouterDeps holds everything the HTTP surface needs. RateLimitStore and
// Metrics may be nil.
type RouterDeps struct {
	Config         *config.Config
	Services       *service.Services
	Hub            *websocket.Hub
	RateLimitStore ratelimit.Store
	Metrics        *metrics.Metrics
	Logger         *logger.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	services := deps.Services

	r := chi.NewRouter()

	if cfg.Server.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		responses.WriteOK(w, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	userHandler := handlers.NewUserHandler(services, logg)
	infoHandler := handlers.NewUserInfoHandler(services.UserInfo, logg)
	addressHandler := handlers.NewUserAddressHandler(services.Address, logg)
	locationHandler := handlers.NewUserLocationHandler(services.Location, logg)
	categoryHandler := handlers.NewCategoryHandler(services.Category, logg)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, services, cfg.Server.AllowedOrigins, logg)

	authenticated := middleware.Auth(services.Auth, logg)
	adminOnly := middleware.RequireAdmin(logg)
	limit := func(policy string) func(http.Handler) http.Handler {
		rl := cfg.RateLimit
		return middleware.RateLimit(
			middleware.NewRateLimitPolicy(policy, rl.Window, rl.IPLimit, rl.IdentifierLimit),
			deps.RateLimitStore, logg,
		)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/create", userHandler.Create)
			r.With(limit("register")).Post("/register", userHandler.Register)
			r.With(limit("send-otp")).Post("/send-otp", userHandler.SendOTP)
			r.With(limit("verify-otp")).Post("/verify-otp", userHandler.VerifyOTP)
			r.With(limit("set-password")).Post("/set-password", userHandler.SetPassword)
			r.With(limit("login")).Post("/login", userHandler.Login)
			r.Get("/nearby-me", userHandler.NearbyMe)

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/logout", userHandler.Logout)
				r.Get("/profile", userHandler.Profile)
			})
		})

		r.Route("/user-info", func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/", infoHandler.Upsert)
			r.Get("/me", infoHandler.GetMine)
			r.Put("/me", infoHandler.UpdateMine)
			r.Delete("/me", infoHandler.DeleteMine)
			r.With(adminOnly).Get("/", infoHandler.List)
		})

		r.Route("/user-address", func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/", addressHandler.Upsert)
			r.Get("/me", addressHandler.ListMine)
			r.Put("/me", addressHandler.UpdateMine)
			r.Delete("/me", addressHandler.DeleteMine)
			r.With(adminOnly).Get("/", addressHandler.List)
		})

		r.Route("/user-location", func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/", locationHandler.Upsert)
			r.Get("/", locationHandler.List)
			r.Get("/me", locationHandler.GetMine)
			r.Put("/me", locationHandler.UpdateMine)
			r.Delete("/me", locationHandler.DeleteMine)
			r.Post("/find-within-radius", locationHandler.FindWithinRadius)
		})

		r.Get("/categories", categoryHandler.List)

		r.Route("/backend/categories", func(r chi.Router) {
			r.Use(authenticated, adminOnly)
			r.Post("/", categoryHandler.Create)
			r.Get("/", categoryHandler.List)
			r.Get("/{id}", categoryHandler.Get)
			r.Put("/{id}", categoryHandler.Update)
			r.Delete("/{id}", categoryHandler.Delete)
		})

		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
