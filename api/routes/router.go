package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donhangtem/orderboard-backend/api/controllers"
	"github.com/donhangtem/orderboard-backend/api/middleware"
	"github.com/donhangtem/orderboard-backend/internal/auth"
	"github.com/donhangtem/orderboard-backend/internal/board"
	"github.com/donhangtem/orderboard-backend/internal/media"
	"github.com/donhangtem/orderboard-backend/internal/notifications"
	"github.com/donhangtem/orderboard-backend/internal/orders"
	"github.com/donhangtem/orderboard-backend/internal/reviews"
	"github.com/donhangtem/orderboard-backend/pkg/auth/session"
	"github.com/donhangtem/orderboard-backend/pkg/config"
	"github.com/donhangtem/orderboard-backend/pkg/logger"
	"github.com/donhangtem/orderboard-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers. Readiness pingers
// may be nil; those dependencies are reported as skipped.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	Registry       *prometheus.Registry
	DB             controllers.Pinger
	Redis          *redis.Client
	GCS            controllers.Pinger
	PubSub         controllers.Pinger
	SessionManager session.AccessSessionChecker
	AuthService    auth.Service
	BoardStore     *board.Store
	OrdersService  orders.Service
	ReviewsService *reviews.Service
	MediaService   *media.Service
	PushRepo       notifications.Repository
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":     deps.DB,
			"redis":  pingerOrNil(deps.Redis),
			"gcs":    deps.GCS,
			"pubsub": deps.PubSub,
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
	})

	// The projection read is public so wall displays in the workshop can
	// render the board without a login.
	r.Get("/api/v1/board", controllers.BoardView(deps.BoardStore, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Post("/auth/logout", controllers.AuthLogout(deps.AuthService, logg))

		r.Route("/board", func(r chi.Router) {
			r.Post("/sort", controllers.BoardSort(deps.BoardStore, logg))
			r.Post("/active/{orderId}", controllers.BoardToggleActive(deps.BoardStore, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(deps.OrdersService, deps.BoardStore, logg))
			r.Patch("/{orderId}", controllers.OrderUpdate(deps.OrdersService, deps.BoardStore, logg))
			r.Delete("/{orderId}", controllers.OrderDelete(deps.OrdersService, deps.BoardStore, logg))
			r.Post("/{orderId}/status", controllers.OrderChangeStatus(deps.OrdersService, deps.BoardStore, logg))
			r.Post("/{orderId}/urgency", controllers.OrderToggleUrgency(deps.OrdersService, deps.BoardStore, logg))

			r.Route("/{orderId}/reviews", func(r chi.Router) {
				r.Get("/", controllers.ReviewList(deps.ReviewsService, logg))
				r.Post("/", controllers.ReviewSubmit(deps.ReviewsService, logg))
			})
		})

		r.Route("/media", func(r chi.Router) {
			r.Post("/", controllers.MediaUpload(deps.MediaService, logg))
			r.Delete("/", controllers.MediaDelete(deps.MediaService, logg))
		})

		r.Route("/push-subscriptions", func(r chi.Router) {
			r.Put("/", controllers.PushSubscribe(deps.PushRepo, logg))
			r.Delete("/", controllers.PushUnsubscribe(deps.PushRepo, logg))
		})
	})

	return r
}

// pingerOrNil keeps a typed-nil redis client from registering as a live
// readiness check.
func pingerOrNil(client *redis.Client) controllers.Pinger {
	if client == nil {
		return nil
	}
	return client
}
