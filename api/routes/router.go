package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/fruitshop-backend/api/controllers"
	"github.com/angelmondragon/fruitshop-backend/api/middleware"
	"github.com/angelmondragon/fruitshop-backend/api/responses"
	"github.com/angelmondragon/fruitshop-backend/internal/auth"
	"github.com/angelmondragon/fruitshop-backend/internal/cart"
	product "github.com/angelmondragon/fruitshop-backend/internal/products"
	"github.com/angelmondragon/fruitshop-backend/pkg/auth/session"
	"github.com/angelmondragon/fruitshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/angelmondragon/fruitshop-backend/pkg/logger"
	"github.com/angelmondragon/fruitshop-backend/pkg/metrics"
)

const idPattern = "{id:[0-9]+}"

// NewRouter wires every page of the shop. mediaDir is served under the
// storage public path when images are kept on local disk; pass "" otherwise.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	authMetrics *metrics.AuthMetrics,
	readiness map[string]controllers.Pinger,
	limiter middleware.RateLimiter,
	sessions *session.Manager,
	authService auth.Service,
	registerService auth.RegisterService,
	productService product.Service,
	cartService cart.Service,
	mediaDir string,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "page not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "page not found"))
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	if prefix := mediaPrefix(cfg.Storage); mediaDir != "" && prefix != "" {
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(mediaDir))))
	}

	loginLimit := middleware.AuthRateLimit(middleware.LoginRateLimitPolicy(cfg.AuthRateLimit), limiter, authMetrics, logg)
	signupLimit := middleware.AuthRateLimit(middleware.SignupRateLimitPolicy(cfg.AuthRateLimit), limiter, authMetrics, logg)
	maxUpload := cfg.Storage.MaxUploadBytes()

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Session(sessions, cfg.Session, logg),
			middleware.CurrentUser(authService, logg),
		)

		r.Get("/", controllers.ProductList(productService, cartService, logg))
		r.Get("/search/", controllers.ProductList(productService, cartService, logg))
		r.Get("/product/"+idPattern+"/", controllers.ProductDetail(productService, cartService, logg))

		getOrPost(r, "/add-to-cart/"+idPattern+"/", controllers.CartAdd(cartService, logg))
		getOrPost(r, "/remove-from-cart/"+idPattern+"/", controllers.CartRemove(cartService, logg))
		getOrPost(r, "/cart/increase/"+idPattern+"/", controllers.CartIncrease(cartService, logg))
		getOrPost(r, "/cart/decrease/"+idPattern+"/", controllers.CartDecrease(cartService, logg))
		r.Get("/cart/", controllers.CartView(cartService, logg))

		r.Route("/settings", func(r chi.Router) {
			r.Use(middleware.RequireSuperuser(logg))
			r.Get("/", controllers.SettingsIndex(productService, cartService, logg))
			r.Post("/", controllers.SettingsCreate(productService, maxUpload, logg))
			r.Get("/update/"+idPattern+"/", controllers.SettingsUpdateForm(productService, cartService, logg))
			r.Post("/update/"+idPattern+"/", controllers.SettingsUpdate(productService, maxUpload, logg))
			r.Get("/delete/"+idPattern+"/", controllers.SettingsDeleteConfirm(productService, cartService, logg))
			r.Post("/delete/"+idPattern+"/", controllers.SettingsDelete(productService, logg))
		})

		r.Get("/signup/", controllers.SignupForm(cartService, logg))
		r.With(signupLimit).Post("/signup/", controllers.Signup(registerService, authMetrics, logg))
		r.Get("/login/", controllers.LoginForm(cartService, logg))
		r.With(loginLimit).Post("/login/", controllers.Login(authService, sessions, authMetrics, logg))
		getOrPost(r, "/logout/", controllers.Logout(sessions, logg))
	})

	return r
}

func getOrPost(r chi.Router, pattern string, h http.HandlerFunc) {
	r.Get(pattern, h)
	r.Post(pattern, h)
}

// mediaPrefix returns the URL path local images are served from, or "" when
// images live elsewhere.
func mediaPrefix(cfg config.StorageConfig) string {
	if cfg.IsGCS() {
		return ""
	}
	base := strings.TrimSpace(cfg.PublicBaseURL)
	if base == "" {
		base = "/media"
	}
	if !strings.HasPrefix(base, "/") {
		return ""
	}
	return strings.TrimRight(base, "/") + "/"
}
