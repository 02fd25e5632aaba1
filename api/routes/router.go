package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/localbasket/localbasket-backend/api/controllers"
	"github.com/localbasket/localbasket-backend/api/middleware"
	cartsvc "github.com/localbasket/localbasket-backend/internal/cart"
	checkoutsvc "github.com/localbasket/localbasket-backend/internal/checkout"
	discountsvc "github.com/localbasket/localbasket-backend/internal/discounts"
	loyaltysvc "github.com/localbasket/localbasket-backend/internal/loyalty"
	internalorders "github.com/localbasket/localbasket-backend/internal/orders"
	shopsvc "github.com/localbasket/localbasket-backend/internal/shops"
	"github.com/localbasket/localbasket-backend/pkg/config"
	"github.com/localbasket/localbasket-backend/pkg/db"
	"github.com/localbasket/localbasket-backend/pkg/logger"
	"github.com/localbasket/localbasket-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         db.Pinger
	Redis      *redis.Client
	Registry   *prometheus.Registry
	Cart       cartsvc.Service
	Checkout   checkoutsvc.Service
	Orders     internalorders.Service
	OrdersRepo internalorders.Repository
	Discounts  discountsvc.Service
	Loyalty    loyaltysvc.Service
	Shops      shopsvc.Service
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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ActorContext(logg))
		var store redis.IdempotencyStore
		if deps.Redis != nil {
			store = deps.Redis
		}
		r.Use(middleware.Idempotency(store, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireCustomer(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.Cart, logg))
				r.Put("/items", controllers.CartUpsertItem(deps.Cart, logg))
				r.Post("/discount", controllers.CartApplyDiscount(deps.Cart, logg))
				r.Delete("/discount", controllers.CartClearDiscount(deps.Cart, logg))
				r.Post("/points", controllers.CartSetPoints(deps.Cart, logg))
				r.Get("/quote", controllers.CartQuote(deps.Cart, logg))
			})

			r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.CustomerOrderList(deps.OrdersRepo, logg))
				r.Get("/{orderId}", controllers.CustomerOrderDetail(deps.OrdersRepo, logg))
				r.Post("/{orderId}/decision", controllers.CustomerOrderDecision(deps.Orders, logg))
			})

			r.Get("/loyalty/account", controllers.LoyaltyAccount(deps.Loyalty, logg))
		})

		r.Get("/discounts/preview", controllers.DiscountPreview(deps.Discounts, logg))

		r.Route("/shop/orders", func(r chi.Router) {
			r.Use(middleware.RequireShop(logg))
			r.Get("/queue", controllers.ShopOrderQueue(deps.OrdersRepo, logg))
			r.Post("/{orderId}/review", controllers.ShopOrderReview(deps.Orders, logg))
			r.Post("/{orderId}/advance", controllers.ShopOrderAdvance(deps.Orders, logg))
		})

		r.Route("/shops", func(r chi.Router) {
			r.Post("/", controllers.ShopRegister(deps.Shops, logg))
			r.Get("/{shopId}", controllers.ShopDetail(deps.Shops, logg))
			r.Delete("/{shopId}", controllers.ShopDeactivate(deps.Shops, logg))
		})
	})

	return r
}
