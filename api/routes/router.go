package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printhaus/printhaus-backend/api/controllers"
	"github.com/printhaus/printhaus-backend/api/middleware"
	"github.com/printhaus/printhaus-backend/internal/catalog"
	"github.com/printhaus/printhaus-backend/internal/designs"
	"github.com/printhaus/printhaus-backend/internal/notifications"
	"github.com/printhaus/printhaus-backend/internal/publication"
	"github.com/printhaus/printhaus-backend/internal/users"
	"github.com/printhaus/printhaus-backend/internal/vendorproducts"
	"github.com/printhaus/printhaus-backend/pkg/config"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	"github.com/printhaus/printhaus-backend/pkg/logger"
)

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	HealthPingers map[string]controllers.Pinger

	Users         users.Service
	Designs       designs.Service
	Products      vendorproducts.Service
	Catalog       catalog.Service
	Notifications notifications.Service
	Coordinator   *publication.Coordinator
}

// NewRouter wires middleware, controllers, and role guards into the chi mux.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.HealthPingers))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(p.Users, p.Logger))
		r.Post("/login", controllers.AuthLogin(p.Users, p.Logger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", controllers.CatalogList(p.Catalog, p.Logger))
			r.Get("/{catalogProductId}", controllers.CatalogGet(p.Catalog, p.Logger))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, p.Logger))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, p.Logger))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, p.Logger))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleVendor), p.Logger))

			r.Route("/designs", func(r chi.Router) {
				r.Get("/", controllers.DesignList(p.Designs, p.Logger))
				r.Post("/", controllers.DesignUpload(p.Designs, p.Logger))
				r.Get("/{designId}", controllers.DesignGet(p.Designs, p.Logger))
				r.Patch("/{designId}", controllers.DesignUpdate(p.Designs, p.Logger))
				r.Delete("/{designId}", controllers.DesignDelete(p.Designs, p.Logger))
				r.Post("/{designId}/submit", controllers.DesignSubmit(p.Designs, p.Logger))
				r.Post("/{designId}/resubmit", controllers.DesignResubmit(p.Designs, p.Logger))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(p.Products, p.Logger))
				r.Post("/", controllers.ProductCreate(p.Products, p.Logger))
				r.Get("/{productId}", controllers.ProductGet(p.Products, p.Logger))
				r.Patch("/{productId}", controllers.ProductUpdate(p.Products, p.Logger))
				r.Delete("/{productId}", controllers.ProductDelete(p.Products, p.Logger))
				r.Post("/{productId}/publish", controllers.ProductPublish(p.Products, p.Logger))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), p.Logger))

			r.Route("/designs", func(r chi.Router) {
				r.Get("/pending", controllers.AdminPendingDesigns(p.Designs, p.Logger))
				r.Post("/{designId}/decision", controllers.AdminDesignDecision(p.Coordinator, p.Logger))
			})
		})
	})

	return r
}
