package router

import (
	"github.com/gin-gonic/gin"

	"github.com/minegocio/backend/internal/domain/identity"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/interfaces/http/handler"
	"github.com/minegocio/backend/internal/interfaces/http/middleware"
)

// Handlers groups every HTTP handler the API exposes
type Handlers struct {
	System   *handler.SystemHandler
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Category *handler.CategoryHandler
	Product  *handler.ProductHandler
	Sale     *handler.SaleHandler
	Purchase *handler.PurchaseHandler
	Business *handler.BusinessHandler
	Report   *handler.ReportHandler
}

// Security holds the guards applied on top of the handlers
type Security struct {
	Authenticator     middleware.Authenticator
	Policy            *identity.Policy
	IdempotencyStore  shared.IdempotencyStore
	IdempotencyConfig shared.IdempotencyConfig
	// LoginLimiter throttles login attempts per client IP. Nil disables it.
	LoginLimiter *middleware.RateLimiter
}

// RegisterAPI wires the minegocio API onto engine under /api/v1, plus a
// root /health for load balancers.
func RegisterAPI(engine *gin.Engine, h Handlers, sec Security) {
	if sec.Policy == nil {
		sec.Policy = identity.NewPolicy()
	}

	engine.GET("/health", h.System.Health)

	r := NewRouter(engine,
		WithAPIVersion("v1"),
		WithGuards(Guards{
			Capability: func(action identity.Action) gin.HandlerFunc {
				return middleware.RequireCapability(sec.Policy, action)
			},
			Idempotency: middleware.Idempotency(sec.IdempotencyStore, sec.IdempotencyConfig),
		}),
	)
	r.Use(middleware.JWTAuthMiddleware(sec.Authenticator))
	for _, g := range apiGroups(h, sec.LoginLimiter) {
		r.Register(g)
	}
	r.Setup()
}

// apiGroups declares every API route. Per-line permissions (seller, same
// day, receiver window) are checked by the trade services, not here.
func apiGroups(h Handlers, loginLimiter *middleware.RateLimiter) []*DomainGroup {
	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	system.GET("/system/info", h.System.Info)

	authGroup := NewDomainGroup("auth", "/auth")
	if loginLimiter != nil {
		authGroup.POST("/login", middleware.RateLimit(loginLimiter), h.Auth.Login)
	} else {
		authGroup.POST("/login", h.Auth.Login)
	}
	authGroup.GET("/me", h.Auth.Me)
	authGroup.POST("/logout", h.Auth.Logout)
	authGroup.PUT("/password", h.Auth.ChangePassword)

	users := NewDomainGroup("users", "/users").Requires(identity.ActionManageUsers)
	users.GET("", h.User.List)
	users.POST("", h.User.Create)
	users.GET("/:id", h.User.GetByID)
	users.PUT("/:id", h.User.Update)

	categories := NewDomainGroup("categories", "/categories")
	categories.GET("", h.Category.List)
	categories.POST("", h.Category.Create).Requires(identity.ActionManageCatalog)
	categories.PUT("/:id", h.Category.Update).Requires(identity.ActionManageCatalog)
	categories.DELETE("/:id", h.Category.Delete).Requires(identity.ActionManageCatalog)
	categories.PATCH("/:id/toggle-status", h.Category.ToggleStatus).Requires(identity.ActionManageCatalog)

	products := NewDomainGroup("products", "/products")
	products.GET("", h.Product.List)
	products.GET("/low-stock", h.Product.LowStock)
	products.GET("/search", h.Product.Search)
	products.GET("/:id", h.Product.GetByID)
	products.POST("", h.Product.Create).Requires(identity.ActionManageCatalog)
	products.PUT("/:id", h.Product.Update).Requires(identity.ActionManageCatalog)
	products.DELETE("/:id", h.Product.Deactivate).Requires(identity.ActionManageCatalog)
	products.POST("/:id/activate", h.Product.Activate).Requires(identity.ActionManageCatalog)
	products.POST("/:id/adjust-stock", h.Product.AdjustStock).Requires(identity.ActionManageCatalog)
	products.GET("/:id/purchase-history", h.Purchase.ProductHistory)

	sales := NewDomainGroup("sales", "/sales")
	sales.GET("", h.Sale.List)
	sales.POST("", h.Sale.Create).WithIdempotency()
	sales.GET("/stats", h.Sale.Stats)
	sales.GET("/:id", h.Sale.GetByID)
	sales.PUT("/:id", h.Sale.Update)
	sales.DELETE("/:id", h.Sale.Delete).Requires(identity.ActionDeleteSale)
	sales.GET("/:id/items", h.Sale.ListItems)
	sales.POST("/:id/items", h.Sale.AddItem).WithIdempotency()

	saleItems := NewDomainGroup("sale-items", "/sale-items")
	saleItems.PUT("/:id", h.Sale.UpdateItem)
	saleItems.DELETE("/:id", h.Sale.DeleteItem)

	purchases := NewDomainGroup("purchases", "/purchases")
	purchases.GET("", h.Purchase.List)
	purchases.POST("", h.Purchase.Create).WithIdempotency()
	purchases.GET("/stats", h.Purchase.Stats)
	purchases.GET("/recent", h.Purchase.Recent)
	purchases.GET("/:id", h.Purchase.GetByID)
	purchases.PUT("/:id", h.Purchase.Update)
	purchases.GET("/:id/summary", h.Purchase.Summary)
	purchases.DELETE("/:id", h.Purchase.Delete).Requires(identity.ActionDeletePurchase)
	purchases.POST("/:id/items", h.Purchase.AddItem).WithIdempotency()

	purchaseItems := NewDomainGroup("purchase-items", "/purchase-items")
	purchaseItems.PUT("/:id", h.Purchase.UpdateItem)
	purchaseItems.DELETE("/:id", h.Purchase.DeleteItem)

	business := NewDomainGroup("business", "/business")
	business.GET("", h.Business.Get)
	business.PUT("", h.Business.Update).Requires(identity.ActionUpdateBusiness)
	business.GET("/currencies", h.Business.Currencies)

	reports := NewDomainGroup("reports", "/reports")
	reports.GET("/revenue", h.Report.Revenue)
	reports.GET("/dashboard", h.Report.Dashboard)
	reports.GET("/low-stock", h.Report.LowStock)
	reports.GET("/product-stock", h.Report.ProductStock)
	reports.GET("/top-products", h.Report.TopProducts)
	reports.GET("/daily", h.Report.Daily)
	reports.GET("/monthly", h.Report.Monthly)
	reports.Group("sales-reports", "/sales").
		GET("/export", h.Report.ExportSales).
		Requires(identity.ActionExport)

	return []*DomainGroup{
		system, authGroup, users, categories, products,
		sales, saleItems, purchases, purchaseItems, business, reports,
	}
}
