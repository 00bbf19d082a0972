package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/glowshop/pkg/db"
	"github.com/Skotchmaster/glowshop/pkg/logging"
	middleware "github.com/Skotchmaster/glowshop/pkg/middleware/auth"
)

type Deps struct {
	DB              *gorm.DB
	CartHandler     *CartHTTP
	RatingHandler   *RatingHTTP
	OrderHandler    *OrderHTTP
	WishlistHandler *WishlistHTTP
	CatalogHandler  *CatalogHTTP
	JWTSecret       []byte
	// AuthClient may be nil; expired access tokens are then rejected.
	AuthClient middleware.Refresher
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewValidator()

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := pkgdb.Ping(c.Request().Context(), d.DB); err != nil {
			logging.FromContext(c.Request().Context()).Warn("ready_check_failed", "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)
	api := e.Group("/api")

	cart := api.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.DELETE("", d.CartHandler.Clear)
	cart.POST("/add", d.CartHandler.AddItem)
	cart.PATCH("/item/:itemId", d.CartHandler.UpdateItem)
	cart.DELETE("/item/:itemId", d.CartHandler.RemoveItem)
	cart.GET("/recommend", d.CartHandler.Recommend)

	ratings := api.Group("/ratings")
	ratings.POST("", d.RatingHandler.Submit, authMW.RequireAuth)
	ratings.GET("/export", d.RatingHandler.Export)
	ratings.POST("/upload", d.RatingHandler.Upload, authMW.RequireAdmin)
	ratings.GET("/:itemType/:itemId", d.RatingHandler.Get, authMW.OptionalAuth)
	ratings.GET("/:itemType/:itemId/distribution", d.RatingHandler.Distribution)

	orders := api.Group("/orders", authMW.RequireAuth)
	orders.POST("", d.OrderHandler.Create)
	orders.GET("/my", d.OrderHandler.ListMine)

	products := api.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)

	wishlist := api.Group("/wishlist", authMW.RequireAuth)
	wishlist.GET("", d.WishlistHandler.List)
	wishlist.POST("/toggle", d.WishlistHandler.Toggle)
	wishlist.PATCH("/notify", d.WishlistHandler.SetNotify)
	wishlist.GET("/alerts", d.WishlistHandler.Alerts)

	admin := api.Group("/admin", authMW.RequireAdmin)
	admin.GET("/orders", d.OrderHandler.ListAll)
	admin.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus)
	admin.GET("/analytics/overview", d.OrderHandler.Overview)
	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.POST("/products/bulk-upload", d.CatalogHandler.BulkUpload)
	admin.PATCH("/products/:id", d.CatalogHandler.PatchProduct)
	admin.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)
	admin.POST("/ratings/:itemType/:itemId/recompute", d.RatingHandler.Recompute)
}
