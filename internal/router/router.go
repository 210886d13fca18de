package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-storefront/config"
	"github.com/ikkim/udonggeum-storefront/internal/app/controller"
	"github.com/ikkim/udonggeum-storefront/internal/middleware"
)

type Router struct {
	cartController     *controller.CartController
	wishlistController *controller.WishlistController
	sessionController  *controller.SessionController
	checkoutController *controller.CheckoutController
	eventsController   *controller.EventsController
	sessionMiddleware  *middleware.SessionMiddleware
	config             *config.Config
}

func NewRouter(
	cartController *controller.CartController,
	wishlistController *controller.WishlistController,
	sessionController *controller.SessionController,
	checkoutController *controller.CheckoutController,
	eventsController *controller.EventsController,
	sessionMiddleware *middleware.SessionMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		cartController:     cartController,
		wishlistController: wishlistController,
		sessionController:  sessionController,
		checkoutController: checkoutController,
		eventsController:   eventsController,
		sessionMiddleware:  sessionMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "UDONGGEUM storefront is running",
			"storage": r.config.Storage.Driver,
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(r.sessionMiddleware.Attach())
	{
		cart := v1.Group("/cart")
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("", r.cartController.AddToCart)
			cart.PUT("", r.cartController.SetCartItems)
			cart.DELETE("", r.cartController.ClearCart)
			cart.GET("/summary", r.cartController.GetSummary)
			cart.GET("/export", r.cartController.ExportCart)
			cart.DELETE("/:product_id", r.cartController.RemoveFromCart)
		}

		wishlist := v1.Group("/wishlist")
		{
			wishlist.GET("", r.wishlistController.GetWishlist)
			wishlist.POST("/toggle", r.wishlistController.ToggleWishlist)
			wishlist.DELETE("/:product_id", r.wishlistController.RemoveFromWishlist)
		}

		session := v1.Group("/session")
		{
			session.GET("", r.sessionController.GetSession)
			session.POST("/login", r.sessionController.Login)
			session.POST("/logout", r.sessionController.Logout)
			session.POST("/migrate", r.sessionMiddleware.RequireSession(), r.sessionController.Migrate)
		}

		checkout := v1.Group("/checkout")
		{
			checkout.GET("", r.checkoutController.GetCheckout)
			checkout.POST("/select", r.checkoutController.Select)
			checkout.POST("/items/:product_id/increment", r.checkoutController.Increment)
			checkout.POST("/items/:product_id/decrement", r.checkoutController.Decrement)
			checkout.PUT("/address", r.checkoutController.SetAddress)
			checkout.POST("/orders", r.sessionMiddleware.RequireSession(), r.checkoutController.PlaceOrder)
		}

		v1.GET("/ws", r.eventsController.WebSocketHandler)
	}

	return router
}
