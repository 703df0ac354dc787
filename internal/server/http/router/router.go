package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/inkwell/coauthor/internal/server/http/handlers"
	"github.com/inkwell/coauthor/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.StorefrontFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	bookHandler := handlers.NewBookHandler(facade)
	purchaseHandler := handlers.NewPurchaseHandler(facade)
	callbackHandler := handlers.NewCallbackHandler(facade)
	profileHandler := handlers.NewProfileHandler(facade)
	adminHandler := handlers.NewAdminHandler(facade, facade)

	api := engine.Group("/api")

	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	api.GET("/books", bookHandler.List)
	api.GET("/books/:slug", bookHandler.Get)
	api.GET("/purchases/:txid", purchaseHandler.Status)
	api.GET("/payments/callback", callbackHandler.Receive)
	api.POST("/payments/callback", callbackHandler.Receive)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))
	authed.POST("/books/:slug/purchase", purchaseHandler.Begin)
	authed.GET("/user/purchases", purchaseHandler.History)
	authed.GET("/user/profile", profileHandler.Get)
	authed.PUT("/user/profile", profileHandler.Put)
	authed.POST("/admin/bootstrap", adminHandler.Bootstrap)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(facade), middleware.AdminRequired(facade))
	admin.GET("/books", adminHandler.ListBooks)
	admin.POST("/books", adminHandler.CreateBook)
	admin.PATCH("/books/:id", adminHandler.UpdateBook)

	return engine
}
