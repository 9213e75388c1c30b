package http

import (
	"net/http"

	"github.com/MikeRez0/paygate/internal/adapter/config"
	"github.com/MikeRez0/paygate/internal/core/port"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Router struct {
	*gin.Engine
}

func NewRouter(
	conf *config.App,
	tokenService port.TokenService,
	orderHandler *OrderHandler,
	webhookHandler *WebhookHandler,
	log *zap.Logger) (*Router, error) {

	if conf.Mode == config.AppModeProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	// Swagger
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/ping", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "pong")
	})

	api := router.Group("/api")
	{
		orders := api.Group("/orders")
		{
			orders.Use(authCheck(tokenService))
			orders.POST("/:provider", orderHandler.CreateOrder)
			orders.GET("/:provider/:id", orderHandler.GetOrder)
		}

		// providers sign their calls; merchant tokens do not apply here
		api.POST("/webhooks/:provider", webhookHandler.Receive)
	}

	return &Router{router}, nil
}
