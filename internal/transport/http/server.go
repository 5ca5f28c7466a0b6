package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ponyfiction/internal/bootstrap"
	"ponyfiction/internal/graph"
	"ponyfiction/internal/storage"
	"ponyfiction/internal/transport/http/handler"
	"ponyfiction/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) (*gin.Engine, error) {
	gin.SetMode(app.Config.App.GinMode)

	metrics, err := graph.NewMetrics(app.Registry)
	if err != nil {
		return nil, err
	}
	schema, err := graph.NewSchema(app.Services, metrics, app.Logger)
	if err != nil {
		return nil, err
	}
	httpMetrics, err := middleware.NewPrometheus(app.Registry)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(app.Logger),
		httpMetrics.Handler(),
		middleware.Client(),
	)

	healthHandler := handler.NewHealthHandler(handler.HealthDeps{
		App:       app.Config.App.Name,
		Env:       app.Config.App.Env,
		StartedAt: app.StartedAt,
		DB:        app.DB,
		Redis:     app.Redis,
		MQConn:    app.MQConn,
		Storage:   app.Storage,
	})
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})))

	if local, ok := app.Storage.(*storage.Local); ok {
		router.Static(app.Config.Storage.PublicPath, local.Root())
	}

	maxUpload := int64(app.Config.Upload.MaxSizeMB) << 20
	graphqlHandler := handler.NewGraphQLHandler(schema, maxUpload, app.Config.App.GraphiQL)
	api := router.Group("/graphql", middleware.AuthJWT(app.Services.Auth))
	api.GET("", graphqlHandler.Get)
	api.POST("", graphqlHandler.Post)

	return router, nil
}
