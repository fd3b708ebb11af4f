package router

import (
	"github.com/cuongbtq/jobqueue/internal/api/handler"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", handler.Health(deps))

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	jobHandler := handler.NewJobHandler(deps)

	// Addition jobs
	r.POST("/add-numbers", jobHandler.AddNumbers)
	r.GET("/add-numbers/:job_id", jobHandler.GetAddNumbersResult)

	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", jobHandler.CreateJob)
			jobs.GET("/:job_id", jobHandler.GetJob)
		}
	}

	if deps.Items != nil {
		itemHandler := handler.NewItemHandler(deps)

		items := r.Group("/api/items")
		{
			items.POST("", itemHandler.CreateItem)
			items.GET("", itemHandler.ListItems)
			items.GET("/:id", itemHandler.GetItem)
		}
	}

	return r
}
