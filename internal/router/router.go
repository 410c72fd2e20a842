package router

import (
	"github.com/gin-gonic/gin"

	"billclarity/internal/handler"
	"billclarity/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	allowedOrigins []string,
	analysisH *handler.AnalysisHandler,
	eligibilityH *handler.EligibilityHandler,
	hospitalH *handler.HospitalHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	v1.POST("/analyses", analysisH.Analyze)
	v1.POST("/letters", analysisH.GenerateLetter)
	v1.POST("/eligibility", eligibilityH.Evaluate)

	hospitals := v1.Group("/hospitals")
	hospitals.GET("", hospitalH.List)
	hospitals.GET("/:slug", hospitalH.GetBySlug)

	return r
}
