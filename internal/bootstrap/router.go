package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/GoSim-25-26J-441/projects-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/projects-backend/internal/api/http/middleware"
	audithttp "github.com/GoSim-25-26J-441/projects-backend/internal/audit/http"
	"github.com/GoSim-25-26J-441/projects-backend/internal/metrics"
	projecthttp "github.com/GoSim-25-26J-441/projects-backend/internal/projects/http"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int

	DB      httpapi.Pinger
	Cache   httpapi.Pinger
	Metrics *metrics.Metrics

	Projects projecthttp.ProjectService
	Logs     audithttp.LogService
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.Metrics(dep.Metrics))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Cache)
	healthHandler.RegisterRoutes(r)

	if dep.Metrics != nil {
		r.GET("/metrics", gin.WrapH(dep.Metrics.Handler()))
	}

	api := r.Group("/api")
	if dep.RateLimitRPS > 0 {
		api.Use(middleware.NewRateLimiter(dep.RateLimitRPS, dep.RateLimitBurst).Middleware())
	}

	projecthttp.New(dep.Projects).Register(api.Group("/projects"))
	audithttp.New(dep.Logs).Register(api.Group("/logs"))

	return r
}
