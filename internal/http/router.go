package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/okovalenko/uniconnect/internal/auth"
	"github.com/okovalenko/uniconnect/internal/catalog"
	"github.com/okovalenko/uniconnect/internal/config"
	"github.com/okovalenko/uniconnect/internal/domain/user"
	"github.com/okovalenko/uniconnect/internal/http/handlers"
	"github.com/okovalenko/uniconnect/internal/http/middlewares"
	"github.com/okovalenko/uniconnect/internal/identity"
	"github.com/okovalenko/uniconnect/internal/listing"
	"github.com/okovalenko/uniconnect/internal/observability"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type Deps struct {
	Cfg       config.Config
	Identity  *identity.Service
	Listing   *listing.Service
	AutoSaver *listing.AutoSaver
	Catalog   *catalog.Service
	JWT       *auth.Manager

	Prom        *observability.Prom
	SyncMetrics *observability.SyncMetrics
	Registry    *prometheus.Registry

	// readiness probe against the durable backend
	Ping func() error
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(otelgin.Middleware("uniconnect"))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware([]string{"http://localhost:3000", "http://localhost:5173"}))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	authLimiter := middlewares.NewRateLimiter(10, time.Minute)
	writeLimiter := middlewares.NewRateLimiter(60, time.Minute)

	// health + metrics

	health := handlers.NewHealthHandler(d.Ping, d.SyncMetrics)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	// wire up handlers

	authHandler := handlers.NewAuthHandler(d.Identity, d.JWT, d.Cfg)
	usersHandler := handlers.NewUsersHandler(d.Identity)
	announcementsHandler := handlers.NewAnnouncementsHandler(d.Listing)
	draftsHandler := handlers.NewDraftsHandler(d.Listing, d.AutoSaver)
	catalogHandler := handlers.NewCatalogHandler(d.Catalog)
	statsHandler := handlers.NewStatsHandler(d.Listing)

	authMW := middlewares.NewAuthMiddleware(d.JWT)
	orgOnly := authMW.RequireOrgType(string(user.TypeUniversity), string(user.TypeCompany))

	// auth

	authGroup := r.Group("/auth")
	authGroup.Use(authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// public reads

	r.GET("/announcements", announcementsHandler.List)
	r.GET("/announcements/:id", announcementsHandler.GetByID)
	r.POST("/announcements/:id/view", announcementsHandler.RecordView)
	r.GET("/catalog", catalogHandler.Get)
	r.GET("/stats", statsHandler.Get)
	r.GET("/users/universities", usersHandler.ListUniversities)
	r.GET("/users/companies", usersHandler.ListCompanies)
	r.GET("/users/:id", usersHandler.GetUser)

	// authenticated surface

	me := r.Group("/me")
	me.Use(authMW.RequireAuth())
	me.Use(writeLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))
	{
		me.GET("", usersHandler.Me)
		me.PATCH("", usersHandler.UpdateMe)
		me.POST("/password", usersHandler.ChangeMyPassword)

		me.GET("/announcements", announcementsHandler.Mine)

		me.GET("/draft", draftsHandler.Get)
		me.PUT("/draft", draftsHandler.Put)
		me.POST("/draft/touch", draftsHandler.Touch)
		me.DELETE("/draft", draftsHandler.Delete)
	}

	writes := r.Group("/announcements")
	writes.Use(authMW.RequireAuth(), orgOnly)
	writes.Use(writeLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))
	{
		writes.POST("", announcementsHandler.Create)
		writes.PATCH("/:id", announcementsHandler.Update)
		writes.DELETE("/:id", announcementsHandler.Delete)
	}

	return r
}
