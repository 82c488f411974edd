package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/retailsync/catalog-sync/internal/httpapi/handlers"
	"github.com/retailsync/catalog-sync/internal/httpapi/middleware"
	"github.com/retailsync/catalog-sync/internal/httpapi/response"
	pkgjwt "github.com/retailsync/catalog-sync/pkg/jwt"
)

// NewRouter wires the operator API's routes.
func NewRouter(d *handlers.Deps, jwtManager *pkgjwt.Manager) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestID(), middleware.Logger())

	r.GET("/health", func(c *gin.Context) { response.OK(c, 200, gin.H{"status": "ok"}) })

	r.POST("/webhooks/:source", d.Webhook)

	// Generated CSVs under public/ are meant for the ad catalog's crawler
	// and similar consumers, not the operator, so this route carries no
	// auth.
	r.GET("/catalog", d.CatalogDownload)

	auth := r.Group("/auth")
	auth.POST("/login", d.Login)

	protected := r.Group("")
	protected.Use(middleware.Auth(jwtManager, d.Store))
	protected.POST("/auth/logout", d.Logout)
	protected.GET("/auth/check", d.Check)
	protected.POST("/sync/initial", d.SyncInitial)
	protected.GET("/sync/status", d.SyncStatus)
	protected.GET("/sync/batch/:handle", d.SyncBatchStatus)
	protected.GET("/catalog/generate", d.CatalogGenerate)
	protected.GET("/catalog/meta", d.CatalogMeta)

	return r
}
