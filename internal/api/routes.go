package api

import (
	"embed"
	"html/template"
	"net/http"

	"ext_builder_server/internal/metrics"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

// RegisterRoutes sets up the page, the JSON API and the operational endpoints.
func RegisterRoutes(router *gin.Engine, h *APIHandler) {
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))
	router.Use(MetricsMiddleware())

	// --- Browser Page ---
	page := router.Group("/", SessionMiddleware())
	{
		page.GET("/", h.Index)
		page.POST("/generate", h.SubmitForm)
		page.GET("/download", h.Download)
	}

	// --- JSON API ---
	extensionGroup := router.Group("/api/extension", SessionMiddleware())
	{
		extensionGroup.POST("/generate", h.GenerateExtension)
		extensionGroup.GET("", h.GetState)
		extensionGroup.GET("/files/:index", h.GetFile)
		extensionGroup.GET("/download", h.Download)
	}

	// --- Simple Health Check ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// NewRouter builds the engine used by the server binary and by tests.
func NewRouter(h *APIHandler) *gin.Engine {
	router := gin.New()        // Use gin.New() for more control over middleware
	router.Use(gin.Logger())   // Add structured logger middleware
	router.Use(gin.Recovery()) // Add panic recovery middleware
	RegisterRoutes(router, h)
	return router
}
