package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"FundingArchive/internal/config"
)

// Options configures the router beyond the archive service.
type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	Site           config.SiteConfig
	// Health reports store reachability for /healthz.
	Health func(ctx context.Context) error
	// MCP is mounted at /mcp when set.
	MCP    http.Handler
	Logger *slog.Logger
}

// NewRouter builds the gin engine serving the JSON API, feeds and MCP.
func NewRouter(svc Service, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(opts.Logger))
	r.Use(CORS(opts.AllowedOrigins))

	h := &handlers{svc: svc, health: opts.Health, feeds: feedBuilder{site: opts.Site}}

	r.GET("/healthz", h.healthz)
	r.GET("/rss.xml", Timeout(opts.RequestTimeout), h.rssFeed)
	r.GET("/sitemap.xml", Timeout(opts.RequestTimeout), h.sitemap)

	api := r.Group("/api")
	api.Use(Timeout(opts.RequestTimeout))
	{
		api.GET("/search", h.search)
		api.GET("/categories", h.categories)
		api.GET("/suggestions", h.suggestions)
		api.GET("/grants/:slug", h.grant)
	}

	if opts.MCP != nil {
		mcp := gin.WrapH(opts.MCP)
		r.Any("/mcp", mcp)
	}

	return r
}
