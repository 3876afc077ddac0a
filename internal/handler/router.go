package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/weiawesome/track-resolver/internal/metrics"
	"github.com/weiawesome/track-resolver/pkg/log"
	"github.com/weiawesome/track-resolver/pkg/middleware"
)

const (
	healthPath  = "/health"
	metricsPath = "/metrics"
)

// RouterConfig wires the engine built by NewRouter.
type RouterConfig struct {
	Logger        zerolog.Logger
	CORS          middleware.CORSConfig
	RoutePrefixes []string
	Metrics       *metrics.Metrics // optional; /metrics is not served when nil
}

// NewRouter builds the Gin engine serving the search routes, health and metrics.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(log.GinMiddleware(cfg.Logger, healthPath, metricsPath))
	r.Use(middleware.CORS(cfg.CORS))

	r.GET(healthPath, Health)
	if cfg.Metrics != nil {
		r.GET(metricsPath, gin.WrapH(cfg.Metrics.Handler()))
	}

	h.RegisterRoutes(r, cfg.RoutePrefixes)

	return r
}
