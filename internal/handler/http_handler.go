package handler

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/weiawesome/track-resolver/internal/domain"
	"github.com/weiawesome/track-resolver/internal/service"
	"github.com/weiawesome/track-resolver/pkg/log"
	"github.com/weiawesome/track-resolver/pkg/response"
)

const (
	queryParam         = "q"
	detailMissingQuery = "query parameter 'q' is required"
)

// Handler handles HTTP requests for the resolver.
type Handler struct {
	resolver service.ResolverService
}

// NewHandler creates a new HTTP handler.
func NewHandler(resolver service.ResolverService) *Handler {
	return &Handler{
		resolver: resolver,
	}
}

// RegisterRoutes registers GET {prefix}/search for every prefix.
// An empty prefix list registers /search only.
func (h *Handler) RegisterRoutes(r gin.IRoutes, prefixes []string) {
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}

	registered := make(map[string]struct{}, len(prefixes))
	for _, p := range prefixes {
		route := SearchPath(p)
		if _, dup := registered[route]; dup {
			continue
		}
		registered[route] = struct{}{}
		r.GET(route, h.Search)
	}
}

// SearchPath joins a route prefix with /search.
func SearchPath(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || prefix == "/" {
		return "/search"
	}
	return path.Join("/", prefix, "search")
}

// Search resolves the q parameter to a track id.
func (h *Handler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	// A present but empty q is forwarded; only an absent one is rejected.
	query, ok := c.GetQuery(queryParam)
	if !ok {
		l := log.Ctx(ctx)
		l.Warn().Msg("search request without query")
		response.UnprocessableEntity(c, detailMissingQuery)
		return
	}

	ctx = log.With(ctx, func(lc zerolog.Context) zerolog.Context {
		return lc.Str(log.FieldQuery, query)
	})
	l := log.Ctx(ctx)

	result, err := h.resolver.Resolve(ctx, query)
	if err != nil {
		var upstream *domain.UpstreamError
		switch {
		case errors.Is(err, domain.ErrTrackNotFound):
			l.Info().Msg("no track found")
			response.NotFound(c, domain.ErrTrackNotFound.Error())
		case errors.As(err, &upstream):
			l.Error().Err(err).Str(log.FieldFilter, upstream.Filter.String()).Msg("catalog search failed")
			response.InternalError(c, upstream.Error())
		default:
			l.Error().Err(err).Msg("resolve failed")
			response.InternalError(c, err.Error())
		}
		return
	}

	response.Success(c, result)
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
