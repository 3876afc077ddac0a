package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const wildcard = "*"

var allMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// CORSConfig holds the cross-origin policy. A "*" entry in AllowOrigins or
// AllowMethods means everything.
type CORSConfig struct {
	AllowOrigins     []string      `mapstructure:"allow_origins"`
	AllowMethods     []string      `mapstructure:"allow_methods"`
	AllowHeaders     []string      `mapstructure:"allow_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

// CORS returns a Gin middleware enforcing cfg.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowHeaders:     cfg.AllowHeaders,
		AllowCredentials: cfg.AllowCredentials,
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           cfg.MaxAge,
	}

	if len(cfg.AllowOrigins) == 0 || contains(cfg.AllowOrigins, wildcard) {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowOrigins
	}

	if len(cfg.AllowMethods) == 0 || contains(cfg.AllowMethods, wildcard) {
		c.AllowMethods = allMethods
	} else {
		c.AllowMethods = cfg.AllowMethods
	}

	if c.MaxAge == 0 {
		c.MaxAge = 12 * time.Hour
	}

	return cors.New(c)
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
