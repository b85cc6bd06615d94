package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/herdwatch/ranchapi/config"
)

const corsMaxAge = 12 * time.Hour

// CreateCorsMiddleware allows every origin while authorization is off, otherwise only the
// comma separated PERMITTED_ORIGIN_URL list.
func CreateCorsMiddleware(config *config.Configuration) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Accept",
			"Authorization",
			"Content-Type",
			"Content-Length",
			"Cache-Control",
			"Last-Event-ID",
			RequestIDHeader,
		},
		ExposeHeaders: []string{RequestIDHeader},
	}

	origins := permittedOrigins(config.PermittedOrigin)
	if !config.Authorization || len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = origins
	}

	return cors.New(corsConfig)
}

func permittedOrigins(value string) []string {
	var origins []string
	for _, origin := range strings.Split(value, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
