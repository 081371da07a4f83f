package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"jobmate/brain-service/internal/logger"
)

// NewRouter returns a gin engine with recovery, request logging and CORS, and
// every route of h mounted.
func NewRouter(h *Handler, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	cc := cors.DefaultConfig()
	if len(corsOrigins) == 0 || (len(corsOrigins) == 1 && corsOrigins[0] == "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = corsOrigins
	}
	cc.ExposeHeaders = []string{"Content-Disposition"}
	r.Use(cors.New(cc))

	if h.maxUpload > 0 {
		r.MaxMultipartMemory = h.maxUpload
	}
	h.RegisterRoutes(r)
	return r
}

// requestLogger attaches a request-scoped logger to the request context and
// logs one line per request once the handlers have run.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		l := logger.With("http").With().
			Str("request_id", uuid.NewString()).
			Str("method", c.Request.Method).
			Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		l.WithLevel(statusLevel(status)).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func statusLevel(status int) zerolog.Level {
	switch {
	case status >= 500:
		return zerolog.ErrorLevel
	case status >= 400:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
