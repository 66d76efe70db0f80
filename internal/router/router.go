package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"bridge-backend/internal/config"
	"bridge-backend/internal/handlers"
	"bridge-backend/internal/middleware"
)

// Handlers everything the router mounts
type Handlers struct {
	Chains     *handlers.ChainConfigHandler
	Transfers  *handlers.TransferHandler
	WebSocket  *handlers.WebSocketHandler
	Auth       *middleware.AuthMiddleware
	Readiness  map[string]handlers.HealthChecker
	MetricsIPs *middleware.LocalhostOnly
}

// corsMiddleware CORS middleware, origins from config, default allow all
func corsMiddleware(cfg config.CORSConfig, logger *logrus.Logger) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	allowCredentials := cfg.AllowCredentials
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
		allowCredentials = false
	}
	maxAge := 3600
	if cfg.MaxAge > 0 {
		maxAge = cfg.MaxAge
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			allowed := false
			for _, allowedOrigin := range allowedOrigins {
				if strings.TrimSpace(allowedOrigin) == origin {
					allowed = true
					break
				}
			}
			if allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			} else {
				logger.WithFields(logrus.Fields{
					"request_origin":  origin,
					"allowed_origins": allowedOrigins,
					"path":            c.Request.URL.Path,
					"method":          c.Request.Method,
					"remote_addr":     c.ClientIP(),
				}).Warn("CORS: Request blocked - Origin not in whitelist")
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, Accept")
		if allowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Max-Age", strconv.Itoa(maxAge))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type")
		c.Next()
	}
}

// requestLogger one structured line per request
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"path":        c.Request.URL.Path,
			"method":      c.Request.Method,
			"status":      c.Writer.Status(),
			"remote_addr": c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("Request failed")
			return
		}
		entry.Debug("Request served")
	}
}

// SetupRouter mounts every route of the bridge API
func SetupRouter(cfg *config.Config, h Handlers, logger *logrus.Logger) *gin.Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), corsMiddleware(cfg.CORS, logger))

	// ============ Health Check ============
	r.GET("/health", handlers.HealthCheckHandler)
	r.GET("/ready", handlers.ReadinessHandler(h.Readiness))

	// ============ Prometheus Metrics ============
	r.GET("/metrics", h.MetricsIPs.Restrict(), gin.WrapH(promhttp.Handler()))

	// ============ API Routes ============
	v1 := r.Group("/api/v1")
	{
		v1.GET("/chains", h.Chains.ListChainsHandler)
		v1.GET("/chains/:chainId", h.Chains.GetChainHandler)
	}

	authenticated := v1.Group("", h.Auth.RequireAuth())
	{
		authenticated.GET("/chains/:chainId/sendable-currencies", h.Chains.SendableCurrenciesHandler)
		authenticated.POST("/chains/:chainId/balances/refresh", h.Chains.RefreshBalancesHandler)
		authenticated.POST("/transfers/erc20", h.Transfers.TransferERC20Handler)
		authenticated.GET("/ws", h.WebSocket.HandleWebSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "API endpoint not found",
			"path":    c.Request.URL.Path,
		})
	})

	return r
}
