package restapi

import (
	"net/http"
	"time"

	"wallet_adapter/internal/app/port"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures the HTTP router.
type RouterOptions struct {
	AllowOrigins []string
	// Gatherer backs /metrics; nil leaves the endpoint out.
	Gatherer prometheus.Gatherer
	Logger   port.Logger
}

// SetupRouter sets up and returns the Gin router.
func SetupRouter(walletHandler *WalletHandler, opts RouterOptions) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowOrigins) == 0 || (len(opts.AllowOrigins) == 1 && opts.AllowOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	if opts.Logger != nil {
		router.Use(requestLogger(opts.Logger))
	}
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/wallets", walletHandler.ListWalletsHandler)
		v1.GET("/wallet", walletHandler.GetStateHandler)
		v1.GET("/wallet/events", walletHandler.StateEventsHandler)
		v1.POST("/wallet/select", walletHandler.SelectHandler)
		v1.POST("/wallet/connect", walletHandler.ConnectHandler)
		v1.POST("/wallet/disconnect", walletHandler.DisconnectHandler)
		v1.POST("/wallet/sign-message", walletHandler.SignMessageHandler)
		v1.POST("/wallet/sign-transaction", walletHandler.SignTransactionHandler)
		v1.POST("/wallet/send-transaction", walletHandler.SendTransactionHandler)
		v1.POST("/page/unload", walletHandler.UnloadHandler)
	}

	return router
}

func requestLogger(l port.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
