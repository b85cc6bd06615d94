package ranchapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/herdwatch/ranchapi/config"
	"github.com/herdwatch/ranchapi/db"
	"github.com/herdwatch/ranchapi/eventlog/service"
	"github.com/herdwatch/ranchapi/middleware"
	"github.com/herdwatch/ranchapi/server"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	timeout "github.com/vearne/gin-timeout"
)

type api struct {
	config           *config.Configuration
	engine           *gin.Engine
	httpServer       *http.Server
	startedAt        time.Time
	dbConnector      db.DbConnector
	cattleService    CattleService
	inventoryService InventoryService
	eventLogService  service.EventLogService
}

// ApiDependencies groups what the HTTP layer needs. AlertSubscriptionHandler and EventSSEServer are optional.
type ApiDependencies struct {
	AuthManager              middleware.JWKSProvider
	DbConnector              db.DbConnector
	CattleService            CattleService
	InventoryService         InventoryService
	EventLogService          service.EventLogService
	EventSSEServer           *server.EventSSEServer
	AlertSubscriptionHandler http.HandlerFunc
}

func (api *api) Run() error {
	api.startedAt = time.Now()
	var err error
	if api.config.EnableTLS {
		err = api.httpServer.ListenAndServeTLS(api.config.CertPath, api.config.KeyPath)
	} else {
		err = api.httpServer.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (api *api) Shutdown(ctx context.Context) error {
	return api.httpServer.Shutdown(ctx)
}

func NewAPI(config *config.Configuration, dependencies ApiDependencies) GinApi {
	if config.LogLevel <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	return newAPI(gin.New(), config, dependencies)
}

func newAPI(engine *gin.Engine, config *config.Configuration, dependencies ApiDependencies) *api {
	log.Trace().Msg("Creating new ranch API")

	engine.Use(gin.Recovery())

	api := &api{
		config:           config,
		engine:           engine,
		dbConnector:      dependencies.DbConnector,
		cattleService:    dependencies.CattleService,
		inventoryService: dependencies.InventoryService,
		eventLogService:  dependencies.EventLogService,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.APIPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	engine.Use(middleware.CreateCorsMiddleware(config))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(api.eventLogService))

	root := engine.Group("")
	root.GET("/health", api.GetHealth)

	v1Group := root.Group("v1")
	if api.config.Authorization {
		v1Group.Use(middleware.CheckAuth(dependencies.AuthManager))
	}

	requestTimeout := time.Duration(config.RequestTimeoutSeconds) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	timeoutMiddleware := timeout.Timeout(
		timeout.WithTimeout(requestTimeout),
		timeout.WithErrorHttpCode(http.StatusRequestTimeout),
	)
	adminOnly := middleware.RoleProtection([]middleware.UserRole{middleware.Admin}, false, api.config.Authorization)
	vetOrAdmin := middleware.RoleProtection([]middleware.UserRole{middleware.Veterinarian, middleware.Admin}, false, api.config.Authorization)
	logger := api.eventLogService

	metricsGroup := v1Group.Group("/metrics")
	{
		metricsGroup.GET("", api.GetMetrics)
		metricsGroup.DELETE("", adminOnly, api.ResetMetrics)
	}

	eventsGroup := v1Group.Group("/events")
	{
		eventsGroup.GET("/recent", api.GetRecentEvents)
	}

	if dependencies.AlertSubscriptionHandler != nil {
		v1Group.GET("/alerts/poll", gin.WrapF(dependencies.AlertSubscriptionHandler))
	}

	cattleGroup := v1Group.Group("/cattle")
	if dependencies.EventSSEServer != nil {
		cattleGroup.GET("/:"+server.CattleIDParam+"/events/stream", dependencies.EventSSEServer.ServeHTTP())
	}
	// audits wrap the timeout so they see the status written to the client
	audit := func(operation, resource string) gin.HandlerFunc {
		return middleware.AuditTrail(logger, operation, resource)
	}
	cattleGroup.GET("", timeoutMiddleware, api.GetAnimals)
	cattleGroup.POST("", audit("CREATE", "cattle"), timeoutMiddleware, api.CreateAnimal)
	cattleGroup.GET("/:"+server.CattleIDParam, timeoutMiddleware, api.GetAnimalByID)
	cattleGroup.PUT("/:"+server.CattleIDParam, audit("UPDATE", "cattle"), timeoutMiddleware, api.UpdateAnimal)
	cattleGroup.DELETE("/:"+server.CattleIDParam, audit("DELETE", "cattle"), timeoutMiddleware, api.DeleteAnimal)
	cattleGroup.POST("/:"+server.CattleIDParam+"/location", audit("UPDATE", "location"), timeoutMiddleware, api.MoveAnimal)
	cattleGroup.POST("/:"+server.CattleIDParam+"/veterinary", vetOrAdmin, audit("CREATE", "veterinary"), timeoutMiddleware, api.RecordVeterinaryActivity)
	cattleGroup.GET("/:"+server.CattleIDParam+"/events", timeoutMiddleware, api.GetCattleEvents)

	inventoryGroup := v1Group.Group("/inventory/medicines")
	{
		inventoryGroup.GET("", timeoutMiddleware, api.GetMedicines)
		inventoryGroup.POST("", audit("CREATE", "medicine"), timeoutMiddleware, api.CreateMedicine)
		inventoryGroup.POST("/:"+medicineIDParam+"/adjust", audit("UPDATE", "medicine"), timeoutMiddleware, api.AdjustMedicineStock)
	}

	// Development-option enables debugger, this can have side-effects
	if api.config.Development {
		debug := root.Group("/debug/pprof")
		{
			debug.GET("/", gin.WrapF(pprof.Index))
			debug.GET("/cmdline", gin.WrapF(pprof.Cmdline))
			debug.GET("/profile", gin.WrapF(pprof.Profile))
			debug.GET("/symbol", gin.WrapF(pprof.Symbol))
			debug.GET("/trace", gin.WrapF(pprof.Trace))
			debug.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
			debug.GET("/block", gin.WrapH(pprof.Handler("block")))
			debug.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
			debug.GET("/heap", gin.WrapH(pprof.Handler("heap")))
			debug.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
			debug.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
			debug.POST("/symbol", gin.WrapF(pprof.Symbol))
		}
	}

	return api
}

// abortWithError maps service errors to client errors. Unexpected failures are reported to the event log.
func (api *api) abortWithError(c *gin.Context, err error) {
	switch {
	case IsValidationError(err):
		clientError := middleware.ErrInvalidRequestBody
		clientError.Message = err.Error()
		c.AbortWithStatusJSON(http.StatusBadRequest, clientError)
	case errors.Is(err, ErrAnimalNotFound), errors.Is(err, ErrMedicineNotFound):
		clientError := middleware.ErrNotFound
		clientError.Message = err.Error()
		c.AbortWithStatusJSON(http.StatusNotFound, clientError)
	case errors.Is(err, ErrEarTagAlreadyExists), errors.Is(err, ErrMedicineAlreadyExists):
		clientError := middleware.ErrConflict
		clientError.Message = err.Error()
		c.AbortWithStatusJSON(http.StatusConflict, clientError)
	default:
		middleware.RecordError(c, err)
		api.eventLogService.LogCattleError(err, middleware.GetRequestContext(c), map[string]interface{}{
			"route": c.FullPath(),
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, middleware.ErrInternalServerError)
	}
}
