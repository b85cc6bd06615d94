package ranchapi

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/herdwatch/ranchapi/middleware"
)

const (
	defaultRecentEventLimit = 50
	maxRecentEventLimit     = 1000
)

type metricsTO struct {
	RequestCount        int64             `json:"requestCount"`
	ErrorCount          int64             `json:"errorCount"`
	AverageResponseTime float64           `json:"averageResponseTime"`
	ActiveUsers         int               `json:"activeUsers"`
	ActiveUserIDs       []string          `json:"activeUserIds"`
	PopularEndpoints    map[string]int64  `json:"popularEndpoints"`
	SlowQueries         []model.SlowQuery `json:"slowQueries"`
} // @Name Metrics

// GetMetrics
// @Summary Aggregated request metrics
// @Tags Metrics
// @Produce json
// @Success 200 {object} metricsTO
// @Router /v1/metrics [GET]
func (api *api) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, convertMetricsSnapshotToTO(api.eventLogService.GetMetrics()))
}

// ResetMetrics
// @Summary Reset the aggregated metrics
// @Tags Metrics
// @Success 204 "No Content"
// @Router /v1/metrics [DELETE]
func (api *api) ResetMetrics(c *gin.Context) {
	api.eventLogService.ResetMetrics()
	c.Status(http.StatusNoContent)
}

// GetRecentEvents
// @Summary Most recent events, newest first
// @Tags Events
// @Produce json
// @Param limit query int false "Maximum number of events"
// @Success 200 {array} model.LogRecord
// @Router /v1/events/recent [GET]
func (api *api) GetRecentEvents(c *gin.Context) {
	limit := defaultRecentEventLimit
	if limitString, ok := c.GetQuery("limit"); ok {
		parsed, err := strconv.Atoi(limitString)
		if err != nil || parsed <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrInvalidOrMissingRequestParameter.WithParam("param", "limit"))
			return
		}
		limit = parsed
	}
	if limit > maxRecentEventLimit {
		limit = maxRecentEventLimit
	}
	c.JSON(http.StatusOK, api.eventLogService.GetRecentEvents(limit))
}

func convertMetricsSnapshotToTO(snapshot model.MetricsSnapshot) metricsTO {
	userIDs := make([]string, 0, len(snapshot.ActiveUsers))
	for userID := range snapshot.ActiveUsers {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)
	slowQueries := snapshot.SlowQueries
	if slowQueries == nil {
		slowQueries = make([]model.SlowQuery, 0)
	}
	popularEndpoints := snapshot.PopularEndpoints
	if popularEndpoints == nil {
		popularEndpoints = make(map[string]int64)
	}
	return metricsTO{
		RequestCount:        snapshot.RequestCount,
		ErrorCount:          snapshot.ErrorCount,
		AverageResponseTime: snapshot.AverageResponseTime,
		ActiveUsers:         len(userIDs),
		ActiveUserIDs:       userIDs,
		PopularEndpoints:    popularEndpoints,
		SlowQueries:         slowQueries,
	}
}
