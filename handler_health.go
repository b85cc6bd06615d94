package ranchapi

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// BuildVersion - will be filled at build process in pipeline
var BuildVersion string

// ServiceName - will be filled at build process in pipeline
var ServiceName string

type healthCheck struct {
	Service       string   `json:"service"`
	Status        string   `json:"status"`
	ApiVersion    []string `json:"apiVersion"`
	BuildVersion  string   `json:"buildVersion"` // Docker build version
	Database      string   `json:"database"`
	EventLogMode  string   `json:"eventLogMode"`
	UptimeSeconds int64    `json:"uptimeSeconds"`
	MemStats      memStats `json:"memStats"`
}

type memStats struct {
	Alloc              string `json:"alloc"`
	TotalAlloc         string `json:"totalAlloc"`
	Sys                string `json:"sys"`
	HeapInUse          string `json:"heapInUse"`
	HeapAlloc          string `json:"headAlloc"`
	StackInUse         string `json:"stackInUse"`
	NumberOfGoRoutines int    `json:"numberOfGoRoutines"`
}

func (api *api) GetHealth(c *gin.Context) {
	defaultInfo := healthCheck{
		Service:      ServiceName,
		Status:       "running",
		ApiVersion:   []string{"v1"},
		BuildVersion: BuildVersion,
		Database:     "up",
		EventLogMode: api.config.EventLogSettings.Mode,
	}
	if ServiceName == "" {
		defaultInfo.Service = api.config.ApplicationName
	}
	if !api.startedAt.IsZero() {
		defaultInfo.UptimeSeconds = int64(time.Since(api.startedAt).Seconds())
	}
	status := http.StatusOK
	if api.dbConnector != nil {
		if err := api.dbConnector.Ping(); err != nil {
			defaultInfo.Status = "degraded"
			defaultInfo.Database = "down"
			status = http.StatusServiceUnavailable
		}
	}

	var memStat runtime.MemStats
	runtime.ReadMemStats(&memStat)

	defaultInfo.MemStats.Alloc = fmt.Sprintf("%v MiB", memStat.Alloc/1024/1024)
	defaultInfo.MemStats.TotalAlloc = fmt.Sprintf("%v MiB", memStat.TotalAlloc/1024/1024)
	defaultInfo.MemStats.Sys = fmt.Sprintf("%v MiB", memStat.Sys/1024/1024)
	defaultInfo.MemStats.HeapInUse = fmt.Sprintf("%v MiB", memStat.HeapInuse/1024/1024)
	defaultInfo.MemStats.HeapAlloc = fmt.Sprintf("%v MiB", memStat.HeapAlloc/1024/1024)
	defaultInfo.MemStats.StackInUse = fmt.Sprintf("%v MiB", memStat.StackInuse/1024/1024)
	defaultInfo.MemStats.NumberOfGoRoutines = runtime.NumGoroutine()

	c.JSON(status, defaultInfo)
}
