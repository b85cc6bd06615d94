package ranchapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/herdwatch/ranchapi/config"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/herdwatch/ranchapi/eventlog/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRanchApi struct {
	engine          *gin.Engine
	eventLogService service.EventLogService
}

func setupTestApi(t *testing.T, schemaName string) testRanchApi {
	dbConnector, _ := setupDbConnectorAndRunMigration(schemaName)
	eventLogService := newTestEventLogService()

	configuration := &config.Configuration{}
	configuration.Authorization = false
	configuration.PermittedOrigin = "*"
	configuration.RequestTimeoutSeconds = 5
	configuration.ApplicationName = "ranchapi_test"

	engine := gin.New()
	newAPI(engine, configuration, ApiDependencies{
		DbConnector:      dbConnector,
		CattleService:    NewCattleService(NewCattleRepository(dbConnector, schemaName), eventLogService),
		InventoryService: NewInventoryService(NewMedicineRepository(dbConnector, schemaName), eventLogService),
		EventLogService:  eventLogService,
	})
	require.NotNil(t, engine)
	return testRanchApi{engine: engine, eventLogService: eventLogService}
}

func (a testRanchApi) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	request := httptest.NewRequest(method, path, bytes.NewReader(payload))
	request.Header.Set("Content-Type", "application/json")
	responseRecorder := httptest.NewRecorder()
	a.engine.ServeHTTP(responseRecorder, request)
	return responseRecorder
}

func (a testRanchApi) countEvents(eventType model.EventType) int {
	count := 0
	for _, record := range a.eventLogService.GetRecentEvents(0) {
		if record.EventType == eventType {
			count++
		}
	}
	return count
}

func TestCattleEndpoints(t *testing.T) {
	testApi := setupTestApi(t, "cattle_api_test")

	response := testApi.do(http.MethodPost, "/v1/cattle", map[string]interface{}{
		"earTag":    "MX-500",
		"name":      "Canela",
		"breed":     "Charolais",
		"sex":       "FEMALE",
		"birthDate": "2022-01-10T00:00:00Z",
		"weightKg":  "380.5",
		"location":  map[string]interface{}{"latitude": 19.4326, "longitude": -99.1332},
	})
	require.Equal(t, http.StatusCreated, response.Code, response.Body.String())
	var created animalTO
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &created))
	assert.Equal(t, "MX-500", created.EarTag)
	assert.Equal(t, AnimalActive, created.Status)
	require.NotNil(t, created.AgeInMonths)

	assert.Equal(t, 1, testApi.countEvents(model.AuditEventType("CREATE", "cattle")))

	response = testApi.do(http.MethodPost, "/v1/cattle", map[string]interface{}{"earTag": "MX-500", "sex": "MALE"})
	assert.Equal(t, http.StatusConflict, response.Code)
	assert.Equal(t, 1, testApi.countEvents(model.AuditEventType("CREATE", "cattle")))

	response = testApi.do(http.MethodPost, "/v1/cattle", map[string]interface{}{"earTag": "MX-501", "sex": "STEER"})
	assert.Equal(t, http.StatusBadRequest, response.Code)
	assert.Contains(t, response.Body.String(), msgInvalidAnimalSex)

	response = testApi.do(http.MethodGet, "/v1/cattle/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, response.Code)

	response = testApi.do(http.MethodGet, "/v1/cattle/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, response.Code)

	response = testApi.do(http.MethodGet, "/v1/cattle?page=0&pageSize=10&sort=earTag&direction=asc", nil)
	require.Equal(t, http.StatusOK, response.Code)
	var page struct {
		Items      []animalTO `json:"content"`
		TotalCount int        `json:"totalCount"`
	}
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &page))
	assert.Equal(t, 1, page.TotalCount)
	require.Len(t, page.Items, 1)

	response = testApi.do(http.MethodGet, "/v1/cattle?sort=password", nil)
	assert.Equal(t, http.StatusBadRequest, response.Code)

	response = testApi.do(http.MethodPost, "/v1/cattle/"+created.ID.String()+"/location", map[string]interface{}{
		"latitude": 20.6597, "longitude": -103.3496, "reason": "sold to neighbour",
	})
	assert.Equal(t, http.StatusOK, response.Code)

	response = testApi.do(http.MethodPost, "/v1/cattle/"+created.ID.String()+"/location", map[string]interface{}{"address": "nowhere"})
	assert.Equal(t, http.StatusBadRequest, response.Code)

	response = testApi.do(http.MethodPost, "/v1/cattle/"+created.ID.String()+"/veterinary", map[string]interface{}{
		"activity": "treatment", "details": map[string]interface{}{"drug": "Oxytetracycline"},
	})
	assert.Equal(t, http.StatusCreated, response.Code)

	response = testApi.do(http.MethodGet, "/v1/cattle/"+created.ID.String()+"/events", nil)
	require.Equal(t, http.StatusOK, response.Code)
	var events []model.LogRecord
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &events))
	require.NotEmpty(t, events)
	assert.Equal(t, model.AuditEventType("CREATE", "veterinary"), events[0].EventType)

	response = testApi.do(http.MethodDelete, "/v1/cattle/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, response.Code)

	response = testApi.do(http.MethodGet, "/v1/cattle/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, response.Code)

	response = testApi.do(http.MethodDelete, "/v1/cattle/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, response.Code)
	assert.Equal(t, 1, testApi.countEvents(model.AuditEventType("DELETE", "cattle")))

	response = testApi.do(http.MethodPut, "/v1/cattle/"+created.ID.String(), map[string]interface{}{"earTag": "MX-500", "sex": "FEMALE"})
	assert.Equal(t, http.StatusNotFound, response.Code)
	assert.Equal(t, 0, testApi.countEvents(model.AuditEventType("UPDATE", "cattle")))
}

func TestInventoryEndpoints(t *testing.T) {
	testApi := setupTestApi(t, "inventory_api_test")

	response := testApi.do(http.MethodPost, "/v1/inventory/medicines", map[string]interface{}{
		"name": "Ivermectin", "unit": "ml", "quantity": "200", "minStock": "100",
	})
	require.Equal(t, http.StatusCreated, response.Code, response.Body.String())
	var medicine medicineStockTO
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &medicine))
	assert.Equal(t, StockOK, medicine.Status)

	response = testApi.do(http.MethodPost, "/v1/inventory/medicines/"+medicine.ID.String()+"/adjust", map[string]interface{}{
		"delta": "-120", "reason": "deworming round",
	})
	require.Equal(t, http.StatusOK, response.Code)
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &medicine))
	assert.Equal(t, StockLow, medicine.Status)

	response = testApi.do(http.MethodPost, "/v1/inventory/medicines/"+medicine.ID.String()+"/adjust", map[string]interface{}{"delta": "-500"})
	assert.Equal(t, http.StatusBadRequest, response.Code)

	response = testApi.do(http.MethodGet, "/v1/inventory/medicines", nil)
	require.Equal(t, http.StatusOK, response.Code)
	var medicines []medicineStockTO
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &medicines))
	require.Len(t, medicines, 1)
	assert.True(t, decimal.NewFromInt(80).Equal(medicines[0].Quantity))
}

func TestMetricsAndRecentEventEndpoints(t *testing.T) {
	testApi := setupTestApi(t, "metrics_api_test")

	response := testApi.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, response.Code)

	response = testApi.do(http.MethodGet, "/v1/metrics", nil)
	require.Equal(t, http.StatusOK, response.Code)
	var metrics metricsTO
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &metrics))
	// health entry + exit, metrics entry
	assert.Equal(t, int64(3), metrics.RequestCount)
	assert.Equal(t, int64(1), metrics.PopularEndpoints["/health"])
	assert.NotNil(t, metrics.SlowQueries)

	response = testApi.do(http.MethodGet, "/v1/events/recent?limit=2", nil)
	require.Equal(t, http.StatusOK, response.Code)
	var events []model.LogRecord
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &events))
	assert.Len(t, events, 2)

	response = testApi.do(http.MethodGet, "/v1/events/recent?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, response.Code)

	response = testApi.do(http.MethodDelete, "/v1/metrics", nil)
	assert.Equal(t, http.StatusNoContent, response.Code)
	// the delete's own exit record lands after the reset
	assert.Equal(t, int64(1), testApi.eventLogService.GetMetrics().RequestCount)
}
