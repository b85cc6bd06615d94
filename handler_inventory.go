package ranchapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/herdwatch/ranchapi/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const medicineIDParam = "medicineId"

type medicineStockTO struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Unit       string          `json:"unit"`
	Quantity   decimal.Decimal `json:"quantity"`
	MinStock   decimal.Decimal `json:"minStock"`
	Status     StockStatus     `json:"status"`
	ExpiresAt  *time.Time      `json:"expiresAt"`
	CreatedAt  time.Time       `json:"createdAt"`
	ModifiedAt *time.Time      `json:"modifiedAt"`
} // @Name MedicineStock

type createMedicineTO struct {
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity"`
	MinStock  decimal.Decimal `json:"minStock"`
	ExpiresAt *time.Time      `json:"expiresAt"`
} // @Name CreateMedicine

type adjustStockTO struct {
	Delta  decimal.Decimal `json:"delta"`
	Reason string          `json:"reason"`
} // @Name AdjustStock

// GetMedicines
// @Summary List medicine stock with its status
// @Tags Inventory
// @Produce json
// @Success 200 {array} medicineStockTO
// @Router /v1/inventory/medicines [GET]
func (api *api) GetMedicines(c *gin.Context) {
	medicines, err := api.inventoryService.GetMedicines(c)
	if err != nil {
		api.abortWithError(c, err)
		return
	}
	medicineTOs := make([]medicineStockTO, len(medicines))
	for i := range medicines {
		medicineTOs[i] = convertMedicineStockToTO(medicines[i])
	}
	c.JSON(http.StatusOK, medicineTOs)
}

// CreateMedicine
// @Summary Add a medicine to the inventory
// @Tags Inventory
// @Accept json
// @Produce json
// @Param medicine body createMedicineTO true "Medicine"
// @Success 201 {object} medicineStockTO
// @Router /v1/inventory/medicines [POST]
func (api *api) CreateMedicine(c *gin.Context) {
	var request createMedicineTO
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Debug().Err(err).Msg("Create medicine failed! Can't parse request body!")
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrUnableToParseRequestBody)
		return
	}
	medicine, err := api.inventoryService.CreateMedicine(c, middleware.GetRequestContext(c), MedicineStock{
		Name:      request.Name,
		Unit:      request.Unit,
		Quantity:  request.Quantity,
		MinStock:  request.MinStock,
		ExpiresAt: request.ExpiresAt,
	})
	if err != nil {
		api.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, convertMedicineStockToTO(medicine))
}

// AdjustMedicineStock
// @Summary Adjust the quantity of a medicine by a signed delta
// @Tags Inventory
// @Accept json
// @Produce json
// @Param medicineId path string true "Medicine ID"
// @Param adjustment body adjustStockTO true "Adjustment"
// @Success 200 {object} medicineStockTO
// @Router /v1/inventory/medicines/{medicineId}/adjust [POST]
func (api *api) AdjustMedicineStock(c *gin.Context) {
	id, ok := parseUUIDParam(c, medicineIDParam)
	if !ok {
		return
	}
	var request adjustStockTO
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrUnableToParseRequestBody)
		return
	}
	medicine, err := api.inventoryService.AdjustStock(c, middleware.GetRequestContext(c), id, request.Delta, request.Reason)
	if err != nil {
		api.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, convertMedicineStockToTO(medicine))
}

func convertMedicineStockToTO(medicine MedicineStock) medicineStockTO {
	return medicineStockTO{
		ID:         medicine.ID,
		Name:       medicine.Name,
		Unit:       medicine.Unit,
		Quantity:   medicine.Quantity,
		MinStock:   medicine.MinStock,
		Status:     medicine.Status(),
		ExpiresAt:  medicine.ExpiresAt,
		CreatedAt:  medicine.CreatedAt,
		ModifiedAt: medicine.ModifiedAt,
	}
}
