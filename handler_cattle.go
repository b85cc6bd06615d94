package ranchapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/herdwatch/ranchapi/eventlog/service"
	"github.com/herdwatch/ranchapi/middleware"
	"github.com/herdwatch/ranchapi/server"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type animalTO struct {
	ID          uuid.UUID       `json:"id"`
	EarTag      string          `json:"earTag"`
	Name        string          `json:"name"`
	Breed       string          `json:"breed"`
	Sex         AnimalSex       `json:"sex"`
	BirthDate   *time.Time      `json:"birthDate"`
	AgeInMonths *int            `json:"ageInMonths"`
	WeightKg    decimal.Decimal `json:"weightKg"`
	Location    *model.Location `json:"location"`
	Status      AnimalStatus    `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	ModifiedAt  *time.Time      `json:"modifiedAt"`
} // @Name Animal

type animalRequestTO struct {
	EarTag    string          `json:"earTag"`
	Name      string          `json:"name"`
	Breed     string          `json:"breed"`
	Sex       AnimalSex       `json:"sex"`
	BirthDate *time.Time      `json:"birthDate"`
	WeightKg  decimal.Decimal `json:"weightKg"`
	Location  *model.Location `json:"location"`
	Status    AnimalStatus    `json:"status"`
} // @Name AnimalRequest

type moveAnimalTO struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
	Reason    string   `json:"reason"`
} // @Name MoveAnimal

type veterinaryActivityTO struct {
	Activity service.VetActivity    `json:"activity"`
	Details  map[string]interface{} `json:"details"`
	Location *model.Location        `json:"location"`
} // @Name VeterinaryActivity

// GetAnimals
// @Summary List animals
// @Tags Cattle
// @Produce json
// @Param pageable query Pageable false "Pagination"
// @Success 200 {object} Page
// @Router /v1/cattle [GET]
func (api *api) GetAnimals(c *gin.Context) {
	var pageable Pageable
	if err := c.ShouldBindQuery(&pageable); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrInvalidOrMissingRequestParameter.WithParam("param", "pageable"))
		return
	}
	pageable = pageable.Normalized()
	animals, totalCount, err := api.cattleService.GetAnimals(c, pageable)
	if err != nil {
		api.abortWithError(c, err)
		return
	}
	now := time.Now()
	animalTOs := make([]animalTO, len(animals))
	for i := range animals {
		animalTOs[i] = convertAnimalToAnimalTO(animals[i], now)
	}
	c.JSON(http.StatusOK, NewPage(pageable, totalCount, animalTOs))
}

// CreateAnimal
// @Summary Register an animal
// @Tags Cattle
// @Accept json
// @Produce json
// @Param animal body animalRequestTO true "Animal"
// @Success 201 {object} animalTO
// @Router /v1/cattle [POST]
func (api *api) CreateAnimal(c *gin.Context) {
	var request animalRequestTO
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Debug().Err(err).Msg("Create animal failed! Can't parse request body!")
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrUnableToParseRequestBody)
		return
	}
	animal, err := api.cattleService.CreateAnimal(c, middleware.GetRequestContext(c), convertAnimalRequestTOToAnimal(request))
	if err != nil {
		api.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, convertAnimalToAnimalTO(animal, time.Now()))
}

// GetAnimalByID
// @Summary Get an animal
// @Tags Cattle
// @Produce json
// @Param cattleId path string true "Animal ID"
// @Success 200 {object} animalTO
// @Router /v1/cattle/{cattleId} [GET]
func (api *api) GetAnimalByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, server.CattleIDParam)
	if !ok {
		return
	}
	animal, err := api.cattleService.GetAnimalByID(c, middleware.GetRequestContext(c), id)
	if err != nil {
		api.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, convertAnimalToAnimalTO(animal, time.Now()))
}

// UpdateAnimal
// @Summary Update an animal
// @Tags Cattle
// @Accept json
// @Produce json
// @Param cattleId path string true "Animal ID"
// @Param animal body animalRequestTO true "Animal"
// @Success 200 {object} animalTO
// @Router /v1/cattle/{cattleId} [PUT]
func (api *api) UpdateAnimal(c *gin.Context) {
	id, ok := parseUUIDParam(c, server.CattleIDParam)
	if !ok {
		return
	}
	var request animalRequestTO
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Debug().Err(err).Msg("Update animal failed! Can't parse request body!")
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrUnableToParseRequestBody)
		return
	}
	animal := convertAnimalRequestTOToAnimal(request)
	animal.ID = id
	if animal.Status == "" {
		animal.Status = AnimalActive
	}
	updated, err := api.cattleService.UpdateAnimal(c, middleware.GetRequestContext(c), animal)
	if err != nil {
		api.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, convertAnimalToAnimalTO(updated, time.Now()))
}

// DeleteAnimal
// @Summary Remove an animal from the registry
// @Tags Cattle
// @Param cattleId path string true "Animal ID"
// @Success 204 "No Content"
// @Router /v1/cattle/{cattleId} [DELETE]
func (api *api) DeleteAnimal(c *gin.Context) {
	id, ok := parseUUIDParam(c, server.CattleIDParam)
	if !ok {
		return
	}
	if err := api.cattleService.DeleteAnimal(c, middleware.GetRequestContext(c), id); err != nil {
		api.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MoveAnimal
// @Summary Record a location change
// @Tags Cattle
// @Accept json
// @Produce json
// @Param cattleId path string true "Animal ID"
// @Param location body moveAnimalTO true "Target location"
// @Success 200 {object} animalTO
// @Router /v1/cattle/{cattleId}/location [POST]
func (api *api) MoveAnimal(c *gin.Context) {
	id, ok := parseUUIDParam(c, server.CattleIDParam)
	if !ok {
		return
	}
	var request moveAnimalTO
	if err := c.ShouldBindJSON(&request); err != nil || request.Latitude == nil || request.Longitude == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrInvalidRequestBody)
		return
	}
	to := model.Location{Latitude: *request.Latitude, Longitude: *request.Longitude, Address: request.Address}
	animal, err := api.cattleService.MoveAnimal(c, middleware.GetRequestContext(c), id, to, request.Reason)
	if err != nil {
		api.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, convertAnimalToAnimalTO(animal, time.Now()))
}

// RecordVeterinaryActivity
// @Summary Record a veterinary activity
// @Tags Cattle
// @Accept json
// @Param cattleId path string true "Animal ID"
// @Param activity body veterinaryActivityTO true "Activity"
// @Success 201 "Created"
// @Router /v1/cattle/{cattleId}/veterinary [POST]
func (api *api) RecordVeterinaryActivity(c *gin.Context) {
	id, ok := parseUUIDParam(c, server.CattleIDParam)
	if !ok {
		return
	}
	var request veterinaryActivityTO
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrUnableToParseRequestBody)
		return
	}
	_, err := api.cattleService.RecordVeterinaryActivity(c, middleware.GetRequestContext(c), id, request.Activity, request.Details, request.Location)
	if err != nil {
		api.abortWithError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// GetCattleEvents
// @Summary Recent events of one animal, newest first
// @Tags Cattle
// @Produce json
// @Param cattleId path string true "Animal ID"
// @Success 200 {array} model.LogRecord
// @Router /v1/cattle/{cattleId}/events [GET]
func (api *api) GetCattleEvents(c *gin.Context) {
	id, ok := parseUUIDParam(c, server.CattleIDParam)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, api.eventLogService.GetCattleEvents(id.String()))
}

func parseUUIDParam(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrInvalidOrMissingRequestParameter.WithParam("param", param))
		return uuid.Nil, false
	}
	return id, true
}

func convertAnimalRequestTOToAnimal(request animalRequestTO) Animal {
	return Animal{
		EarTag:    request.EarTag,
		Name:      request.Name,
		Breed:     request.Breed,
		Sex:       request.Sex,
		BirthDate: request.BirthDate,
		WeightKg:  request.WeightKg,
		Location:  request.Location,
		Status:    request.Status,
	}
}

func convertAnimalToAnimalTO(animal Animal, now time.Time) animalTO {
	to := animalTO{
		ID:         animal.ID,
		EarTag:     animal.EarTag,
		Name:       animal.Name,
		Breed:      animal.Breed,
		Sex:        animal.Sex,
		BirthDate:  animal.BirthDate,
		WeightKg:   animal.WeightKg,
		Location:   animal.Location,
		Status:     animal.Status,
		CreatedAt:  animal.CreatedAt,
		ModifiedAt: animal.ModifiedAt,
	}
	if animal.BirthDate != nil {
		age := AgeInMonths(*animal.BirthDate, now)
		to.AgeInMonths = &age
	}
	return to
}
