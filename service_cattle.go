package ranchapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/herdwatch/ranchapi/eventlog/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type CattleService interface {
	CreateAnimal(ctx context.Context, rc *model.RequestContext, animal Animal) (Animal, error)
	GetAnimals(ctx context.Context, pageable Pageable) ([]Animal, int, error)
	GetAnimalByID(ctx context.Context, rc *model.RequestContext, id uuid.UUID) (Animal, error)
	UpdateAnimal(ctx context.Context, rc *model.RequestContext, animal Animal) (Animal, error)
	DeleteAnimal(ctx context.Context, rc *model.RequestContext, id uuid.UUID) error
	MoveAnimal(ctx context.Context, rc *model.RequestContext, id uuid.UUID, to model.Location, reason string) (Animal, error)
	RecordVeterinaryActivity(ctx context.Context, rc *model.RequestContext, id uuid.UUID, activity service.VetActivity,
		details map[string]interface{}, location *model.Location) (Animal, error)
}

type cattleService struct {
	cattleRepository CattleRepository
	eventLogService  service.EventLogService
}

func NewCattleService(cattleRepository CattleRepository, eventLogService service.EventLogService) CattleService {
	log.Trace().Msg("Creating new cattle service")
	return &cattleService{
		cattleRepository: cattleRepository,
		eventLogService:  eventLogService,
	}
}

func (s *cattleService) CreateAnimal(ctx context.Context, rc *model.RequestContext, animal Animal) (Animal, error) {
	if animal.Status == "" {
		animal.Status = AnimalActive
	}
	if err := validateAnimal(&animal); err != nil {
		return Animal{}, err
	}
	id, err := s.cattleRepository.CreateAnimal(ctx, animal)
	if err != nil {
		return Animal{}, err
	}
	created, err := s.cattleRepository.GetAnimalByID(ctx, id)
	if err != nil {
		return Animal{}, err
	}

	s.eventLogService.LogCattleEvent(model.EventCattleCreated, fmt.Sprintf("Cattle %s registered", created.EarTag), rc,
		cattleMetadata(created, map[string]interface{}{
			"breed":    created.Breed,
			"sex":      string(created.Sex),
			"weightKg": created.WeightKg.String(),
		}))
	return created, nil
}

func (s *cattleService) GetAnimals(ctx context.Context, pageable Pageable) ([]Animal, int, error) {
	animals, err := s.cattleRepository.GetAnimals(ctx, pageable)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.cattleRepository.CountAnimals(ctx)
	if err != nil {
		return nil, 0, err
	}
	return animals, count, nil
}

func (s *cattleService) GetAnimalByID(ctx context.Context, rc *model.RequestContext, id uuid.UUID) (Animal, error) {
	animal, err := s.cattleRepository.GetAnimalByID(ctx, id)
	if err != nil {
		return Animal{}, err
	}
	record := model.LogRecord{
		Level:        model.Debug,
		EventType:    model.EventCattleViewed,
		Message:      fmt.Sprintf("Cattle %s viewed", animal.EarTag),
		CattleID:     animal.ID.String(),
		CattleEarTag: animal.EarTag,
	}
	record.ApplyRequestContext(rc)
	s.eventLogService.Record(record)
	return animal, nil
}

func (s *cattleService) UpdateAnimal(ctx context.Context, rc *model.RequestContext, animal Animal) (Animal, error) {
	if err := validateAnimal(&animal); err != nil {
		return Animal{}, err
	}
	previous, err := s.cattleRepository.GetAnimalByID(ctx, animal.ID)
	if err != nil {
		return Animal{}, err
	}
	if err = s.cattleRepository.UpdateAnimal(ctx, animal); err != nil {
		return Animal{}, err
	}
	updated, err := s.cattleRepository.GetAnimalByID(ctx, animal.ID)
	if err != nil {
		return Animal{}, err
	}

	metadata := map[string]interface{}{}
	if previous.Status != updated.Status {
		metadata["previousStatus"] = string(previous.Status)
		metadata["status"] = string(updated.Status)
	}
	if !previous.WeightKg.Equal(updated.WeightKg) {
		metadata["previousWeightKg"] = previous.WeightKg.String()
		metadata["weightKg"] = updated.WeightKg.String()
	}
	s.eventLogService.LogCattleEvent(model.EventCattleUpdated, fmt.Sprintf("Cattle %s updated", updated.EarTag), rc,
		cattleMetadata(updated, metadata))
	return updated, nil
}

func (s *cattleService) DeleteAnimal(ctx context.Context, rc *model.RequestContext, id uuid.UUID) error {
	animal, err := s.cattleRepository.GetAnimalByID(ctx, id)
	if err != nil {
		return err
	}
	if err = s.cattleRepository.DeleteAnimal(ctx, id); err != nil {
		return err
	}
	s.eventLogService.LogCattleEvent(model.EventCattleDeleted, fmt.Sprintf("Cattle %s removed from the registry", animal.EarTag), rc,
		cattleMetadata(animal, nil))
	return nil
}

func (s *cattleService) MoveAnimal(ctx context.Context, rc *model.RequestContext, id uuid.UUID, to model.Location, reason string) (Animal, error) {
	if !IsValidCoordinate(to.Latitude, to.Longitude) {
		return Animal{}, ErrInvalidCoordinates
	}

	transaction, err := s.cattleRepository.CreateTransaction()
	if err != nil {
		return Animal{}, err
	}
	animal, err := s.cattleRepository.WithTransaction(transaction).GetAnimalByIDForUpdate(ctx, id)
	if err != nil {
		_ = transaction.Rollback()
		return Animal{}, err
	}
	from := animal.Location
	animal.Location = &to
	if err = s.cattleRepository.WithTransaction(transaction).UpdateAnimalLocation(ctx, animal); err != nil {
		_ = transaction.Rollback()
		return Animal{}, err
	}
	if err = transaction.Commit(); err != nil {
		return Animal{}, err
	}

	s.eventLogService.LogLocationChange(animal.Ref(), from, &to, rc, reason)
	return animal, nil
}

func (s *cattleService) RecordVeterinaryActivity(ctx context.Context, rc *model.RequestContext, id uuid.UUID, activity service.VetActivity,
	details map[string]interface{}, location *model.Location) (Animal, error) {
	if !activity.IsValid() {
		return Animal{}, ErrInvalidVetActivity
	}
	if location != nil && !IsValidCoordinate(location.Latitude, location.Longitude) {
		return Animal{}, ErrInvalidCoordinates
	}
	animal, err := s.cattleRepository.GetAnimalByID(ctx, id)
	if err != nil {
		return Animal{}, err
	}
	if location == nil {
		location = animal.Location
	}
	s.eventLogService.LogVeterinaryActivity(activity, animal.Ref(), details, rc, location)
	return animal, nil
}

func validateAnimal(animal *Animal) error {
	animal.EarTag = strings.TrimSpace(animal.EarTag)
	if animal.EarTag == "" {
		return ErrInvalidEarTag
	}
	if !animal.Sex.IsValid() {
		return ErrInvalidAnimalSex
	}
	if !animal.Status.IsValid() {
		return ErrInvalidAnimalStatus
	}
	if animal.WeightKg.LessThan(decimal.Zero) {
		return ErrInvalidWeight
	}
	if animal.Location != nil && !IsValidCoordinate(animal.Location.Latitude, animal.Location.Longitude) {
		return ErrInvalidCoordinates
	}
	return nil
}

// cattleMetadata adds the keys that the event log lifts into the record's cattle fields.
func cattleMetadata(animal Animal, metadata map[string]interface{}) map[string]interface{} {
	if metadata == nil {
		metadata = make(map[string]interface{}, 2)
	}
	metadata["cattleId"] = animal.ID.String()
	metadata["earTag"] = animal.EarTag
	return metadata
}
