package ranchapi

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/herdwatch/ranchapi/db"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	msgCreateAnimalFailed         = "create animal failed"
	msgEarTagAlreadyExists        = "an animal with this ear tag already exists"
	msgGetAnimalsFailed           = "get animals failed"
	msgCountAnimalsFailed         = "count animals failed"
	msgGetAnimalByIDFailed        = "get animal by id failed"
	msgAnimalNotFound             = "animal not found"
	msgUpdateAnimalFailed         = "update animal failed"
	msgUpdateAnimalLocationFailed = "update animal location failed"
	msgDeleteAnimalFailed         = "delete animal failed"
)

var (
	ErrCreateAnimalFailed         = errors.New(msgCreateAnimalFailed)
	ErrEarTagAlreadyExists        = errors.New(msgEarTagAlreadyExists)
	ErrGetAnimalsFailed           = errors.New(msgGetAnimalsFailed)
	ErrCountAnimalsFailed         = errors.New(msgCountAnimalsFailed)
	ErrGetAnimalByIDFailed        = errors.New(msgGetAnimalByIDFailed)
	ErrAnimalNotFound             = errors.New(msgAnimalNotFound)
	ErrUpdateAnimalFailed         = errors.New(msgUpdateAnimalFailed)
	ErrUpdateAnimalLocationFailed = errors.New(msgUpdateAnimalLocationFailed)
	ErrDeleteAnimalFailed         = errors.New(msgDeleteAnimalFailed)
)

var animalSortColumns = map[string]string{
	"earTag":    "ear_tag",
	"name":      `"name"`,
	"breed":     "breed",
	"birthDate": "birth_date",
	"weightKg":  "weight_kg",
	"status":    "status",
	"createdAt": "created_at",
}

type animalDAO struct {
	ID         uuid.UUID       `db:"id"`
	EarTag     string          `db:"ear_tag"`
	Name       string          `db:"name"`
	Breed      string          `db:"breed"`
	Sex        string          `db:"sex"`
	BirthDate  sql.NullTime    `db:"birth_date"`
	WeightKg   decimal.Decimal `db:"weight_kg"`
	Latitude   sql.NullFloat64 `db:"latitude"`
	Longitude  sql.NullFloat64 `db:"longitude"`
	Address    string          `db:"address"`
	Status     string          `db:"status"`
	CreatedAt  time.Time       `db:"created_at"`
	ModifiedAt sql.NullTime    `db:"modified_at"`
	DeletedAt  sql.NullTime    `db:"deleted_at"`
}

type CattleRepository interface {
	CreateAnimal(ctx context.Context, animal Animal) (uuid.UUID, error)
	GetAnimals(ctx context.Context, pageable Pageable) ([]Animal, error)
	CountAnimals(ctx context.Context) (int, error)
	GetAnimalByID(ctx context.Context, id uuid.UUID) (Animal, error)
	GetAnimalByIDForUpdate(ctx context.Context, id uuid.UUID) (Animal, error)
	UpdateAnimal(ctx context.Context, animal Animal) error
	UpdateAnimalLocation(ctx context.Context, animal Animal) error
	DeleteAnimal(ctx context.Context, id uuid.UUID) error
	CreateTransaction() (db.DbConnector, error)
	WithTransaction(tx db.DbConnector) CattleRepository
}

type cattleRepository struct {
	db       db.DbConnector
	dbSchema string
}

func NewCattleRepository(db db.DbConnector, dbSchema string) CattleRepository {
	log.Trace().Msg("Creating new cattle repository")
	return &cattleRepository{
		db:       db,
		dbSchema: dbSchema,
	}
}

func (r *cattleRepository) CreateAnimal(ctx context.Context, animal Animal) (uuid.UUID, error) {
	query := fmt.Sprintf(`INSERT INTO %s.rc_animals(id, ear_tag, "name", breed, sex, birth_date, weight_kg, latitude, longitude, address, status)
		VALUES(:id, :ear_tag, :name, :breed, :sex, :birth_date, :weight_kg, :latitude, :longitude, :address, :status);`, r.dbSchema)
	if animal.ID == uuid.Nil {
		animal.ID = uuid.New()
	}
	_, err := r.db.NamedExecContext(ctx, query, convertAnimalToDAO(animal))
	if err != nil {
		if db.IsErrorCode(err, db.UniqueViolationErrorCode) {
			return uuid.Nil, ErrEarTagAlreadyExists
		}
		log.Error().Err(err).Msg(msgCreateAnimalFailed)
		return uuid.Nil, ErrCreateAnimalFailed
	}
	return animal.ID, nil
}

func (r *cattleRepository) GetAnimals(ctx context.Context, pageable Pageable) ([]Animal, error) {
	paginationQueryPart, err := applyPagination(pageable, animalSortColumns, "a", "a.ear_tag")
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT * FROM %s.rc_animals a WHERE a.deleted_at IS NULL%s;`, r.dbSchema, paginationQueryPart)
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		log.Error().Err(err).Msg(msgGetAnimalsFailed)
		return nil, ErrGetAnimalsFailed
	}
	defer rows.Close()
	animals := make([]Animal, 0)
	for rows.Next() {
		var dao animalDAO
		err = rows.StructScan(&dao)
		if err != nil {
			log.Error().Err(err).Msg(msgGetAnimalsFailed)
			return nil, ErrGetAnimalsFailed
		}
		animals = append(animals, convertAnimalDaoToAnimal(dao))
	}
	return animals, nil
}

func (r *cattleRepository) CountAnimals(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s.rc_animals WHERE deleted_at IS NULL;`, r.dbSchema)
	var count int
	err := r.db.QueryRowxContext(ctx, query).Scan(&count)
	if err != nil {
		log.Error().Err(err).Msg(msgCountAnimalsFailed)
		return 0, ErrCountAnimalsFailed
	}
	return count, nil
}

func (r *cattleRepository) GetAnimalByID(ctx context.Context, id uuid.UUID) (Animal, error) {
	return r.getAnimalByID(ctx, id, "")
}

// GetAnimalByIDForUpdate locks the row for the rest of the surrounding transaction.
func (r *cattleRepository) GetAnimalByIDForUpdate(ctx context.Context, id uuid.UUID) (Animal, error) {
	return r.getAnimalByID(ctx, id, " FOR UPDATE")
}

func (r *cattleRepository) getAnimalByID(ctx context.Context, id uuid.UUID, lockClause string) (Animal, error) {
	query := fmt.Sprintf(`SELECT * FROM %s.rc_animals WHERE id = $1 AND deleted_at IS NULL%s;`, r.dbSchema, lockClause)
	var dao animalDAO
	err := r.db.QueryRowxContext(ctx, query, id).StructScan(&dao)
	if err != nil {
		if err == sql.ErrNoRows {
			return Animal{}, ErrAnimalNotFound
		}
		log.Error().Err(err).Msg(msgGetAnimalByIDFailed)
		return Animal{}, ErrGetAnimalByIDFailed
	}
	return convertAnimalDaoToAnimal(dao), nil
}

func (r *cattleRepository) UpdateAnimal(ctx context.Context, animal Animal) error {
	query := fmt.Sprintf(`UPDATE %s.rc_animals SET ear_tag = :ear_tag, "name" = :name, breed = :breed, sex = :sex,
			birth_date = :birth_date, weight_kg = :weight_kg, status = :status, modified_at = timezone('utc', now())
		WHERE id = :id AND deleted_at IS NULL;`, r.dbSchema)
	result, err := r.db.NamedExecContext(ctx, query, convertAnimalToDAO(animal))
	if err != nil {
		if db.IsErrorCode(err, db.UniqueViolationErrorCode) {
			return ErrEarTagAlreadyExists
		}
		log.Error().Err(err).Msg(msgUpdateAnimalFailed)
		return ErrUpdateAnimalFailed
	}
	return expectAffectedRow(result, msgUpdateAnimalFailed, ErrUpdateAnimalFailed)
}

func (r *cattleRepository) UpdateAnimalLocation(ctx context.Context, animal Animal) error {
	query := fmt.Sprintf(`UPDATE %s.rc_animals SET latitude = :latitude, longitude = :longitude, address = :address,
			modified_at = timezone('utc', now())
		WHERE id = :id AND deleted_at IS NULL;`, r.dbSchema)
	result, err := r.db.NamedExecContext(ctx, query, convertAnimalToDAO(animal))
	if err != nil {
		log.Error().Err(err).Msg(msgUpdateAnimalLocationFailed)
		return ErrUpdateAnimalLocationFailed
	}
	return expectAffectedRow(result, msgUpdateAnimalLocationFailed, ErrUpdateAnimalLocationFailed)
}

func (r *cattleRepository) DeleteAnimal(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`UPDATE %s.rc_animals SET deleted_at = timezone('utc', now()) WHERE id = $1 AND deleted_at IS NULL;`, r.dbSchema)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error().Err(err).Msg(msgDeleteAnimalFailed)
		return ErrDeleteAnimalFailed
	}
	return expectAffectedRow(result, msgDeleteAnimalFailed, ErrDeleteAnimalFailed)
}

func (r *cattleRepository) CreateTransaction() (db.DbConnector, error) {
	return r.db.CreateTransactionConnector()
}

func (r *cattleRepository) WithTransaction(tx db.DbConnector) CattleRepository {
	if tx == nil {
		return r
	}

	txRepo := *r
	txRepo.db = tx
	return &txRepo
}

// expectAffectedRow maps "no row touched" to ErrAnimalNotFound.
func expectAffectedRow(result sql.Result, msg string, failure error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		log.Error().Err(err).Msg(msg)
		return failure
	}
	if affected == 0 {
		return ErrAnimalNotFound
	}
	return nil
}

func convertAnimalToDAO(animal Animal) animalDAO {
	dao := animalDAO{
		ID:        animal.ID,
		EarTag:    animal.EarTag,
		Name:      animal.Name,
		Breed:     animal.Breed,
		Sex:       string(animal.Sex),
		BirthDate: timePointerToNullTime(animal.BirthDate),
		WeightKg:  animal.WeightKg,
		Status:    string(animal.Status),
		CreatedAt: animal.CreatedAt,
	}
	if animal.Location != nil {
		dao.Latitude = sql.NullFloat64{Float64: animal.Location.Latitude, Valid: true}
		dao.Longitude = sql.NullFloat64{Float64: animal.Location.Longitude, Valid: true}
		dao.Address = animal.Location.Address
	}
	return dao
}

func convertAnimalDaoToAnimal(dao animalDAO) Animal {
	return Animal{
		ID:         dao.ID,
		EarTag:     dao.EarTag,
		Name:       dao.Name,
		Breed:      dao.Breed,
		Sex:        AnimalSex(dao.Sex),
		BirthDate:  nullTimeToTimePointer(dao.BirthDate),
		WeightKg:   dao.WeightKg,
		Location:   nullCoordinatesToLocation(dao.Latitude, dao.Longitude, dao.Address),
		Status:     AnimalStatus(dao.Status),
		CreatedAt:  dao.CreatedAt,
		ModifiedAt: nullTimeToTimePointer(dao.ModifiedAt),
	}
}
