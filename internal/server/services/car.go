package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/dmitrijs2005/carmarket/internal/server/repositories/cars"
)

// CarFields are the caller-supplied fields of a new listing. Status and
// images are never taken from the caller.
type CarFields struct {
	Title          string
	Make           string
	Description    *string
	Price          *float64
	FactoryOptions []string
	Highlights     []string
	KeyFeatures    []models.KeyValue
	Specifications []models.KeyValue
}

// DeleteResult acknowledges a removed listing.
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}

// CarService manages listings. Every mutation loads the listing first so that
// a missing listing (ErrorNotFound) and a foreign one (ErrorForbidden) are
// reported distinctly.
type CarService struct {
	cars cars.Repository
}

func NewCarService(repo cars.Repository) *CarService {
	return &CarService{cars: repo}
}

// ValidateFields checks the fields of a new listing.
func ValidateFields(f CarFields) error {
	if strings.TrimSpace(f.Title) == "" {
		return common.Validationf("title should not be empty")
	}
	if strings.TrimSpace(f.Make) == "" {
		return common.Validationf("make should not be empty")
	}
	if f.Price != nil && *f.Price < 0 {
		return common.Validationf("price must not be less than 0")
	}
	return nil
}

// ValidatePatch checks the provided fields of a partial update.
func ValidatePatch(p models.CarPatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return common.Validationf("title should not be empty")
	}
	if p.Make != nil && strings.TrimSpace(*p.Make) == "" {
		return common.Validationf("make should not be empty")
	}
	if p.Price != nil && *p.Price < 0 {
		return common.Validationf("price must not be less than 0")
	}
	return nil
}

func (s *CarService) Create(ctx context.Context, f CarFields, ownerID string, imagePaths []string) (*models.Car, error) {
	if err := ValidateFields(f); err != nil {
		return nil, err
	}

	car := &models.Car{
		Title:          f.Title,
		Make:           f.Make,
		Description:    f.Description,
		Images:         imagePaths,
		FactoryOptions: f.FactoryOptions,
		Highlights:     f.Highlights,
		KeyFeatures:    f.KeyFeatures,
		Specifications: f.Specifications,
		Status:         models.StatusUnsold,
		UserID:         ownerID,
	}
	if f.Price != nil {
		car.Price = *f.Price
	}
	car.Normalize()

	created, err := s.cars.Create(ctx, car)
	if err != nil {
		return nil, fmt.Errorf("error creating car: %w", err)
	}
	return created, nil
}

func (s *CarService) FindAll(ctx context.Context) ([]models.Car, error) {
	list, err := s.cars.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing cars: %w", err)
	}
	return list, nil
}

func (s *CarService) FindOne(ctx context.Context, id string) (*models.Car, error) {
	return s.cars.FindByID(ctx, id)
}

// Update applies the provided fields. imagePaths replaces the stored images
// only when non-empty. Status cannot be changed here. A patch that changes
// nothing returns the stored listing without a write.
func (s *CarService) Update(ctx context.Context, id string, patch models.CarPatch, ownerID string, imagePaths []string) (*models.Car, error) {
	if err := ValidatePatch(patch); err != nil {
		return nil, err
	}

	car, err := s.authorize(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	patch.Status = nil
	patch.Images = imagePaths

	if patch.Empty() {
		return car, nil
	}
	return s.cars.Update(ctx, id, patch)
}

// Authorize reports ErrorNotFound for a missing listing and ErrorForbidden
// when ownerID does not own it.
func (s *CarService) Authorize(ctx context.Context, id, ownerID string) error {
	_, err := s.authorize(ctx, id, ownerID)
	return err
}

func (s *CarService) Remove(ctx context.Context, id, ownerID string) (*DeleteResult, error) {
	if _, err := s.authorize(ctx, id, ownerID); err != nil {
		return nil, err
	}

	if err := s.cars.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &DeleteResult{Deleted: true}, nil
}

// MarkAsSold moves the listing to sold. Marking a sold listing again
// succeeds.
func (s *CarService) MarkAsSold(ctx context.Context, id, ownerID string) (*models.Car, error) {
	if _, err := s.authorize(ctx, id, ownerID); err != nil {
		return nil, err
	}

	sold := models.StatusSold
	return s.cars.Update(ctx, id, models.CarPatch{Status: &sold})
}

func (s *CarService) authorize(ctx context.Context, id, ownerID string) (*models.Car, error) {
	car, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if car.UserID != ownerID {
		return nil, common.ErrorForbidden
	}
	return car, nil
}
