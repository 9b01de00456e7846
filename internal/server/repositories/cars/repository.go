// Package cars holds the listing store.
package cars

import (
	"context"

	"github.com/dmitrijs2005/carmarket/internal/server/models"
)

// Repository persists car listings. Malformed ids behave like unknown ids and
// yield common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, car *models.Car) (*models.Car, error)
	// FindAll returns every listing in insertion order.
	FindAll(ctx context.Context) ([]models.Car, error)
	FindByID(ctx context.Context, id string) (*models.Car, error)
	// Update applies the patch, bumps updatedAt and returns the stored record.
	Update(ctx context.Context, id string, patch models.CarPatch) (*models.Car, error)
	Delete(ctx context.Context, id string) error
}
