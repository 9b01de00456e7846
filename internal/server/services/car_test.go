package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userA = "user-a"
	userB = "user-b"
)

func ptr[T any](v T) *T { return &v }

func TestCarService_ThunderbirdScenario(t *testing.T) {
	s := NewCarService(newMemCars())
	ctx := context.Background()

	car, err := s.Create(ctx, CarFields{Title: "1964 Ford Thunderbird", Make: "Ford"}, userA, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnsold, car.Status)
	assert.Equal(t, 0.0, car.Price)
	assert.Equal(t, []string{}, car.Images)
	assert.Equal(t, userA, car.UserID)

	sold, err := s.MarkAsSold(ctx, car.ID, userA)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSold, sold.Status)

	_, err = s.Remove(ctx, car.ID, userB)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	res, err := s.Remove(ctx, car.ID, userA)
	require.NoError(t, err)
	assert.Equal(t, &DeleteResult{Deleted: true}, res)

	_, err = s.FindOne(ctx, car.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCarService_CreateValidation(t *testing.T) {
	s := NewCarService(newMemCars())
	ctx := context.Background()

	tests := []struct {
		name string
		in   CarFields
	}{
		{"empty title", CarFields{Title: "", Make: "Ford"}},
		{"blank make", CarFields{Title: "Mustang", Make: "  "}},
		{"negative price", CarFields{Title: "Mustang", Make: "Ford", Price: ptr(-1.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, tt.in, userA, nil)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestCarService_CreateKeepsImagesAndFields(t *testing.T) {
	s := NewCarService(newMemCars())

	car, err := s.Create(context.Background(), CarFields{
		Title:       "1967 Shelby GT500",
		Make:        "Ford",
		Price:       ptr(125000.0),
		Highlights:  []string{"Matching numbers"},
		KeyFeatures: []models.KeyValue{{Label: "Engine", Value: "428 V8"}},
	}, userA, []string{"/uploads/cars/1.jpg", "/uploads/cars/2.jpg"})
	require.NoError(t, err)

	assert.Equal(t, 125000.0, car.Price)
	assert.Equal(t, []string{"/uploads/cars/1.jpg", "/uploads/cars/2.jpg"}, car.Images)
	assert.Equal(t, []string{"Matching numbers"}, car.Highlights)
	assert.Equal(t, []string{}, car.FactoryOptions)
}

func TestCarService_FindAllInsertionOrder(t *testing.T) {
	s := NewCarService(newMemCars())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Create(ctx, CarFields{Title: fmt.Sprintf("car %d", i), Make: "Ford"}, userA, nil)
		require.NoError(t, err)
	}

	list, err := s.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, c := range list {
		assert.Equal(t, fmt.Sprintf("car %d", i), c.Title)
	}
}

func TestCarService_OwnershipGuards(t *testing.T) {
	repo := newMemCars()
	s := NewCarService(repo)
	ctx := context.Background()

	car, err := s.Create(ctx, CarFields{Title: "Mustang", Make: "Ford"}, userA, nil)
	require.NoError(t, err)

	_, err = s.Update(ctx, car.ID, models.CarPatch{Title: ptr("Stolen")}, userB, nil)
	assert.ErrorIs(t, err, common.ErrorForbidden)
	_, err = s.MarkAsSold(ctx, car.ID, userB)
	assert.ErrorIs(t, err, common.ErrorForbidden)
	_, err = s.Remove(ctx, car.ID, userB)
	assert.ErrorIs(t, err, common.ErrorForbidden)
	assert.Equal(t, 0, repo.updates, "no write on forbidden")

	got, err := s.FindOne(ctx, car.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mustang", got.Title)
	assert.Equal(t, models.StatusUnsold, got.Status)

	updated, err := s.Update(ctx, car.ID, models.CarPatch{Title: ptr("Mustang Fastback")}, userA, nil)
	require.NoError(t, err)
	assert.Equal(t, "Mustang Fastback", updated.Title)
	_, err = s.MarkAsSold(ctx, car.ID, userA)
	require.NoError(t, err)
	_, err = s.Remove(ctx, car.ID, userA)
	require.NoError(t, err)
}

func TestCarService_UnknownIDIsNotFoundForEveryone(t *testing.T) {
	s := NewCarService(newMemCars())
	ctx := context.Background()

	for _, caller := range []string{userA, userB} {
		_, err := s.FindOne(ctx, "missing")
		assert.ErrorIs(t, err, common.ErrorNotFound)
		_, err = s.Update(ctx, "missing", models.CarPatch{Title: ptr("x")}, caller, nil)
		assert.ErrorIs(t, err, common.ErrorNotFound)
		_, err = s.Remove(ctx, "missing", caller)
		assert.ErrorIs(t, err, common.ErrorNotFound)
		_, err = s.MarkAsSold(ctx, "missing", caller)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	}
}

func TestCarService_MarkAsSoldIdempotent(t *testing.T) {
	s := NewCarService(newMemCars())
	ctx := context.Background()

	car, err := s.Create(ctx, CarFields{Title: "Corvette", Make: "Chevrolet"}, userA, nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := s.MarkAsSold(ctx, car.ID, userA)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSold, got.Status)
	}
}

func TestCarService_UpdateImages(t *testing.T) {
	s := NewCarService(newMemCars())
	ctx := context.Background()

	car, err := s.Create(ctx, CarFields{Title: "E-Type", Make: "Jaguar"}, userA, []string{"/uploads/cars/old.jpg"})
	require.NoError(t, err)

	got, err := s.Update(ctx, car.ID, models.CarPatch{Price: ptr(90000.0)}, userA, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/cars/old.jpg"}, got.Images, "no new files keeps images")
	assert.Equal(t, 90000.0, got.Price)
	assert.Equal(t, "E-Type", got.Title)

	got, err = s.Update(ctx, car.ID, models.CarPatch{}, userA, []string{"/uploads/cars/a.jpg", "/uploads/cars/b.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/cars/a.jpg", "/uploads/cars/b.jpg"}, got.Images, "replaced, not merged")
}

func TestCarService_UpdateIgnoresStatusAndValidates(t *testing.T) {
	s := NewCarService(newMemCars())
	ctx := context.Background()

	car, err := s.Create(ctx, CarFields{Title: "DB5", Make: "Aston Martin"}, userA, nil)
	require.NoError(t, err)

	sold := models.StatusSold
	got, err := s.Update(ctx, car.ID, models.CarPatch{Status: &sold}, userA, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnsold, got.Status)

	_, err = s.Update(ctx, car.ID, models.CarPatch{Title: ptr("")}, userA, nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = s.Update(ctx, car.ID, models.CarPatch{Price: ptr(-5.0)}, userA, nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestCarService_StoreErrorsPropagate(t *testing.T) {
	repo := newMemCars()
	repo.err = errors.New("db down")
	s := NewCarService(repo)

	_, err := s.FindAll(context.Background())
	assert.ErrorContains(t, err, "db down")
	_, err = s.Create(context.Background(), CarFields{Title: "t", Make: "m"}, userA, nil)
	assert.ErrorContains(t, err, "db down")
}

func TestCarService_Authorize(t *testing.T) {
	repo := newMemCars()
	s := NewCarService(repo)
	ctx := context.Background()

	car, err := s.Create(ctx, CarFields{Title: "Camaro", Make: "Chevrolet"}, userA, nil)
	require.NoError(t, err)

	assert.NoError(t, s.Authorize(ctx, car.ID, userA))
	assert.ErrorIs(t, s.Authorize(ctx, car.ID, userB), common.ErrorForbidden)
	assert.ErrorIs(t, s.Authorize(ctx, "missing", userA), common.ErrorNotFound)
	assert.Equal(t, 0, repo.updates)
}

func TestCarService_EmptyUpdateSkipsWrite(t *testing.T) {
	repo := newMemCars()
	s := NewCarService(repo)
	ctx := context.Background()

	car, err := s.Create(ctx, CarFields{Title: "Miura", Make: "Lamborghini"}, userA, []string{"/uploads/cars/m.jpg"})
	require.NoError(t, err)

	sold := models.StatusSold
	got, err := s.Update(ctx, car.ID, models.CarPatch{Status: &sold}, userA, nil)
	require.NoError(t, err)
	assert.Equal(t, car.Title, got.Title)
	assert.Equal(t, []string{"/uploads/cars/m.jpg"}, got.Images)
	assert.Equal(t, models.StatusUnsold, got.Status)
	assert.Equal(t, 0, repo.updates)

	_, err = s.Update(ctx, car.ID, models.CarPatch{}, userB, nil)
	assert.ErrorIs(t, err, common.ErrorForbidden, "empty patch still checks ownership")

	_, err = s.Update(ctx, car.ID, models.CarPatch{}, userA, []string{"/uploads/cars/n.jpg"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.updates)
}

func TestValidatePatch(t *testing.T) {
	assert.NoError(t, ValidatePatch(models.CarPatch{}))
	assert.NoError(t, ValidatePatch(models.CarPatch{Price: ptr(0.0), Title: ptr("t")}))
	assert.ErrorIs(t, ValidatePatch(models.CarPatch{Make: ptr(" ")}), common.ErrorValidation)
	assert.ErrorIs(t, ValidatePatch(models.CarPatch{Price: ptr(-0.01)}), common.ErrorValidation)
}
