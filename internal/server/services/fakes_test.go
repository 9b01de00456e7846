package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
)

// memUsers is an in-memory users.Repository.
type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	seq     int

	getErr    error
	createErr error
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*models.User{}}
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	m.seq++
	cp := *u
	cp.ID = fmt.Sprintf("u%d", m.seq)
	m.byEmail[cp.Email] = &cp
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) remove(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byEmail, email)
}

// memCars is an in-memory cars.Repository keeping insertion order.
type memCars struct {
	mu    sync.Mutex
	order []string
	cars  map[string]models.Car
	seq   int

	updates int
	err     error
}

func newMemCars() *memCars {
	return &memCars{cars: map[string]models.Car{}}
}

func (m *memCars) Create(_ context.Context, c *models.Car) (*models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.seq++
	cp := *c
	cp.ID = fmt.Sprintf("c%d", m.seq)
	cp.Normalize()
	m.cars[cp.ID] = cp
	m.order = append(m.order, cp.ID)
	return &cp, nil
}

func (m *memCars) FindAll(_ context.Context) ([]models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []models.Car{}
	for _, id := range m.order {
		if c, ok := m.cars[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCars) FindByID(_ context.Context, id string) (*models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.cars[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (m *memCars) Update(_ context.Context, id string, p models.CarPatch) (*models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	c, ok := m.cars[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	p.Apply(&c)
	m.cars[id] = c
	return &c, nil
}

func (m *memCars) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cars[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.cars, id)
	return nil
}
