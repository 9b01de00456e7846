package rest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/server/images"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
)

type fakeUsers struct {
	tokens map[string]*models.User

	signUpErr error
	signInErr error
	gotSignUp []string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{tokens: map[string]*models.User{
		"token-a": {ID: "user-a", Email: "a@example.com", Name: "A"},
		"token-b": {ID: "user-b", Email: "b@example.com", Name: "B"},
	}}
}

func (f *fakeUsers) SignUp(_ context.Context, email, password, name string) (string, error) {
	f.gotSignUp = []string{email, password, name}
	if f.signUpErr != nil {
		return "", f.signUpErr
	}
	return "signed-up", nil
}

func (f *fakeUsers) SignIn(_ context.Context, email, password string) (string, error) {
	if f.signInErr != nil {
		return "", f.signInErr
	}
	return "signed-in:" + email, nil
}

func (f *fakeUsers) Authenticate(_ context.Context, token string) (*models.User, error) {
	if token == "expired" {
		return nil, common.ErrTokenExpired
	}
	u, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrInvalidToken
	}
	return u, nil
}

// memCars is an in-memory cars.Repository.
type memCars struct {
	mu    sync.Mutex
	order []string
	cars  map[string]models.Car
	seq   int
}

func newMemCars() *memCars { return &memCars{cars: map[string]models.Car{}} }

func (m *memCars) Create(_ context.Context, c *models.Car) (*models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	cp := *c
	cp.ID = fmt.Sprintf("%024x", m.seq)
	cp.Normalize()
	m.cars[cp.ID] = cp
	m.order = append(m.order, cp.ID)
	return &cp, nil
}

func (m *memCars) FindAll(_ context.Context) ([]models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	c, ok := m.cars[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (m *memCars) Update(_ context.Context, id string, p models.CarPatch) (*models.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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

type fakeNotifications struct {
	enquiries []*models.EnquiryForm
	sells     []*models.SellForm
	err       error
}

func (f *fakeNotifications) SendEnquiry(_ context.Context, form *models.EnquiryForm) error {
	if f.err != nil {
		return f.err
	}
	f.enquiries = append(f.enquiries, form)
	return nil
}

func (f *fakeNotifications) SendSellInquiry(_ context.Context, form *models.SellForm) error {
	if f.err != nil {
		return f.err
	}
	f.sells = append(f.sells, form)
	return nil
}

// fakeImages records staged uploads and drops any file whose content starts
// with "bad".
type fakeImages struct {
	calls   int
	staged  []images.Upload
	existed []bool
}

func (f *fakeImages) Process(_ context.Context, uploads []images.Upload) ([]string, error) {
	f.calls++
	var paths []string
	for i, u := range uploads {
		f.staged = append(f.staged, u)
		data, err := os.ReadFile(u.TempPath)
		f.existed = append(f.existed, err == nil)
		_ = os.Remove(u.TempPath)
		if err != nil || strings.HasPrefix(string(data), "bad") {
			continue
		}
		paths = append(paths, fmt.Sprintf("%sprocessed-%d.jpg", common.PublicImagePrefix, i))
	}
	return paths, nil
}

type fakeImageStore map[string]string

func (f fakeImageStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	v, ok := f[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return io.NopCloser(strings.NewReader(v)), nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) Ping(context.Context) error { return f.err }
