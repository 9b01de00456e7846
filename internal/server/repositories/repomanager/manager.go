package repomanager

import (
	"context"

	"github.com/dmitrijs2005/carmarket/internal/server/repositories/cars"
	"github.com/dmitrijs2005/carmarket/internal/server/repositories/users"
)

// RepositoryManager vends the repositories of one storage backend and owns
// its connection lifecycle.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Cars() cars.Repository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
