package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/carmarket/internal/server/repositories/cars"
	"github.com/dmitrijs2005/carmarket/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoRepositoryManager vends MongoDB-backed repositories sharing one client.
type MongoRepositoryManager struct {
	client *mongo.Client
	db     *mongo.Database
}

// mongoConnect is a seam for testing mongo.Connect.
var mongoConnect = func(opts ...*options.ClientOptions) (*mongo.Client, error) {
	return mongo.Connect(opts...)
}

// OpenMongo creates a client for uri. The driver connects lazily, so an
// unreachable server surfaces on the first Ping or query.
func OpenMongo(uri, database string) (*MongoRepositoryManager, error) {
	client, err := mongoConnect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return NewMongoRepositoryManager(client, database), nil
}

func NewMongoRepositoryManager(client *mongo.Client, database string) *MongoRepositoryManager {
	return &MongoRepositoryManager{client: client, db: client.Database(database)}
}

func (m *MongoRepositoryManager) Users() users.Repository {
	return users.NewMongoRepository(m.db)
}

func (m *MongoRepositoryManager) Cars() cars.Repository {
	return cars.NewMongoRepository(m.db)
}

// RunMigrations creates the indexes the repositories rely on.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := users.NewMongoRepository(m.db).EnsureIndexes(ctx); err != nil {
		return err
	}
	return nil
}

func (m *MongoRepositoryManager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
