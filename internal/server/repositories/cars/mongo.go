package cars

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName is the Mongo collection holding listing documents.
const CollectionName = "cars"

type carDocument struct {
	ID             bson.ObjectID     `bson:"_id,omitempty"`
	Title          string            `bson:"title"`
	Make           string            `bson:"make"`
	Description    *string           `bson:"description,omitempty"`
	Price          float64           `bson:"price"`
	Images         []string          `bson:"images"`
	FactoryOptions []string          `bson:"factoryOptions"`
	Highlights     []string          `bson:"highlights"`
	KeyFeatures    []models.KeyValue `bson:"keyFeatures"`
	Specifications []models.KeyValue `bson:"specifications"`
	Status         models.Status     `bson:"status"`
	UserID         bson.ObjectID     `bson:"userId"`
	CreatedAt      time.Time         `bson:"createdAt"`
	UpdatedAt      time.Time         `bson:"updatedAt"`
}

func newCarDocument(c *models.Car) (*carDocument, error) {
	owner, err := bson.ObjectIDFromHex(c.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", c.UserID, err)
	}
	c.Normalize()
	return &carDocument{
		Title:          c.Title,
		Make:           c.Make,
		Description:    c.Description,
		Price:          c.Price,
		Images:         c.Images,
		FactoryOptions: c.FactoryOptions,
		Highlights:     c.Highlights,
		KeyFeatures:    c.KeyFeatures,
		Specifications: c.Specifications,
		Status:         c.Status,
		UserID:         owner,
	}, nil
}

func (d *carDocument) toModel() *models.Car {
	c := &models.Car{
		ID:             d.ID.Hex(),
		Title:          d.Title,
		Make:           d.Make,
		Description:    d.Description,
		Price:          d.Price,
		Images:         d.Images,
		FactoryOptions: d.FactoryOptions,
		Highlights:     d.Highlights,
		KeyFeatures:    d.KeyFeatures,
		Specifications: d.Specifications,
		Status:         d.Status,
		UserID:         d.UserID.Hex(),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	c.Normalize()
	return c
}

// patchToSet builds the $set document for a patch; updatedAt is always set.
func patchToSet(p models.CarPatch, now time.Time) bson.D {
	set := bson.D{}
	add := func(k string, v any) { set = append(set, bson.E{Key: k, Value: v}) }

	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Make != nil {
		add("make", *p.Make)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if len(p.Images) > 0 {
		add("images", p.Images)
	}
	if p.FactoryOptions != nil {
		add("factoryOptions", *p.FactoryOptions)
	}
	if p.Highlights != nil {
		add("highlights", *p.Highlights)
	}
	if p.KeyFeatures != nil {
		add("keyFeatures", *p.KeyFeatures)
	}
	if p.Specifications != nil {
		add("specifications", *p.Specifications)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	add("updatedAt", now)

	return set
}

type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName), now: time.Now}
}

func (r *MongoRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

func (r *MongoRepository) Create(ctx context.Context, car *models.Car) (*models.Car, error) {
	doc, err := newCarDocument(car)
	if err != nil {
		return nil, err
	}

	now := r.timestamp()
	doc.ID = bson.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return doc.toModel(), nil
}

func (r *MongoRepository) FindAll(ctx context.Context) ([]models.Car, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var docs []carDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	result := make([]models.Car, 0, len(docs))
	for i := range docs {
		result = append(result, *docs[i].toModel())
	}
	return result, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.Car, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}

	var doc carDocument
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return doc.toModel(), nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, patch models.CarPatch) (*models.Car, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}

	update := bson.D{{Key: "$set", Value: patchToSet(patch, r.timestamp())}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc carDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return doc.toModel(), nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrorNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}

	return nil
}
