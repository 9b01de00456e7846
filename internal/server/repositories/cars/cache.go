package cars

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyAll    = "cars:all"
	cacheKeyPrefix = "cars:id:"
	cacheKeyGen    = "cars:gen"
)

// errStaleFill aborts a fill that raced with a mutation.
var errStaleFill = errors.New("cache generation changed")

// CachedRepository is a read-through Redis cache in front of another
// Repository. Cache failures are logged and never fail the call.
//
// Every mutation bumps a generation counter and drops the list entry and the
// entry of the touched listing. A fill only lands if the generation it read
// before going to the store is still current, so a read that overlapped a
// mutation cannot put the old record back.
type CachedRepository struct {
	next   Repository
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

func NewCachedRepository(next Repository, client *redis.Client, ttl time.Duration, logger logging.Logger) *CachedRepository {
	return &CachedRepository{next: next, client: client, ttl: ttl, logger: logger.With("module", "carcache")}
}

func (r *CachedRepository) Create(ctx context.Context, car *models.Car) (*models.Car, error) {
	c, err := r.next.Create(ctx, car)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return c, nil
}

func (r *CachedRepository) FindAll(ctx context.Context) ([]models.Car, error) {
	var cached []models.Car
	if r.load(ctx, cacheKeyAll, &cached) {
		return cached, nil
	}

	gen, ok := r.generation(ctx)
	list, err := r.next.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		r.store(ctx, cacheKeyAll, list, gen)
	}
	return list, nil
}

func (r *CachedRepository) FindByID(ctx context.Context, id string) (*models.Car, error) {
	var cached models.Car
	if r.load(ctx, cacheKeyPrefix+id, &cached) {
		cached.Normalize()
		return &cached, nil
	}

	gen, ok := r.generation(ctx)
	c, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		r.store(ctx, cacheKeyPrefix+id, c, gen)
	}
	return c, nil
}

func (r *CachedRepository) Update(ctx context.Context, id string, patch models.CarPatch) (*models.Car, error) {
	c, err := r.next.Update(ctx, id, patch)
	r.invalidate(ctx, id)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CachedRepository) Delete(ctx context.Context, id string) error {
	err := r.next.Delete(ctx, id)
	r.invalidate(ctx, id)
	return err
}

func (r *CachedRepository) load(ctx context.Context, key string, dst any) bool {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn(ctx, "cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.Warn(ctx, "cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

// generation returns the current mutation counter. ok is false when Redis
// cannot be read, in which case the caller skips the fill.
func (r *CachedRepository) generation(ctx context.Context) (int64, bool) {
	gen, err := r.client.Get(ctx, cacheKeyGen).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		r.logger.Warn(ctx, "cache read failed", "key", cacheKeyGen, "error", err)
		return 0, false
	}
	return gen, true
}

// store writes v under key if no mutation happened since gen was read.
func (r *CachedRepository) store(ctx context.Context, key string, v any, gen int64) {
	raw, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn(ctx, "cache encode failed", "key", key, "error", err)
		return
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, cacheKeyGen).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, raw, r.ttl)
			return nil
		})
		return err
	}, cacheKeyGen)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		r.logger.Debug(ctx, "cache fill skipped", "key", key)
	default:
		r.logger.Warn(ctx, "cache write failed", "key", key, "error", err)
	}
}

func (r *CachedRepository) invalidate(ctx context.Context, ids ...string) {
	keys := []string{cacheKeyAll}
	for _, id := range ids {
		keys = append(keys, cacheKeyPrefix+id)
	}
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, cacheKeyGen)
		p.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		r.logger.Warn(ctx, "cache invalidation failed", "keys", fmt.Sprint(keys), "error", err)
	}
}
