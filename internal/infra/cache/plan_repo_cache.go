// Package cache puts a Redis read-through layer in front of a PlanRepository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"plan-catalog/internal/domain/model"
	"plan-catalog/internal/domain/ports/repository"
	"plan-catalog/internal/infra/metrics"
	red "plan-catalog/internal/infra/redis"
)

const (
	keyWriting    = "plans:writing"
	keyAll        = "plans:all"
	keyIDPrefix   = "plan:id:"
	keyNamePrefix = "plan:name:"
)

// writeGuard is how long reads stop filling the cache after a write starts
// and again after it ends.
const writeGuard = 5 * time.Second

func idKey(id string) string     { return keyIDPrefix + id }
func nameKey(name string) string { return keyNamePrefix + name }

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches plans by id and the full list. A name key
// holds only the id; a hit counts only when the cached plan still has that
// name, so a rename never has to know the old name.
type planRepoCacheDecorator struct {
	inner  repository.PlanRepository
	cache  red.RedisClient
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewPlanRepoCache(inner repository.PlanRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.PlanRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "plan_cache").Logger()
	return &planRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, logger: &l}
}

func (d *planRepoCacheDecorator) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	if p, ok := d.getPlan(ctx, idKey(id)); ok {
		metrics.CacheLookup("id", true)
		return p, nil
	}
	metrics.CacheLookup("id", false)

	p, err := d.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.fillAllowed(ctx) {
		d.setPlan(ctx, p)
	}
	return p, nil
}

func (d *planRepoCacheDecorator) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	if id, ok := d.get(ctx, nameKey(name)); ok {
		if p, ok := d.getPlan(ctx, idKey(id)); ok && p.Name == name {
			metrics.CacheLookup("name", true)
			return p, nil
		}
	}
	metrics.CacheLookup("name", false)

	p, err := d.inner.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if d.fillAllowed(ctx) {
		d.setPlan(ctx, p)
	}
	return p, nil
}

func (d *planRepoCacheDecorator) List(ctx context.Context) ([]*model.Plan, error) {
	if val, ok := d.get(ctx, keyAll); ok {
		var plans []*model.Plan
		if err := json.Unmarshal([]byte(val), &plans); err == nil && plans != nil {
			metrics.CacheLookup("list", true)
			return plans, nil
		}
		d.del(ctx, keyAll)
	}
	metrics.CacheLookup("list", false)

	plans, err := d.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	if !d.fillAllowed(ctx) {
		return plans, nil
	}
	if b, err := json.Marshal(plans); err == nil {
		d.set(ctx, keyAll, b)
	}
	return plans, nil
}

// Writes raise the write guard and invalidate, before and after delegating.
// Reads that find the guard up serve the store result without filling. A
// reader that passed the guard check before the write began and stalls past
// its end can still park the old row, for at most one TTL.

func (d *planRepoCacheDecorator) Create(ctx context.Context, plan *model.Plan) (*model.Plan, error) {
	d.beginWrite(ctx, keyAll)
	p, err := d.inner.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	d.beginWrite(ctx, keyAll, nameKey(p.Name))
	return p, nil
}

func (d *planRepoCacheDecorator) Update(ctx context.Context, id string, plan *model.Plan) (*model.Plan, error) {
	d.beginWrite(ctx, keyAll, idKey(id))
	p, err := d.inner.Update(ctx, id, plan)
	if err != nil {
		return nil, err
	}
	d.beginWrite(ctx, keyAll, idKey(id), nameKey(p.Name))
	return p, nil
}

func (d *planRepoCacheDecorator) Delete(ctx context.Context, id string) error {
	d.beginWrite(ctx, keyAll, idKey(id))
	if err := d.inner.Delete(ctx, id); err != nil {
		return err
	}
	d.beginWrite(ctx, keyAll, idKey(id))
	return nil
}

// beginWrite raises the write guard, then drops keys.
func (d *planRepoCacheDecorator) beginWrite(ctx context.Context, keys ...string) {
	if err := d.cache.Set(ctx, keyWriting, "1", writeGuard); err != nil {
		metrics.CacheBackendError("set")
		d.logger.Warn().Err(err).Msg("cache write guard failed")
	}
	d.del(ctx, keys...)
}

// fillAllowed reports whether no write guard is up. Any doubt means no fill.
func (d *planRepoCacheDecorator) fillAllowed(ctx context.Context) bool {
	_, err := d.cache.Get(ctx, keyWriting)
	return errors.Is(err, red.Nil)
}

func (d *planRepoCacheDecorator) get(ctx context.Context, key string) (string, bool) {
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		return val, true
	}
	if !errors.Is(err, red.Nil) {
		metrics.CacheBackendError("get")
		d.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	return "", false
}

func (d *planRepoCacheDecorator) getPlan(ctx context.Context, key string) (*model.Plan, bool) {
	val, ok := d.get(ctx, key)
	if !ok {
		return nil, false
	}
	var p model.Plan
	if err := json.Unmarshal([]byte(val), &p); err != nil || p.IsZero() {
		d.logger.Warn().Str("key", key).Msg("dropping undecodable cache entry")
		d.del(ctx, key)
		return nil, false
	}
	return &p, true
}

func (d *planRepoCacheDecorator) setPlan(ctx context.Context, p *model.Plan) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	d.set(ctx, idKey(p.ID), b)
	d.set(ctx, nameKey(p.Name), p.ID)
}

func (d *planRepoCacheDecorator) set(ctx context.Context, key string, value interface{}) {
	if err := d.cache.Set(ctx, key, value, d.ttl); err != nil {
		metrics.CacheBackendError("set")
		d.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (d *planRepoCacheDecorator) del(ctx context.Context, keys ...string) {
	if err := d.cache.Del(ctx, keys...); err != nil {
		metrics.CacheBackendError("del")
		d.logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}
