// Package cached layers a volatile cache over the durable item store for the
// per-user meta/global record. The durable store stays the system of record.
package cached

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/weave-server/internal/logger"
	"github.com/dtroode/weave-server/internal/metrics"
	"github.com/dtroode/weave-server/internal/model"
	"github.com/dtroode/weave-server/internal/timestamp"
)

var _ model.ItemStore = (*Store)(nil)

// Store implements model.ItemStore, answering hot key reads from the cache
// when possible and delegating everything else.
type Store struct {
	store  model.ItemStore
	cache  model.Cache
	logger *logger.Logger
	now    func() time.Time
}

// New pings cache and returns the overlay. A failing ping is returned as an
// error and no Store is created.
func New(ctx context.Context, store model.ItemStore, cache model.Cache, logger *logger.Logger) (*Store, error) {
	if err := cache.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach cache: %w", err)
	}

	return &Store{
		store:  store,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Ping checks both backends.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.cache.Ping(ctx); err != nil {
		return err
	}
	if p, ok := s.store.(model.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("%s:%s:%d", model.HotCollection, model.HotItemID, userID)
}

// cached returns the hot item of userID from the cache. ok is false on a miss.
func (s *Store) cached(ctx context.Context, userID int64) (model.Item, bool, error) {
	raw, err := s.cache.Get(ctx, cacheKey(userID))
	if errors.Is(err, model.ErrCacheMiss) {
		metrics.RecordCacheMiss()
		return model.Item{}, false, nil
	}
	if err != nil {
		metrics.RecordCacheError("get")
		return model.Item{}, false, fmt.Errorf("failed to read cached item: %w", err)
	}

	var item model.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		// A corrupt entry is dropped and treated as a miss.
		s.logger.Warn("CachedStore: corrupt cache entry", "user_id", userID, "error", err)
		metrics.RecordCacheMiss()
		if err := s.invalidate(ctx, userID); err != nil {
			return model.Item{}, false, err
		}
		return model.Item{}, false, nil
	}

	metrics.RecordCacheHit()
	return item, true, nil
}

// refresh copies the durable hot item of userID into the cache.
func (s *Store) refresh(ctx context.Context, userID int64) error {
	item, err := s.store.GetItem(ctx, userID, model.HotCollection, model.HotItemID)
	if errors.Is(err, model.ErrNotFound) {
		return s.invalidate(ctx, userID)
	}
	if err != nil {
		s.logger.Warn("CachedStore: failed to reload hot item", "user_id", userID, "error", err)
		return s.invalidate(ctx, userID)
	}

	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal cached item: %w", err)
	}

	if err := s.cache.Set(ctx, cacheKey(userID), raw); err != nil {
		metrics.RecordCacheError("set")
		s.logger.Warn("CachedStore: failed to refresh cache", "user_id", userID, "error", err)
		// Never leave an older snapshot behind.
		return s.invalidate(ctx, userID)
	}
	return nil
}

func (s *Store) invalidate(ctx context.Context, userID int64) error {
	if err := s.cache.Delete(ctx, cacheKey(userID)); err != nil {
		metrics.RecordCacheError("delete")
		return fmt.Errorf("failed to invalidate cached item: %w", err)
	}
	metrics.RecordCacheInvalidation()
	return nil
}

func (s *Store) ItemExists(ctx context.Context, userID int64, collection, id string) (float64, bool, error) {
	if model.IsHotKey(collection, id) {
		item, ok, err := s.cached(ctx, userID)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return item.Modified, true, nil
		}
	}
	return s.store.ItemExists(ctx, userID, collection, id)
}

func (s *Store) GetItem(ctx context.Context, userID int64, collection, id string) (model.Item, error) {
	if model.IsHotKey(collection, id) {
		item, ok, err := s.cached(ctx, userID)
		if err != nil {
			return model.Item{}, err
		}
		if ok {
			return item, nil
		}
	}
	return s.store.GetItem(ctx, userID, collection, id)
}

func (s *Store) GetItems(ctx context.Context, userID int64, collection string, query model.ItemQuery) ([]model.Item, error) {
	return s.store.GetItems(ctx, userID, collection, query)
}

func (s *Store) SetItem(ctx context.Context, userID int64, collection, id string, fields model.ItemFields) (float64, error) {
	fields.Stamp(timestamp.FromTime(s.now()))

	modified, err := s.store.SetItem(ctx, userID, collection, id, fields)
	if err != nil {
		return 0, err
	}

	if model.IsHotKey(collection, id) {
		if err := s.refresh(ctx, userID); err != nil {
			return 0, err
		}
	}
	return modified, nil
}

// SetItems only looks at the first element of the batch to decide whether the
// hot item changed. A hot item placed later in the batch leaves the cache
// untouched.
func (s *Store) SetItems(ctx context.Context, userID int64, collection string, items []model.ItemFields) (model.BatchResult, error) {
	now := timestamp.FromTime(s.now())
	for i := range items {
		items[i].Stamp(now)
	}

	res, err := s.store.SetItems(ctx, userID, collection, items)
	if err != nil {
		return model.BatchResult{}, err
	}

	if len(items) > 0 && model.IsHotKey(collection, items[0].ID) {
		if res.Succeeded(items[0].ID) {
			err = s.refresh(ctx, userID)
		} else {
			err = s.invalidate(ctx, userID)
		}
		if err != nil {
			return model.BatchResult{}, err
		}
	}
	return res, nil
}

func (s *Store) DeleteItem(ctx context.Context, userID int64, collection, id string) error {
	if model.IsHotKey(collection, id) {
		if err := s.invalidate(ctx, userID); err != nil {
			return err
		}
	}
	return s.store.DeleteItem(ctx, userID, collection, id)
}

func (s *Store) DeleteItems(ctx context.Context, userID int64, collection string, query model.ItemQuery) error {
	if collection == model.HotCollection && query.MayInclude(model.HotItemID) {
		if err := s.invalidate(ctx, userID); err != nil {
			return err
		}
	}
	return s.store.DeleteItems(ctx, userID, collection, query)
}

func (s *Store) CollectionID(ctx context.Context, userID int64, name string, create bool) (int64, error) {
	return s.store.CollectionID(ctx, userID, name, create)
}

func (s *Store) CollectionTimestamps(ctx context.Context, userID int64) (map[string]float64, error) {
	return s.store.CollectionTimestamps(ctx, userID)
}

func (s *Store) CollectionCounts(ctx context.Context, userID int64) (map[string]int64, error) {
	return s.store.CollectionCounts(ctx, userID)
}

func (s *Store) StorageTotal(ctx context.Context, userID int64) (int64, error) {
	return s.store.StorageTotal(ctx, userID)
}

// DeleteStorage drops the cached hot item before removing the user's data.
func (s *Store) DeleteStorage(ctx context.Context, userID int64) error {
	if err := s.invalidate(ctx, userID); err != nil {
		return err
	}
	return s.store.DeleteStorage(ctx, userID)
}
