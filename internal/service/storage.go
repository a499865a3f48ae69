package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/weave-server/internal/apierror"
	"github.com/dtroode/weave-server/internal/logger"
	"github.com/dtroode/weave-server/internal/model"
)

const kilobyte = 1024

// Storage serves the per-user collection operations on top of an ItemStore.
type Storage struct {
	itemStore  model.ItemStore
	logger     *logger.Logger
	quotaBytes int64
}

// StorageOption configures a Storage service.
type StorageOption func(*Storage)

// WithQuota sets the per-user storage limit reported by Usage. Zero means
// no limit.
func WithQuota(bytes int64) StorageOption {
	return func(s *Storage) {
		s.quotaBytes = bytes
	}
}

func NewStorage(itemStore model.ItemStore, logger *logger.Logger, opts ...StorageOption) *Storage {
	s := &Storage{
		itemStore: itemStore,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Usage is a user's storage consumption in KiB. LimitKB is nil when no quota
// is configured.
type Usage struct {
	UsedKB  int64
	LimitKB *int64
}

func (s *Storage) CollectionCounts(ctx context.Context, userID int64) (map[string]int64, error) {
	counts, err := s.itemStore.CollectionCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection counts: %w", err)
	}
	return counts, nil
}

func (s *Storage) Usage(ctx context.Context, userID int64) (Usage, error) {
	total, err := s.itemStore.StorageTotal(ctx, userID)
	if err != nil {
		return Usage{}, fmt.Errorf("failed to get storage total: %w", err)
	}

	usage := Usage{UsedKB: total / kilobyte}
	if s.quotaBytes > 0 {
		limit := s.quotaBytes / kilobyte
		usage.LimitKB = &limit
	}
	return usage, nil
}

// DeleteStorage removes all collections and items of the user.
func (s *Storage) DeleteStorage(ctx context.Context, userID int64) error {
	if err := s.itemStore.DeleteStorage(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete storage: %w", err)
	}
	s.logger.Info("Storage service: user storage deleted", "user_id", userID)
	return nil
}

func (s *Storage) CollectionTimestamps(ctx context.Context, userID int64) (map[string]float64, error) {
	stamps, err := s.itemStore.CollectionTimestamps(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection timestamps: %w", err)
	}
	return stamps, nil
}

func (s *Storage) GetItem(ctx context.Context, userID int64, collection, id string) (model.Item, error) {
	item, err := s.itemStore.GetItem(ctx, userID, collection, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.Item{}, apierror.NewErrItemNotFound(collection, id)
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ListItems returns the records of a collection listing: full items when
// query.Full is set, item ids otherwise.
func (s *Storage) ListItems(ctx context.Context, userID int64, collection string, query model.ItemQuery) ([]any, error) {
	items, err := s.itemStore.GetItems(ctx, userID, collection, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}

	records := make([]any, 0, len(items))
	for _, item := range items {
		if query.Full {
			records = append(records, item)
		} else {
			records = append(records, item.ID)
		}
	}
	return records, nil
}

func (s *Storage) PutItem(ctx context.Context, userID int64, collection, id string, fields model.ItemFields) (float64, error) {
	fields.ID = id
	if reasons := fields.Validate(); len(reasons) > 0 {
		s.logger.Info("Storage service: rejected item",
			"user_id", userID,
			"collection", collection,
			"id", id,
			"reasons", reasons)
		return 0, apierror.NewErrInvalidItem(reasons)
	}

	modified, err := s.itemStore.SetItem(ctx, userID, collection, id, fields)
	if err != nil {
		return 0, fmt.Errorf("failed to set item: %w", err)
	}
	return modified, nil
}

// PostItems stores a batch. rejected carries items that failed before
// reaching the store, such as undecodable bodies; they are merged into the
// result.
func (s *Storage) PostItems(ctx context.Context, userID int64, collection string, items []model.ItemFields, rejected map[string][]string) (model.BatchResult, error) {
	res := model.NewBatchResult()
	if len(items) > 0 {
		var err error
		res, err = s.itemStore.SetItems(ctx, userID, collection, items)
		if err != nil {
			return model.BatchResult{}, fmt.Errorf("failed to set items: %w", err)
		}
		if res.Failed == nil {
			res.Failed = map[string][]string{}
		}
		if res.Success == nil {
			res.Success = []string{}
		}
	}

	for id, reasons := range rejected {
		res.Failed[id] = append(res.Failed[id], reasons...)
	}
	return res, nil
}

func (s *Storage) DeleteItem(ctx context.Context, userID int64, collection, id string) error {
	err := s.itemStore.DeleteItem(ctx, userID, collection, id)
	if errors.Is(err, model.ErrNotFound) {
		return apierror.NewErrItemNotFound(collection, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func (s *Storage) DeleteItems(ctx context.Context, userID int64, collection string, query model.ItemQuery) error {
	if err := s.itemStore.DeleteItems(ctx, userID, collection, query); err != nil {
		return fmt.Errorf("failed to delete items: %w", err)
	}
	return nil
}
