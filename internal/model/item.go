package model

import (
	"context"
	"fmt"
	"unicode/utf8"
)

const (
	// HotCollection and HotItemID name the single per-user record mirrored in the cache.
	HotCollection = "meta"
	HotItemID     = "global"

	maxIDLength  = 64
	maxSortIndex = 999999999
)

// IsHotKey reports whether (collection, id) is the cache-mirrored record.
func IsHotKey(collection, id string) bool {
	return collection == HotCollection && id == HotItemID
}

// ItemStore is the capability set of the durable item store. The cache
// overlay implements it as well so callers can use either interchangeably.
type ItemStore interface {
	ItemExists(ctx context.Context, userID int64, collection, id string) (float64, bool, error)
	GetItem(ctx context.Context, userID int64, collection, id string) (Item, error)
	GetItems(ctx context.Context, userID int64, collection string, query ItemQuery) ([]Item, error)
	SetItem(ctx context.Context, userID int64, collection, id string, fields ItemFields) (float64, error)
	SetItems(ctx context.Context, userID int64, collection string, items []ItemFields) (BatchResult, error)
	DeleteItem(ctx context.Context, userID int64, collection, id string) error
	DeleteItems(ctx context.Context, userID int64, collection string, query ItemQuery) error
	CollectionID(ctx context.Context, userID int64, name string, create bool) (int64, error)
	CollectionTimestamps(ctx context.Context, userID int64) (map[string]float64, error)
	CollectionCounts(ctx context.Context, userID int64) (map[string]int64, error)
	StorageTotal(ctx context.Context, userID int64) (int64, error)
	DeleteStorage(ctx context.Context, userID int64) error
}

// Item is a stored record as returned by reads.
type Item struct {
	ID            string  `json:"id"`
	Modified      float64 `json:"modified"`
	SortIndex     *int64  `json:"sortindex,omitempty"`
	ParentID      *string `json:"parentid,omitempty"`
	PredecessorID *string `json:"predecessorid,omitempty"`
	TTL           *int64  `json:"ttl,omitempty"`
	Payload       string  `json:"payload"`
}

// ItemFields carries the values of a write. Nil fields are left untouched on
// partial updates; a non-nil Payload makes the write a full replacement.
type ItemFields struct {
	ID            string   `json:"id"`
	Modified      *float64 `json:"modified,omitempty"`
	SortIndex     *int64   `json:"sortindex,omitempty"`
	ParentID      *string  `json:"parentid,omitempty"`
	PredecessorID *string  `json:"predecessorid,omitempty"`
	TTL           *int64   `json:"ttl,omitempty"`
	Payload       *string  `json:"payload,omitempty"`
}

// Stamp sets Modified to now when a payload is supplied without an explicit
// modification time.
func (f *ItemFields) Stamp(now float64) {
	if f.Payload != nil && f.Modified == nil {
		f.Modified = &now
	}
}

// Validate returns the list of reasons the fields cannot be stored.
func (f ItemFields) Validate() []string {
	var reasons []string
	if f.ID == "" {
		reasons = append(reasons, "invalid id")
	} else if utf8.RuneCountInString(f.ID) > maxIDLength {
		reasons = append(reasons, fmt.Sprintf("id longer than %d characters", maxIDLength))
	}
	if f.ParentID != nil && utf8.RuneCountInString(*f.ParentID) > maxIDLength {
		reasons = append(reasons, "invalid parentid")
	}
	if f.PredecessorID != nil && utf8.RuneCountInString(*f.PredecessorID) > maxIDLength {
		reasons = append(reasons, "invalid predecessorid")
	}
	if f.SortIndex != nil && (*f.SortIndex > maxSortIndex || *f.SortIndex < -maxSortIndex) {
		reasons = append(reasons, "invalid sortindex")
	}
	if f.TTL != nil && *f.TTL < 0 {
		reasons = append(reasons, "invalid ttl")
	}
	if f.Modified != nil && *f.Modified < 0 {
		reasons = append(reasons, "invalid modified")
	}
	return reasons
}

// BatchResult reports per-item outcomes of a batch write.
type BatchResult struct {
	Success []string            `json:"success"`
	Failed  map[string][]string `json:"failed"`
}

// NewBatchResult returns an empty result that serializes as [] and {}.
func NewBatchResult() BatchResult {
	return BatchResult{Success: []string{}, Failed: map[string][]string{}}
}

// Succeeded reports whether id is listed as stored.
func (r BatchResult) Succeeded(id string) bool {
	for _, s := range r.Success {
		if s == id {
			return true
		}
	}
	return false
}

// Sort orders for ItemQuery.
const (
	SortOldest = "oldest"
	SortNewest = "newest"
	SortIndex  = "index"
)

// ItemQuery selects items for listing and bulk deletion.
type ItemQuery struct {
	IDs           []string
	ParentID      *string
	PredecessorID *string
	Newer         *float64
	Older         *float64
	IndexAbove    *int64
	IndexBelow    *int64
	Limit         *int
	Offset        *int
	Sort          string
	Full          bool
}

// MayInclude reports whether the query may select the item with the given id.
func (q ItemQuery) MayInclude(id string) bool {
	if q.IDs == nil {
		return true
	}
	for _, i := range q.IDs {
		if i == id {
			return true
		}
	}
	return false
}
