package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dtroode/weave-server/internal/model"
	"github.com/dtroode/weave-server/internal/timestamp"
)

var _ model.ItemStore = (*ItemRepository)(nil)

const itemColumns = `id, modified, sortindex, parentid, predecessorid, ttl, payload`

// upsertItemQuery casts every parameter that only appears inside COALESCE;
// left untyped, Postgres would resolve them to text.
const upsertItemQuery = `INSERT INTO wbo (user_id, collection_id, id, parentid, predecessorid, sortindex, modified, payload, payload_size, ttl)
			  VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7::BIGINT, $8::BIGINT), COALESCE($9::TEXT, ''), COALESCE($10::INTEGER, 0), $11::BIGINT)
			  ON CONFLICT (user_id, collection_id, id) DO UPDATE SET
			  parentid = COALESCE($4, wbo.parentid),
			  predecessorid = COALESCE($5, wbo.predecessorid),
			  sortindex = COALESCE($6, wbo.sortindex),
			  modified = COALESCE($7::BIGINT, wbo.modified),
			  payload = COALESCE($9::TEXT, wbo.payload),
			  payload_size = COALESCE($10::INTEGER, wbo.payload_size),
			  ttl = COALESCE($11::BIGINT, wbo.ttl)
			  RETURNING modified`

// queryRower is implemented by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ItemRepository is the durable item store.
type ItemRepository struct {
	db  *Connection
	now func() time.Time
}

func NewItemRepository(db *Connection) *ItemRepository {
	return &ItemRepository{
		db:  db,
		now: time.Now,
	}
}

// Ping checks the database connection.
func (r *ItemRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *ItemRepository) CollectionID(ctx context.Context, userID int64, name string, create bool) (int64, error) {
	var id int64
	query := `SELECT id FROM collections WHERE user_id = $1 AND name = $2`

	err := r.db.QueryRowContext(ctx, query, userID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to get collection id: %w", err)
	}
	if !create {
		return 0, model.ErrNotFound
	}

	insert := `INSERT INTO collections (user_id, name) VALUES ($1, $2)
			  ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
			  RETURNING id`
	if err := r.db.QueryRowContext(ctx, insert, userID, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create collection: %w", err)
	}
	return id, nil
}

func (r *ItemRepository) ItemExists(ctx context.Context, userID int64, collection, id string) (float64, bool, error) {
	var modified int64
	query := `SELECT w.modified FROM wbo w
			  JOIN collections c ON c.id = w.collection_id
			  WHERE w.user_id = $1 AND c.name = $2 AND w.id = $3`

	err := r.db.QueryRowContext(ctx, query, userID, collection, id).Scan(&modified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to check item: %w", err)
	}

	return timestamp.FromInt(modified), true, nil
}

func (r *ItemRepository) GetItem(ctx context.Context, userID int64, collection, id string) (model.Item, error) {
	query := `SELECT w.id, w.modified, w.sortindex, w.parentid, w.predecessorid, w.ttl, w.payload FROM wbo w
			  JOIN collections c ON c.id = w.collection_id
			  WHERE w.user_id = $1 AND c.name = $2 AND w.id = $3`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, userID, collection, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, model.ErrNotFound
		}
		return model.Item{}, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

func (r *ItemRepository) GetItems(ctx context.Context, userID int64, collection string, query model.ItemQuery) ([]model.Item, error) {
	collectionID, err := r.CollectionID(ctx, userID, collection, false)
	if errors.Is(err, model.ErrNotFound) {
		return []model.Item{}, nil
	}
	if err != nil {
		return nil, err
	}

	var args queryArgs
	q := `SELECT ` + itemColumns + ` FROM wbo WHERE ` + args.where(userID, collectionID, query) + args.page(query)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return items, nil
}

func (r *ItemRepository) SetItem(ctx context.Context, userID int64, collection, id string, fields model.ItemFields) (float64, error) {
	collectionID, err := r.CollectionID(ctx, userID, collection, true)
	if err != nil {
		return 0, err
	}

	fields.ID = id
	fields.Stamp(timestamp.FromTime(r.now()))

	modified, err := r.upsert(ctx, r.db, userID, collectionID, fields)
	if err != nil {
		return 0, fmt.Errorf("failed to set item: %w", err)
	}
	return modified, nil
}

// SetItems stores the valid items of a batch in one transaction. Invalid items
// are reported in the result and do not abort the batch.
func (r *ItemRepository) SetItems(ctx context.Context, userID int64, collection string, items []model.ItemFields) (model.BatchResult, error) {
	res := model.NewBatchResult()

	collectionID, err := r.CollectionID(ctx, userID, collection, true)
	if err != nil {
		return res, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := timestamp.FromTime(r.now())
	for _, fields := range items {
		if reasons := fields.Validate(); len(reasons) > 0 {
			res.Failed[fields.ID] = reasons
			continue
		}

		fields.Stamp(now)
		if _, err := r.upsert(ctx, tx, userID, collectionID, fields); err != nil {
			return model.NewBatchResult(), fmt.Errorf("failed to set item %q: %w", fields.ID, err)
		}
		res.Success = append(res.Success, fields.ID)
	}

	if err := tx.Commit(); err != nil {
		return model.NewBatchResult(), fmt.Errorf("failed to commit transaction: %w", err)
	}
	return res, nil
}

func (r *ItemRepository) upsert(ctx context.Context, q queryRower, userID, collectionID int64, fields model.ItemFields) (float64, error) {
	var modified, payload, payloadSize any
	if fields.Modified != nil {
		modified = timestamp.Encode(*fields.Modified)
	}
	if fields.Payload != nil {
		payload = *fields.Payload
		payloadSize = int64(len(*fields.Payload))
	}

	var stored int64
	err := q.QueryRowContext(ctx, upsertItemQuery,
		userID, collectionID, fields.ID,
		nullString(fields.ParentID), nullString(fields.PredecessorID), nullInt64(fields.SortIndex),
		modified, timestamp.Encode(timestamp.FromTime(r.now())),
		payload, payloadSize, nullInt64(fields.TTL),
	).Scan(&stored)
	if err != nil {
		return 0, err
	}
	return timestamp.FromInt(stored), nil
}

func (r *ItemRepository) DeleteItem(ctx context.Context, userID int64, collection, id string) error {
	collectionID, err := r.CollectionID(ctx, userID, collection, false)
	if err != nil {
		return err
	}

	query := `DELETE FROM wbo WHERE user_id = $1 AND collection_id = $2 AND id = $3`
	res, err := r.db.ExecContext(ctx, query, userID, collectionID, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ItemRepository) DeleteItems(ctx context.Context, userID int64, collection string, query model.ItemQuery) error {
	collectionID, err := r.CollectionID(ctx, userID, collection, false)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var args queryArgs
	where := args.where(userID, collectionID, query)

	var q string
	if page := args.page(query); page != "" {
		q = `DELETE FROM wbo WHERE user_id = $1 AND collection_id = $2 AND id IN (SELECT id FROM wbo WHERE ` + where + page + `)`
	} else {
		q = `DELETE FROM wbo WHERE ` + where
	}

	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("failed to delete items: %w", err)
	}
	return nil
}

func (r *ItemRepository) CollectionTimestamps(ctx context.Context, userID int64) (map[string]float64, error) {
	query := `SELECT c.name, MAX(w.modified) FROM wbo w
			  JOIN collections c ON c.id = w.collection_id
			  WHERE w.user_id = $1
			  GROUP BY c.name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection timestamps: %w", err)
	}
	defer rows.Close()

	stamps := make(map[string]float64)
	for rows.Next() {
		var (
			name     string
			modified int64
		)
		if err := rows.Scan(&name, &modified); err != nil {
			return nil, fmt.Errorf("failed to scan collection timestamp: %w", err)
		}
		stamps[name] = timestamp.FromInt(modified)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collection timestamps: %w", err)
	}

	return stamps, nil
}

func (r *ItemRepository) CollectionCounts(ctx context.Context, userID int64) (map[string]int64, error) {
	query := `SELECT c.name, COUNT(*) FROM wbo w
			  JOIN collections c ON c.id = w.collection_id
			  WHERE w.user_id = $1
			  GROUP BY c.name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			name  string
			count int64
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan collection count: %w", err)
		}
		counts[name] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collection counts: %w", err)
	}

	return counts, nil
}

// StorageTotal returns the summed payload size of every item of the user, in bytes.
func (r *ItemRepository) StorageTotal(ctx context.Context, userID int64) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(payload_size), 0) FROM wbo WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to get storage total: %w", err)
	}
	return total, nil
}

// DeleteStorage removes every item and collection of the user. The account
// itself is left in place.
func (r *ItemRepository) DeleteStorage(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM wbo WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete collections: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanItem(row rowScanner) (model.Item, error) {
	var (
		item          model.Item
		modified      int64
		sortIndex     sql.NullInt64
		parentID      sql.NullString
		predecessorID sql.NullString
		ttl           sql.NullInt64
	)
	if err := row.Scan(&item.ID, &modified, &sortIndex, &parentID, &predecessorID, &ttl, &item.Payload); err != nil {
		return model.Item{}, err
	}

	item.Modified = timestamp.FromInt(modified)
	if sortIndex.Valid {
		item.SortIndex = &sortIndex.Int64
	}
	if parentID.Valid {
		item.ParentID = &parentID.String
	}
	if predecessorID.Valid {
		item.PredecessorID = &predecessorID.String
	}
	if ttl.Valid {
		item.TTL = &ttl.Int64
	}
	return item, nil
}

// queryArgs collects positional arguments while a statement is assembled.
type queryArgs []any

func (a *queryArgs) add(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

// where renders the filter part of query. The first two placeholders are
// always the user and collection ids.
func (a *queryArgs) where(userID, collectionID int64, query model.ItemQuery) string {
	clauses := []string{
		"user_id = " + a.add(userID),
		"collection_id = " + a.add(collectionID),
	}

	if query.IDs != nil {
		if len(query.IDs) == 0 {
			clauses = append(clauses, "FALSE")
		} else {
			placeholders := make([]string, len(query.IDs))
			for i, id := range query.IDs {
				placeholders[i] = a.add(id)
			}
			clauses = append(clauses, "id IN ("+strings.Join(placeholders, ", ")+")")
		}
	}
	if query.ParentID != nil {
		clauses = append(clauses, "parentid = "+a.add(*query.ParentID))
	}
	if query.PredecessorID != nil {
		clauses = append(clauses, "predecessorid = "+a.add(*query.PredecessorID))
	}
	if query.Newer != nil {
		clauses = append(clauses, "modified > "+a.add(timestamp.Encode(*query.Newer)))
	}
	if query.Older != nil {
		clauses = append(clauses, "modified < "+a.add(timestamp.Encode(*query.Older)))
	}
	if query.IndexAbove != nil {
		clauses = append(clauses, "sortindex > "+a.add(*query.IndexAbove))
	}
	if query.IndexBelow != nil {
		clauses = append(clauses, "sortindex < "+a.add(*query.IndexBelow))
	}

	return strings.Join(clauses, " AND ")
}

// page renders ORDER BY, LIMIT and OFFSET, or "" when none apply.
func (a *queryArgs) page(query model.ItemQuery) string {
	var b strings.Builder
	switch query.Sort {
	case model.SortIndex:
		b.WriteString(" ORDER BY sortindex DESC")
	case model.SortNewest:
		b.WriteString(" ORDER BY modified DESC")
	case model.SortOldest:
		b.WriteString(" ORDER BY modified ASC")
	}
	if query.Limit != nil {
		b.WriteString(" LIMIT " + a.add(int64(*query.Limit)))
	}
	if query.Offset != nil {
		b.WriteString(" OFFSET " + a.add(int64(*query.Offset)))
	}
	return b.String()
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
