package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cuongbtq/jobqueue/internal/api/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for a duplicate key
const uniqueViolation = "23505"

var (
	// ErrItemNotFound is returned when no item has the requested id
	ErrItemNotFound = errors.New("item not found")

	// ErrItemAlreadyExists is returned when an item name is taken
	ErrItemAlreadyExists = errors.New("item already exists")
)

const schema = `
	CREATE TABLE IF NOT EXISTS items (
		id         BIGSERIAL PRIMARY KEY,
		uuid       UUID NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		name       TEXT NOT NULL UNIQUE,
		price      DOUBLE PRECISION NOT NULL CHECK (price >= 0)
	)
`

const itemColumns = "id, uuid, created_at, name, price"

// Storage is the items repository
type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		db: db,
	}
}

// EnsureSchema creates the items table when it does not exist
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create items table: %w", err)
	}
	return nil
}

func (s *Storage) CreateItem(ctx context.Context, name string, price float64) (*model.Item, error) {
	query := `
		INSERT INTO items (uuid, name, price)
		VALUES ($1, $2, $3)
		RETURNING ` + itemColumns

	var item model.Item
	err := s.db.GetContext(ctx, &item, query, uuid.New().String(), name, price)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %q", ErrItemAlreadyExists, name)
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return &item, nil
}

func (s *Storage) GetItemByID(ctx context.Context, id int64) (*model.Item, error) {
	var item model.Item
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	err := s.db.GetContext(ctx, &item, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return &item, nil
}

// GetItemsByIDs returns the subset of the requested items that exist
func (s *Storage) GetItemsByIDs(ctx context.Context, ids []int64) ([]model.Item, error) {
	items := []model.Item{}
	if len(ids) == 0 {
		return items, nil
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ANY($1) ORDER BY id`
	if err := s.db.SelectContext(ctx, &items, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}

	return items, nil
}

type ItemFilter struct {
	PageSize int
	Cursor   *ItemCursor
}

// ItemCursor is the keyset position after the last returned item
type ItemCursor struct {
	CreatedAt time.Time
	ID        int64
}

// ListItems returns up to PageSize+1 items, newest first. The extra row
// tells the caller whether another page exists.
func (s *Storage) ListItems(ctx context.Context, filter ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	args := []interface{}{}
	argIdx := 1

	if filter.Cursor != nil {
		query += fmt.Sprintf(" WHERE (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	items := []model.Item{}
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return items, nil
}
