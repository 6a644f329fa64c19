package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
)

type inventoryRepository struct{ q queryer }

const inventoryColumns = `product_id, quantity, reserved_quantity, last_updated`

func (r inventoryRepository) Create(ctx context.Context, item *domain.Item) error {
	if item == nil || item.ProductID == "" {
		return domain.ErrInvalidProductID
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO inventory (`+inventoryColumns+`) VALUES (?, ?, ?, ?)`,
		item.ProductID, item.Quantity, item.ReservedQuantity, formatTime(item.LastUpdated),
	)
	if err != nil {
		return repoErr("create inventory", err)
	}
	return nil
}

func (r inventoryRepository) Get(ctx context.Context, productID string) (*domain.Item, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+inventoryColumns+` FROM inventory WHERE product_id = ?`, productID)
	item, err := scanInventory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, repoErr("get inventory", err)
	}
	return item, nil
}

func (r inventoryRepository) GetMany(ctx context.Context, productIDs []string) (map[string]*domain.Item, error) {
	out := make(map[string]*domain.Item, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+inventoryColumns+` FROM inventory WHERE product_id IN (`+placeholders(len(productIDs))+`)`,
		stringArgs(productIDs)...)
	if err != nil {
		return nil, repoErr("list inventory", err)
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scanInventory(rows)
		if err != nil {
			return nil, repoErr("scan inventory", err)
		}
		out[item.ProductID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, repoErr("list inventory", err)
	}
	return out, nil
}

// RemoveStock is a single conditional UPDATE; the row lock taken by the engine
// makes check and decrement one step.
func (r inventoryRepository) RemoveStock(ctx context.Context, productID string, n int) (*domain.Item, error) {
	if n <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE inventory SET quantity = quantity - ?, last_updated = ?
		 WHERE product_id = ? AND quantity - reserved_quantity >= ?`,
		n, formatTime(time.Now()), productID, n,
	)
	if err != nil {
		return nil, repoErr("remove stock", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, repoErr("remove stock", err)
	}
	if affected == 0 {
		if _, err := r.Get(ctx, productID); err != nil {
			return nil, err
		}
		return nil, domain.ErrInsufficientStock
	}
	return r.Get(ctx, productID)
}

func (r inventoryRepository) AddStock(ctx context.Context, productID string, n int) (*domain.Item, error) {
	if n <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE inventory SET quantity = quantity + ?, last_updated = ? WHERE product_id = ?`,
		n, formatTime(time.Now()), productID,
	)
	if err != nil {
		return nil, repoErr("add stock", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, repoErr("add stock", err)
	} else if affected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.Get(ctx, productID)
}

func (r inventoryRepository) Reserve(ctx context.Context, productID string, n int) (*domain.Item, error) {
	return r.conditional(ctx, "reserve stock", productID, n, domain.ErrInsufficientStock,
		`UPDATE inventory SET reserved_quantity = reserved_quantity + ?, last_updated = ?
		 WHERE product_id = ? AND quantity - reserved_quantity >= ?`)
}

func (r inventoryRepository) Release(ctx context.Context, productID string, n int) (*domain.Item, error) {
	return r.conditional(ctx, "release stock", productID, n, domain.ErrReleaseExceedsHeld,
		`UPDATE inventory SET reserved_quantity = reserved_quantity - ?, last_updated = ?
		 WHERE product_id = ? AND reserved_quantity >= ?`)
}

// conditional runs a guarded UPDATE taking (n, now, productID, n). No affected
// row means either an unknown product or a failed guard, reported as refused.
func (r inventoryRepository) conditional(ctx context.Context, op, productID string, n int, refused error, query string) (*domain.Item, error) {
	if n <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	res, err := r.q.ExecContext(ctx, query, n, formatTime(time.Now()), productID, n)
	if err != nil {
		return nil, repoErr(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, repoErr(op, err)
	}
	if affected == 0 {
		if _, err := r.Get(ctx, productID); err != nil {
			return nil, err
		}
		return nil, refused
	}
	return r.Get(ctx, productID)
}

func (r inventoryRepository) Delete(ctx context.Context, productID string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM inventory WHERE product_id = ?`, productID)
	if err != nil {
		return repoErr("delete inventory", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return repoErr("delete inventory", err)
	} else if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInventory(s rowScanner) (*domain.Item, error) {
	var (
		item    domain.Item
		updated string
	)
	if err := s.Scan(&item.ProductID, &item.Quantity, &item.ReservedQuantity, &updated); err != nil {
		return nil, err
	}
	t, err := parseTime(updated)
	if err != nil {
		return nil, fmt.Errorf("inventory %s: %w", item.ProductID, err)
	}
	item.LastUpdated = t
	return &item, nil
}
