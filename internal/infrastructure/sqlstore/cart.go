package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
)

type cartRepository struct {
	q queryer
	d dialect
}

func (r cartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	var updated string
	err := r.q.QueryRowContext(ctx, `SELECT updated_at FROM carts WHERE user_id = ?`, userID).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, repoErr("get cart", err)
	}
	c := &domain.Cart{UserID: userID}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, repoErr("get cart", err)
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT product_id, quantity, unit_price_amount, unit_price_currency
		 FROM cart_items WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, repoErr("get cart items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			item             domain.Item
			amount, currency string
		)
		if err := rows.Scan(&item.ProductID, &item.Quantity, &amount, &currency); err != nil {
			return nil, repoErr("scan cart item", err)
		}
		if item.UnitPrice, err = money.Parse(amount, currency); err != nil {
			return nil, repoErr("scan cart item", err)
		}
		c.Items = append(c.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, repoErr("get cart items", err)
	}
	return c, nil
}

func (r cartRepository) Save(ctx context.Context, c *domain.Cart) error {
	if c == nil || c.UserID == "" {
		return domain.ErrInvalidUser
	}
	updated := c.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	if _, err := r.q.ExecContext(ctx, r.d.upsertCart, c.UserID, formatTime(updated)); err != nil {
		return repoErr("save cart", err)
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, c.UserID); err != nil {
		return repoErr("save cart", err)
	}
	for pos, item := range c.Items {
		_, err := r.q.ExecContext(ctx,
			`INSERT INTO cart_items (user_id, product_id, position, quantity, unit_price_amount, unit_price_currency)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.UserID, item.ProductID, pos, item.Quantity, item.UnitPrice.Amount().String(), item.UnitPrice.Currency(),
		)
		if err != nil {
			return repoErr("save cart item", err)
		}
	}
	return nil
}
