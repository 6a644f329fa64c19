package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
)

type orderRepository struct{ q queryer }

const orderColumns = `id, user_id, status, shipping_address_id, billing_address_id, payment_reference, created_at, modified_at, completed_at`

func (r orderRepository) Create(ctx context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return repoErr("create order", errors.New("id is required"))
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, string(o.Status), o.ShippingAddressID, o.BillingAddressID, o.PaymentReference,
		formatTime(o.CreatedAt), formatTime(o.ModifiedAt), nullableTime(o),
	)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return repoErr("create order", err)
	}
	for pos, item := range o.Items {
		_, err := r.q.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, position, product_name, unit_price_amount, unit_price_currency, quantity)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.ID, item.ProductID, pos, item.ProductName,
			item.UnitPrice.Amount().String(), item.UnitPrice.Currency(), item.Quantity,
		)
		if err != nil {
			return repoErr("create order item", err)
		}
	}
	return nil
}

func (r orderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, repoErr("get order", err)
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r orderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, repoErr("list orders", err)
	}
	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, repoErr("scan order", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, repoErr("list orders", err)
	}
	rows.Close()

	// items are loaded after the cursor is closed; sqlite runs on one connection.
	for _, o := range out {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r orderRepository) Update(ctx context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return repoErr("update order", errors.New("id is required"))
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE orders SET status = ?, modified_at = ?, completed_at = ? WHERE id = ?`,
		string(o.Status), formatTime(o.ModifiedAt), nullableTime(o), o.ID,
	)
	if err != nil {
		return repoErr("update order", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return repoErr("update order", err)
	} else if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r orderRepository) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := r.q.QueryContext(ctx,
		`SELECT product_id, product_name, unit_price_amount, unit_price_currency, quantity
		 FROM order_items WHERE order_id = ? ORDER BY position`, o.ID)
	if err != nil {
		return repoErr("get order items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			item             domain.Item
			amount, currency string
		)
		if err := rows.Scan(&item.ProductID, &item.ProductName, &amount, &currency, &item.Quantity); err != nil {
			return repoErr("scan order item", err)
		}
		if item.UnitPrice, err = money.Parse(amount, currency); err != nil {
			return repoErr("scan order item", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return repoErr("get order items", err)
	}
	return nil
}

func scanOrder(s rowScanner) (*domain.Order, error) {
	var (
		o                 domain.Order
		status            string
		created, modified string
		completed         sql.NullString
	)
	if err := s.Scan(&o.ID, &o.UserID, &status, &o.ShippingAddressID, &o.BillingAddressID,
		&o.PaymentReference, &created, &modified, &completed); err != nil {
		return nil, err
	}
	var err error
	if o.Status, err = domain.ParseStatus(status); err != nil {
		return nil, err
	}
	if o.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if o.ModifiedAt, err = parseTime(modified); err != nil {
		return nil, err
	}
	if completed.Valid {
		t, err := parseTime(completed.String)
		if err != nil {
			return nil, err
		}
		o.CompletedAt = &t
	}
	return &o, nil
}

func nullableTime(o *domain.Order) sql.NullString {
	if o.CompletedAt == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*o.CompletedAt), Valid: true}
}
