package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
)

type productRepository struct{ q queryer }

const productColumns = `id, name, price_amount, price_currency, created_at`

func (r productRepository) Create(ctx context.Context, p *catalog.Product) error {
	if p == nil || p.ID == "" {
		return repoErr("create product", errors.New("id is required"))
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Price.Amount().String(), p.Price.Currency(), formatTime(p.CreatedAt),
	)
	if isUniqueViolation(err) {
		return catalog.ErrNameTaken
	}
	if err != nil {
		return repoErr("create product", err)
	}
	return nil
}

func (r productRepository) Get(ctx context.Context, id string) (*catalog.Product, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, repoErr("get product", err)
	}
	return p, nil
}

func (r productRepository) GetMany(ctx context.Context, ids []string) (map[string]*catalog.Product, error) {
	out := make(map[string]*catalog.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list, err := r.query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func (r productRepository) List(ctx context.Context) ([]*catalog.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
}

func (r productRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return repoErr("delete product", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return repoErr("delete product", err)
	} else if affected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (r productRepository) query(ctx context.Context, query string, args ...any) ([]*catalog.Product, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, repoErr("list products", err)
	}
	defer rows.Close()

	out := make([]*catalog.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, repoErr("scan product", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, repoErr("list products", err)
	}
	return out, nil
}

func scanProduct(s rowScanner) (*catalog.Product, error) {
	var (
		p                catalog.Product
		amount, currency string
		created          string
	)
	if err := s.Scan(&p.ID, &p.Name, &amount, &currency, &created); err != nil {
		return nil, err
	}
	price, err := money.Parse(amount, currency)
	if err != nil {
		return nil, err
	}
	p.Price = price
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &p, nil
}

type addressRepository struct{ q queryer }

func (r addressRepository) Create(ctx context.Context, a *address.Address) error {
	if a == nil || a.ID == "" {
		return repoErr("create address", errors.New("id is required"))
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO addresses (id, user_id, line1, line2, city, postal_code, country, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Line1, a.Line2, a.City, a.PostalCode, a.Country, formatTime(a.CreatedAt),
	)
	if err != nil {
		return repoErr("create address", err)
	}
	return nil
}

func (r addressRepository) Get(ctx context.Context, id string) (*address.Address, error) {
	var (
		a       address.Address
		created string
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, line1, line2, city, postal_code, country, created_at
		 FROM addresses WHERE id = ?`, id,
	).Scan(&a.ID, &a.UserID, &a.Line1, &a.Line2, &a.City, &a.PostalCode, &a.Country, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, address.ErrNotFound
	}
	if err != nil {
		return nil, repoErr("get address", err)
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, repoErr("get address", err)
	}
	return &a, nil
}
