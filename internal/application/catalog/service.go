package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogService = "catalog-service"
	publishTimeout = 300 * time.Millisecond
)

// ProductView is a product together with its current availability.
type ProductView struct {
	domain.Product
	Available int `json:"available"`
}

type Service struct {
	uow       store.UnitOfWork
	ids       application.IDGenerator
	cache     Cache
	ttl       time.Duration
	publisher domoutbox.Publisher
	inst      application.Instrument
}

func NewService(
	uow store.UnitOfWork,
	ids application.IDGenerator,
	cache Cache,
	ttl time.Duration,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *Service {
	return &Service{
		uow:       uow,
		ids:       ids,
		cache:     cache,
		ttl:       ttl,
		publisher: publisher,
		inst:      application.NewInstrument(tel, catalogService),
	}
}

type CreateProductInput struct {
	Name            string
	Price           money.Money
	InitialQuantity int
}

// CreateProduct stores a product and its inventory in one unit of work.
func (s *Service) CreateProduct(ctx context.Context, in CreateProductInput) (_ *ProductView, err error) {
	ctx, call := s.inst.Begin(ctx, "catalog.create_product", "CreateProduct",
		attribute.String("product.name", in.Name),
	)
	defer func() { call.End(err) }()

	p, err := domain.NewProduct(s.ids.NewID(), in.Name, in.Price)
	if err != nil {
		call.Fail("PRODUCT_INVALID")
		return nil, err
	}
	item, err := inventory.Create(p.ID, in.InitialQuantity)
	if err != nil {
		call.Fail("INVENTORY_INVALID")
		return nil, err
	}

	err = s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Products().Create(ctx, p); err != nil {
			return err
		}
		return tx.Inventory().Create(ctx, item)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNameTaken) {
			call.Fail("NAME_TAKEN")
		} else {
			call.Fail("REPO_INSERT_FAILED")
		}
		return nil, err
	}

	s.invalidate(ctx, domain.ProductListKey)
	call.With(observability.F("product_id", p.ID))
	return &ProductView{Product: *p, Available: item.AvailableQuantity()}, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (_ *ProductView, err error) {
	ctx, call := s.inst.Begin(ctx, "catalog.get_product", "GetProduct", attribute.String("product.id", id))
	defer func() { call.End(err) }()

	var view ProductView
	if s.cached(ctx, domain.ProductKey(id), &view) {
		call.Status = "CACHE_HIT"
		return &view, nil
	}

	err = s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.Products().Get(ctx, id)
		if err != nil {
			return err
		}
		item, err := tx.Inventory().Get(ctx, id)
		if err != nil {
			return err
		}
		view = ProductView{Product: *p, Available: item.AvailableQuantity()}
		return nil
	})
	if err != nil {
		call.Fail("PRODUCT_LOAD_FAILED")
		return nil, err
	}
	s.store(ctx, domain.ProductKey(id), view)
	return &view, nil
}

func (s *Service) ListProducts(ctx context.Context) (_ []ProductView, err error) {
	ctx, call := s.inst.Begin(ctx, "catalog.list_products", "ListProducts")
	defer func() { call.End(err) }()

	var views []ProductView
	if s.cached(ctx, domain.ProductListKey, &views) {
		call.Status = "CACHE_HIT"
		return views, nil
	}

	err = s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		products, err := tx.Products().List(ctx)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(products))
		for _, p := range products {
			ids = append(ids, p.ID)
		}
		stock, err := tx.Inventory().GetMany(ctx, ids)
		if err != nil {
			return err
		}
		views = make([]ProductView, 0, len(products))
		for _, p := range products {
			v := ProductView{Product: *p}
			if item := stock[p.ID]; item != nil {
				v.Available = item.AvailableQuantity()
			}
			views = append(views, v)
		}
		return nil
	})
	if err != nil {
		call.Fail("LIST_FAILED")
		return nil, err
	}
	s.store(ctx, domain.ProductListKey, views)
	return views, nil
}

// Restock adds units to a product's inventory.
func (s *Service) Restock(ctx context.Context, id string, n int) (_ *ProductView, err error) {
	ctx, call := s.inst.Begin(ctx, "catalog.restock", "Restock",
		attribute.String("product.id", id),
		attribute.Int("inventory.delta", n),
	)
	defer func() { call.End(err) }()

	var (
		view ProductView
		item *inventory.Item
	)
	err = s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.Products().Get(ctx, id)
		if err != nil {
			return err
		}
		if item, err = tx.Inventory().AddStock(ctx, id, n); err != nil {
			return err
		}
		view = ProductView{Product: *p, Available: item.AvailableQuantity()}
		return nil
	})
	if err != nil {
		call.Fail("RESTOCK_FAILED")
		return nil, err
	}

	s.invalidate(ctx, domain.ProductKey(id), domain.ProductListKey)
	s.publish(ctx, call.Logger(), inventory.NewStockChangedEvent(item, n))
	return &view, nil
}

// HoldStock sets n available units aside so checkout cannot sell them.
func (s *Service) HoldStock(ctx context.Context, id string, n int) (*ProductView, error) {
	return s.adjustHold(ctx, "catalog.hold_stock", "HoldStock", id, n, inventory.Repository.Reserve)
}

// ReleaseStock returns n held units to sale.
func (s *Service) ReleaseStock(ctx context.Context, id string, n int) (*ProductView, error) {
	return s.adjustHold(ctx, "catalog.release_stock", "ReleaseStock", id, n, inventory.Repository.Release)
}

func (s *Service) adjustHold(ctx context.Context, spanName, operation, id string, n int,
	fn func(inventory.Repository, context.Context, string, int) (*inventory.Item, error),
) (_ *ProductView, err error) {
	ctx, call := s.inst.Begin(ctx, spanName, operation,
		attribute.String("product.id", id),
		attribute.Int("inventory.delta", n),
	)
	defer func() { call.End(err) }()

	var view ProductView
	err = s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.Products().Get(ctx, id)
		if err != nil {
			return err
		}
		item, err := fn(tx.Inventory(), ctx, id, n)
		if err != nil {
			return err
		}
		view = ProductView{Product: *p, Available: item.AvailableQuantity()}
		return nil
	})
	if err != nil {
		call.Fail("HOLD_FAILED")
		return nil, err
	}
	call.With(observability.F("available", view.Available))

	s.invalidate(ctx, domain.ProductKey(id), domain.ProductListKey)
	return &view, nil
}

// RemoveProduct deletes a product and its inventory together.
func (s *Service) RemoveProduct(ctx context.Context, id string) (err error) {
	ctx, call := s.inst.Begin(ctx, "catalog.remove_product", "RemoveProduct", attribute.String("product.id", id))
	defer func() { call.End(err) }()

	err = s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Products().Delete(ctx, id); err != nil {
			return err
		}
		if err := tx.Inventory().Delete(ctx, id); err != nil && !errors.Is(err, inventory.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		call.Fail("REMOVE_FAILED")
		return err
	}
	s.invalidate(ctx, domain.ProductKey(id), domain.ProductListKey)
	return nil
}

// cached decodes a cache hit into dest. Cache faults degrade to a miss.
func (s *Service) cached(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		application.LoggerFrom(ctx, s.inst).Warn("cache_get_failed",
			observability.F("key", key),
			observability.F("error", err.Error()),
		)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		_ = s.cache.Remove(ctx, key)
		return false
	}
	return true
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err == nil {
		err = s.cache.Set(ctx, key, raw, s.ttl)
	}
	if err != nil {
		application.LoggerFrom(ctx, s.inst).Warn("cache_set_failed",
			observability.F("key", key),
			observability.F("error", err.Error()),
		)
	}
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	for _, key := range keys {
		if err := s.cache.Remove(ctx, key); err != nil {
			application.LoggerFrom(ctx, s.inst).Warn("cache_remove_failed",
				observability.F("key", key),
				observability.F("error", err.Error()),
			)
		}
	}
}

func (s *Service) publish(ctx context.Context, logger observability.Logger, e domoutbox.Event) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, e); err != nil {
		logger.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", fmt.Sprint(err)),
		)
	}
}
