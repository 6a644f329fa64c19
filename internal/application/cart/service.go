package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const cartService = "cart-service"

// Service runs cart mutations. Each call is its own unit of work. Calls with
// an empty UserID are anonymous: they are validated against inventory and
// nothing is stored.
type Service struct {
	uow  store.UnitOfWork
	inst application.Instrument
}

func NewService(uow store.UnitOfWork, tel observability.Observability) *Service {
	return &Service{uow: uow, inst: application.NewInstrument(tel, cartService)}
}

type ItemInput struct {
	UserID    string
	ProductID string
	Quantity  int
}

// AddItem checks that the resulting line quantity is available and adds it.
// The returned cart is nil for anonymous callers.
func (s *Service) AddItem(ctx context.Context, in ItemInput) (_ *domcart.Cart, err error) {
	ctx, call := s.inst.Begin(ctx, "cart.add_item", "AddCartItem",
		attribute.String("cart.product_id", in.ProductID),
		attribute.Bool("cart.anonymous", in.UserID == ""),
	)
	defer func() { call.End(err) }()

	if in.Quantity <= 0 {
		call.Fail("QUANTITY_INVALID")
		return nil, domcart.ErrInvalidQuantity
	}

	var result *domcart.Cart
	err = s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		product, item, err := loadStock(ctx, tx, in.ProductID)
		if err != nil {
			call.Fail("PRODUCT_LOOKUP_FAILED")
			return err
		}

		if in.UserID == "" {
			if item.AvailableQuantity() < in.Quantity {
				call.Fail("INSUFFICIENT_STOCK")
				return inventory.ErrInsufficientStock
			}
			call.Status = "VALIDATED_ANONYMOUS"
			return nil
		}

		c, err := loadOrNewCart(ctx, tx, in.UserID)
		if err != nil {
			call.Fail("CART_LOAD_FAILED")
			return err
		}
		requested := in.Quantity
		if line, ok := c.Item(in.ProductID); ok {
			requested += line.Quantity
		}
		if item.AvailableQuantity() < requested {
			call.Fail("INSUFFICIENT_STOCK")
			return inventory.ErrInsufficientStock
		}
		if err := c.AddItem(product.ID, product.Price, in.Quantity); err != nil {
			call.Fail("CART_ADD_FAILED")
			return err
		}
		if err := tx.Carts().Save(ctx, c); err != nil {
			call.Fail("CART_SAVE_FAILED")
			return err
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ChangeItemQuantity sets a line to an exact quantity after an availability check.
func (s *Service) ChangeItemQuantity(ctx context.Context, in ItemInput) (_ *domcart.Cart, err error) {
	ctx, call := s.inst.Begin(ctx, "cart.change_quantity", "ChangeCartItemQuantity",
		attribute.String("cart.product_id", in.ProductID),
		attribute.Bool("cart.anonymous", in.UserID == ""),
	)
	defer func() { call.End(err) }()

	var result *domcart.Cart
	err = s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		if in.UserID == "" {
			if in.Quantity <= 0 {
				call.Fail("QUANTITY_INVALID")
				return domcart.ErrInvalidQuantity
			}
			_, item, err := loadStock(ctx, tx, in.ProductID)
			if err != nil {
				call.Fail("PRODUCT_LOOKUP_FAILED")
				return err
			}
			if item.AvailableQuantity() < in.Quantity {
				call.Fail("INSUFFICIENT_STOCK")
				return inventory.ErrInsufficientStock
			}
			call.Status = "VALIDATED_ANONYMOUS"
			return nil
		}

		c, err := tx.Carts().Get(ctx, in.UserID)
		if errors.Is(err, domcart.ErrNotFound) {
			call.Fail("ITEM_NOT_FOUND")
			return domcart.ErrItemNotFound
		}
		if err != nil {
			call.Fail("CART_LOAD_FAILED")
			return err
		}
		if _, ok := c.Item(in.ProductID); !ok {
			call.Fail("ITEM_NOT_FOUND")
			return domcart.ErrItemNotFound
		}
		if in.Quantity <= 0 {
			call.Fail("QUANTITY_INVALID")
			return domcart.ErrInvalidQuantity
		}
		_, item, err := loadStock(ctx, tx, in.ProductID)
		if err != nil {
			call.Fail("PRODUCT_LOOKUP_FAILED")
			return err
		}
		if item.AvailableQuantity() < in.Quantity {
			call.Fail("INSUFFICIENT_STOCK")
			return inventory.ErrInsufficientStock
		}
		if err := c.ChangeItemQuantity(in.ProductID, in.Quantity); err != nil {
			call.Fail("CART_CHANGE_FAILED")
			return err
		}
		if err := tx.Carts().Save(ctx, c); err != nil {
			call.Fail("CART_SAVE_FAILED")
			return err
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (_ *domcart.Cart, err error) {
	ctx, call := s.inst.Begin(ctx, "cart.remove_item", "RemoveCartItem",
		attribute.String("cart.product_id", productID),
	)
	defer func() { call.End(err) }()

	if userID == "" {
		call.Fail("UNAUTHENTICATED")
		return nil, application.ErrUnauthenticated
	}

	var result *domcart.Cart
	err = s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Carts().Get(ctx, userID)
		if errors.Is(err, domcart.ErrNotFound) {
			call.Fail("ITEM_NOT_FOUND")
			return domcart.ErrItemNotFound
		}
		if err != nil {
			call.Fail("CART_LOAD_FAILED")
			return err
		}
		if err := c.RemoveItem(productID); err != nil {
			call.Fail("ITEM_NOT_FOUND")
			return err
		}
		if err := tx.Carts().Save(ctx, c); err != nil {
			call.Fail("CART_SAVE_FAILED")
			return err
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Clear empties the user's cart. Clearing a cart that was never stored is a no-op.
func (s *Service) Clear(ctx context.Context, userID string) (err error) {
	ctx, call := s.inst.Begin(ctx, "cart.clear", "ClearCart")
	defer func() { call.End(err) }()

	if userID == "" {
		call.Fail("UNAUTHENTICATED")
		return application.ErrUnauthenticated
	}

	return s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Carts().Get(ctx, userID)
		if errors.Is(err, domcart.ErrNotFound) {
			call.Status = "NOOP"
			return nil
		}
		if err != nil {
			call.Fail("CART_LOAD_FAILED")
			return err
		}
		c.Clear()
		if err := tx.Carts().Save(ctx, c); err != nil {
			call.Fail("CART_SAVE_FAILED")
			return err
		}
		return nil
	})
}

// Get returns the user's cart, or an empty one when none was stored yet.
func (s *Service) Get(ctx context.Context, userID string) (_ *domcart.Cart, err error) {
	ctx, call := s.inst.Begin(ctx, "cart.get", "GetCart")
	defer func() { call.End(err) }()

	if userID == "" {
		call.Fail("UNAUTHENTICATED")
		return nil, application.ErrUnauthenticated
	}

	var result *domcart.Cart
	err = s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := loadOrNewCart(ctx, tx, userID)
		if err != nil {
			call.Fail("CART_LOAD_FAILED")
			return err
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	call.With(observability.F("cart_lines", len(result.Items)))
	return result, nil
}

func loadStock(ctx context.Context, tx store.Tx, productID string) (*catalog.Product, *inventory.Item, error) {
	product, err := tx.Products().Get(ctx, productID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", application.ErrProductNotFound, productID)
	}
	if err != nil {
		return nil, nil, err
	}
	item, err := tx.Inventory().Get(ctx, productID)
	if errors.Is(err, inventory.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", application.ErrProductNotFound, productID)
	}
	if err != nil {
		return nil, nil, err
	}
	return product, item, nil
}

func loadOrNewCart(ctx context.Context, tx store.Tx, userID string) (*domcart.Cart, error) {
	c, err := tx.Carts().Get(ctx, userID)
	if errors.Is(err, domcart.ErrNotFound) {
		return domcart.New(userID)
	}
	return c, err
}
