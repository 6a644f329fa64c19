package order

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const orderService = "order-service"

// Service exposes read access to a buyer's orders and lifecycle transitions.
type Service struct {
	uow  store.UnitOfWork
	inst application.Instrument
}

func NewService(uow store.UnitOfWork, tel observability.Observability) *Service {
	return &Service{uow: uow, inst: application.NewInstrument(tel, orderService)}
}

// GetOrder returns the order when userID owns it. Orders of other users are reported as not found.
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (_ *domain.Order, err error) {
	ctx, call := s.inst.Begin(ctx, "order.get", "GetOrder", attribute.String("order.id", orderID))
	defer func() { call.End(err) }()

	if userID == "" {
		call.Fail("UNAUTHENTICATED")
		return nil, application.ErrUnauthenticated
	}
	var o *domain.Order
	err = s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		o, err = ownedOrder(ctx, tx, userID, orderID)
		return err
	})
	if err != nil {
		call.Fail(failStatus(err))
		return nil, err
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, userID string) (_ []*domain.Order, err error) {
	ctx, call := s.inst.Begin(ctx, "order.list", "ListOrders")
	defer func() { call.End(err) }()

	if userID == "" {
		call.Fail("UNAUTHENTICATED")
		return nil, application.ErrUnauthenticated
	}
	var out []*domain.Order
	err = s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.Orders().ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		call.Fail("LIST_FAILED")
		return nil, err
	}
	call.With(observability.F("orders", len(out)))
	return out, nil
}

// ChangeStatus is the operator transition for any order.
func (s *Service) ChangeStatus(ctx context.Context, orderID string, to domain.Status) (_ *domain.Order, err error) {
	ctx, call := s.inst.Begin(ctx, "order.change_status", "ChangeOrderStatus",
		attribute.String("order.id", orderID),
		attribute.String("order.status_to", string(to)),
	)
	defer func() { call.End(err) }()

	var o *domain.Order
	err = s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if o, err = tx.Orders().Get(ctx, orderID); err != nil {
			return err
		}
		return move(ctx, tx, o, to)
	})
	if err != nil {
		call.Fail(failStatus(err))
		return nil, err
	}
	return o, nil
}

// CancelOrder lets a buyer cancel their own unfinished order.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID string) (_ *domain.Order, err error) {
	ctx, call := s.inst.Begin(ctx, "order.cancel", "CancelOrder", attribute.String("order.id", orderID))
	defer func() { call.End(err) }()

	if userID == "" {
		call.Fail("UNAUTHENTICATED")
		return nil, application.ErrUnauthenticated
	}
	var o *domain.Order
	err = s.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if o, err = ownedOrder(ctx, tx, userID, orderID); err != nil {
			return err
		}
		return move(ctx, tx, o, domain.StatusCancelled)
	})
	if err != nil {
		call.Fail(failStatus(err))
		return nil, err
	}
	return o, nil
}

func ownedOrder(ctx context.Context, tx store.Tx, userID, orderID string) (*domain.Order, error) {
	o, err := tx.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func move(ctx context.Context, tx store.Tx, o *domain.Order, to domain.Status) error {
	if err := o.MoveToStatus(to); err != nil {
		return err
	}
	return tx.Orders().Update(ctx, o)
}

func failStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "ORDER_NOT_FOUND"
	case errors.Is(err, domain.ErrAlreadyFinished):
		return "ALREADY_FINISHED"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "INVALID_TRANSITION"
	default:
		return "REPO_FAILED"
	}
}
