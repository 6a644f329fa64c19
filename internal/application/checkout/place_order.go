package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/placement"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	checkoutService     = "checkout-service"
	useCasePlaceOrder   = "checkout.place_order"
	paymentPeer         = "payment-gateway"
	publishTimeout      = 300 * time.Millisecond
	placementLogTimeout = time.Second
)

var ErrInvalidCommand = errors.New("checkout: invalid placement request")

// AddressInput selects an existing address by ID or supplies a new one.
// When both are set the existing ID wins.
type AddressInput struct {
	ID      string
	Details *address.Details
}

func (a AddressInput) empty() bool { return a.ID == "" && a.Details == nil }

type PlaceOrderCommand struct {
	UserID           string
	PaymentReference string
	Shipping         AddressInput
	Billing          AddressInput
}

type PlaceOrderResult struct {
	OrderID string
	Total   money.Money
}

type Options struct {
	// Timeout bounds the write phase; zero leaves it to the caller's context.
	Timeout time.Duration
	// LowStockThreshold triggers inventory.low_stock events; zero disables them.
	LowStockThreshold int
}

// PlaceOrderUseCase converts a buyer's cart and a payment reference into an order.
//
// Everything that can be checked without side effects runs before the charge
// is confirmed. After confirmation a single unit of work creates addresses,
// the order and its lines, decrements stock atomically per line and clears
// the cart. A failure in that unit rolls back every write but cannot undo the
// charge; it is reported as application.ErrPaymentCapturedNotPlaced.
type PlaceOrderUseCase struct {
	uow       store.UnitOfWork
	gateway   payment.Gateway
	ids       application.IDGenerator
	publisher domoutbox.Publisher
	audit     placement.Log
	opts      Options

	inst              application.Instrument
	ext               application.External
	capturedNotPlaced observability.Counter // payment_captured_not_placed_total{reason}
}

func NewPlaceOrderUseCase(
	uow store.UnitOfWork,
	gateway payment.Gateway,
	ids application.IDGenerator,
	publisher domoutbox.Publisher,
	audit placement.Log,
	tel observability.Observability,
	opts Options,
) *PlaceOrderUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	return &PlaceOrderUseCase{
		uow:               uow,
		gateway:           gateway,
		ids:               ids,
		publisher:         publisher,
		audit:             audit,
		opts:              opts,
		inst:              application.NewInstrument(tel, checkoutService),
		ext:               application.NewExternal(tel),
		capturedNotPlaced: tel.Metrics().Counter(observability.MPaymentCapturedNotPlaced),
	}
}

var _ application.UseCase[PlaceOrderCommand, *PlaceOrderResult] = (*PlaceOrderUseCase)(nil)

// snapshot is what the read phase learned about the cart.
type snapshot struct {
	lines    []cart.Item
	products map[string]*catalog.Product
	total    money.Money
}

func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderCommand) (_ *PlaceOrderResult, err error) {
	ctx, call := uc.inst.Begin(ctx, useCasePlaceOrder, "PlaceOrder",
		attribute.String("order.user_id", cmd.UserID),
		attribute.String("payment.reference", cmd.PaymentReference),
	)
	defer func() { call.End(err) }()
	call.With(observability.F("payment_reference", cmd.PaymentReference))

	uc.record(ctx, cmd, placement.StatusStarted, "validate_input", "", nil)

	if err := validate(cmd); err != nil {
		call.Fail("INPUT_INVALID")
		uc.record(ctx, cmd, placement.StatusFailed, "validate_input", "", err)
		return nil, err
	}

	snap, err := uc.read(ctx, cmd)
	if err != nil {
		call.Fail(readFailureStatus(err))
		uc.record(ctx, cmd, placement.StatusFailed, "read_cart", "", err)
		return nil, err
	}
	var mismatch error
	if intended := uc.intentAmount(ctx, cmd.PaymentReference); intended != "" && intended != snap.total.String() {
		mismatch = fmt.Errorf("intent amount %s differs from cart total %s", intended, snap.total)
		call.Logger().Warn("payment_amount_mismatch",
			observability.F("intent_amount", intended),
			observability.F("cart_total", snap.total.String()),
		)
		call.Span().SetAttributes(attribute.String("payment.intent_amount", intended))
	}
	uc.recordAmount(ctx, cmd, placement.StatusValidated, "read_cart", "", snap.total, mismatch)
	call.Span().AddEvent("placement.validated", trace.WithAttributes(
		attribute.Int("cart.lines", len(snap.lines)),
		attribute.String("cart.total", snap.total.String()),
	))

	if err := uc.confirmPayment(ctx, cmd.PaymentReference); err != nil {
		call.Fail("PAYMENT_FAILED")
		uc.record(ctx, cmd, placement.StatusFailed, "confirm_payment", "", err)
		return nil, err
	}
	uc.record(ctx, cmd, placement.StatusPaymentConfirmed, "confirm_payment", "", nil)

	placed, touched, err := uc.write(ctx, cmd, snap)
	if err != nil {
		call.Fail("CAPTURED_NOT_PLACED")
		err = fmt.Errorf("%w: %w", application.ErrPaymentCapturedNotPlaced, err)
		uc.capturedNotPlacedFollowUp(ctx, cmd, snap.total, err)
		return nil, err
	}
	uc.recordAmount(ctx, cmd, placement.StatusCommitted, "commit", placed.ID, snap.total, nil)

	call.With(observability.F("order_id", placed.ID))
	call.Span().SetAttributes(attribute.String("order.id", placed.ID))
	call.Span().AddEvent("order.placed")

	uc.publishPlaced(ctx, call.Logger(), placed, touched)

	return &PlaceOrderResult{OrderID: placed.ID, Total: snap.total}, nil
}

func validate(cmd PlaceOrderCommand) error {
	if cmd.UserID == "" {
		return application.ErrUnauthenticated
	}
	if cmd.PaymentReference == "" {
		return fmt.Errorf("%w: payment reference is required", ErrInvalidCommand)
	}
	if cmd.Shipping.empty() {
		return fmt.Errorf("%w: shipping address is required", ErrInvalidCommand)
	}
	for _, in := range []AddressInput{cmd.Shipping, cmd.Billing} {
		if in.ID == "" && in.Details != nil {
			if err := in.Details.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// read loads and checks everything placement needs, without writing.
func (uc *PlaceOrderUseCase) read(ctx context.Context, cmd PlaceOrderCommand) (*snapshot, error) {
	var snap *snapshot
	err := uc.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Carts().Get(ctx, cmd.UserID)
		if errors.Is(err, cart.ErrNotFound) || (err == nil && c.IsEmpty()) {
			return application.ErrEmptyCart
		}
		if err != nil {
			return err
		}

		ids := c.ProductIDs()
		products, err := tx.Products().GetMany(ctx, ids)
		if err != nil {
			return err
		}
		stock, err := tx.Inventory().GetMany(ctx, ids)
		if err != nil {
			return err
		}
		for _, line := range c.Items {
			if products[line.ProductID] == nil || stock[line.ProductID] == nil {
				return fmt.Errorf("%w: %s", application.ErrProductNotFound, line.ProductID)
			}
			if stock[line.ProductID].AvailableQuantity() < line.Quantity {
				return fmt.Errorf("%w: %s", inventory.ErrInsufficientStock, line.ProductID)
			}
		}

		for _, in := range []AddressInput{cmd.Shipping, cmd.Billing} {
			if in.ID == "" {
				continue
			}
			a, err := tx.Addresses().Get(ctx, in.ID)
			if err != nil {
				return err
			}
			if a.UserID != cmd.UserID {
				return address.ErrNotFound
			}
		}

		total, err := c.Total()
		if err != nil {
			return err
		}
		snap = &snapshot{lines: c.Items, products: products, total: total}
		return nil
	})
	return snap, err
}

func (uc *PlaceOrderUseCase) confirmPayment(ctx context.Context, reference string) error {
	ctx, span := uc.ext.Span(ctx, "Payment.ConfirmPayment", paymentPeer)
	defer span.End()
	start := time.Now()
	res, err := uc.gateway.ConfirmPayment(ctx, reference)
	switch {
	case err != nil:
		uc.ext.Observe(paymentPeer, "confirm_payment", "error", start)
		return fmt.Errorf("%w: %w", payment.ErrPaymentFailed, err)
	case !res.Succeeded:
		uc.ext.Observe(paymentPeer, "confirm_payment", "rejected", start)
		return fmt.Errorf("%w: %s", payment.ErrPaymentFailed, res.Reason)
	}
	uc.ext.Observe(paymentPeer, "confirm_payment", "success", start)
	return nil
}

// write is the single atomic unit of work following payment confirmation.
func (uc *PlaceOrderUseCase) write(ctx context.Context, cmd PlaceOrderCommand, snap *snapshot) (*order.Order, []*inventory.Item, error) {
	if uc.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.opts.Timeout)
		defer cancel()
	}

	var (
		placed  *order.Order
		touched []*inventory.Item
	)
	err := uc.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		touched = touched[:0]

		shippingID, err := uc.resolveAddress(ctx, tx, cmd.UserID, cmd.Shipping)
		if err != nil {
			return err
		}
		billingID, err := uc.resolveAddress(ctx, tx, cmd.UserID, cmd.Billing)
		if err != nil {
			return err
		}

		o, err := order.New(uc.ids.NewID(), cmd.UserID, shippingID, billingID, cmd.PaymentReference)
		if err != nil {
			return err
		}

		for _, line := range snap.lines {
			p := snap.products[line.ProductID]
			if err := o.AddItem(p.ID, p.Name, line.UnitPrice, line.Quantity); err != nil {
				return err
			}
			item, err := tx.Inventory().RemoveStock(ctx, line.ProductID, line.Quantity)
			if errors.Is(err, inventory.ErrNotFound) {
				return fmt.Errorf("%w: %s", application.ErrProductNotFound, line.ProductID)
			}
			if err != nil {
				return fmt.Errorf("remove stock %s: %w", line.ProductID, err)
			}
			touched = append(touched, item)
		}

		if err := tx.Orders().Create(ctx, o); err != nil {
			return err
		}

		// Lines added to the cart after the snapshot stay for the next checkout.
		c, err := tx.Carts().Get(ctx, cmd.UserID)
		switch {
		case errors.Is(err, cart.ErrNotFound):
		case err != nil:
			return err
		default:
			for _, line := range snap.lines {
				c.Consume(line.ProductID, line.Quantity)
			}
			if err := tx.Carts().Save(ctx, c); err != nil {
				return err
			}
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return placed, touched, nil
}

func (uc *PlaceOrderUseCase) resolveAddress(ctx context.Context, tx store.Tx, userID string, in AddressInput) (string, error) {
	if in.ID != "" || in.Details == nil {
		return in.ID, nil
	}
	a, err := address.New(uc.ids.NewID(), userID, *in.Details)
	if err != nil {
		return "", err
	}
	if err := tx.Addresses().Create(ctx, a); err != nil {
		return "", err
	}
	return a.ID, nil
}

func (uc *PlaceOrderUseCase) capturedNotPlacedFollowUp(ctx context.Context, cmd PlaceOrderCommand, amount money.Money, err error) {
	reason := failureReason(err)
	uc.recordAmount(ctx, cmd, placement.StatusCapturedNotPlaced, "commit", "", amount, err)
	if uc.capturedNotPlaced != nil {
		uc.capturedNotPlaced.Add(1, observability.L("reason", reason))
	}

	logger := application.LoggerFrom(ctx, uc.inst)
	logger.Error("payment_captured_not_placed",
		observability.F("payment_reference", cmd.PaymentReference),
		observability.F("reason", reason),
		observability.F("error", err.Error()),
	)

	evt := order.NewPaymentCapturedNotPlacedEvent(cmd.UserID, cmd.PaymentReference, err.Error())
	uc.publish(context.WithoutCancel(ctx), logger, evt)
}

func (uc *PlaceOrderUseCase) publishPlaced(ctx context.Context, logger observability.Logger, o *order.Order, touched []*inventory.Item) {
	ctx = context.WithoutCancel(ctx)
	uc.publish(ctx, logger, order.NewPlacedEvent(o))
	for i, item := range touched {
		uc.publish(ctx, logger, inventory.NewStockChangedEvent(item, -o.Items[i].Quantity))
		if item.IsLow(uc.opts.LowStockThreshold) {
			uc.publish(ctx, logger, inventory.NewLowStockEvent(item, uc.opts.LowStockThreshold))
		}
	}
}

// publish is best-effort: a full queue or slow bus never fails placement.
func (uc *PlaceOrderUseCase) publish(ctx context.Context, logger observability.Logger, e domoutbox.Event) {
	if uc.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	start := time.Now()
	if err := uc.publisher.Publish(pubCtx, e); err != nil {
		uc.ext.Observe("outbox", e.EventName(), "error", start)
		logger.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
		return
	}
	uc.ext.Observe("outbox", e.EventName(), "success", start)
}

// record appends to the placement log. A log failure is reported but never
// changes the placement outcome.
func (uc *PlaceOrderUseCase) record(ctx context.Context, cmd PlaceOrderCommand, status placement.Status, step, orderID string, cause error) {
	uc.recordAmount(ctx, cmd, status, step, orderID, money.Money{}, cause)
}

func (uc *PlaceOrderUseCase) recordAmount(ctx context.Context, cmd PlaceOrderCommand, status placement.Status, step, orderID string, amount money.Money, cause error) {
	e := placement.Entry{
		UserID:           cmd.UserID,
		PaymentReference: cmd.PaymentReference,
		OrderID:          orderID,
		Status:           status,
		Step:             step,
	}
	if !amount.IsEmpty() {
		e.Amount = amount.String()
	}
	if cause != nil {
		e.Errors = []string{cause.Error()}
	}
	appendEntry(ctx, uc.audit, uc.inst, e)
}

// appendEntry stamps e with the active trace and writes it to the log on a
// detached context so a cancelled request still leaves its trail.
func appendEntry(ctx context.Context, audit placement.Log, inst application.Instrument, e placement.Entry) {
	if audit == nil {
		return
	}
	e.CreatedAt = time.Now().UTC()
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		e.TraceID = sc.TraceID().String()
		e.SpanID = sc.SpanID().String()
	}

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), placementLogTimeout)
	defer cancel()
	if err := audit.Append(logCtx, e); err != nil {
		application.LoggerFrom(ctx, inst).Warn("placement_log_append_failed",
			observability.F("placement_status", string(e.Status)),
			observability.F("error", err.Error()),
		)
	}
}

// intentAmount returns the amount recorded when the intent for reference was
// created, if any.
func (uc *PlaceOrderUseCase) intentAmount(ctx context.Context, reference string) string {
	if uc.audit == nil {
		return ""
	}
	entries, err := uc.audit.ListByReference(ctx, reference)
	if err != nil {
		return ""
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Status == placement.StatusIntentCreated {
			return entries[i].Amount
		}
	}
	return ""
}

func readFailureStatus(err error) string {
	switch {
	case errors.Is(err, application.ErrEmptyCart):
		return "EMPTY_CART"
	case errors.Is(err, application.ErrProductNotFound):
		return "PRODUCT_NOT_FOUND"
	case errors.Is(err, inventory.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, address.ErrNotFound):
		return "ADDRESS_NOT_FOUND"
	default:
		return "READ_FAILED"
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, inventory.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, application.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, store.ErrRepository):
		return "repository"
	default:
		return "other"
	}
}
