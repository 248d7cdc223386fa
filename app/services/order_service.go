package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kwanzatukule/marketplace/app/apperr"
	"github.com/kwanzatukule/marketplace/app/events"
	"github.com/kwanzatukule/marketplace/app/models"
	"github.com/kwanzatukule/marketplace/app/repositories"
	"github.com/kwanzatukule/marketplace/pkg/cache"
	"github.com/kwanzatukule/marketplace/pkg/logger"
	"github.com/kwanzatukule/marketplace/pkg/metrics"
)

// OrderResult is what a successful placement reports back.
type OrderResult struct {
	OrderID    uint   `json:"order_id"`
	ConsumerID uint   `json:"consumer_id"`
	Status     string `json:"status"`
}

// OrderView is an order with its items, as returned by GET /orders/{id}.
type OrderView struct {
	OrderID    uint            `json:"order_id"`
	ConsumerID uint            `json:"consumer_id"`
	StaffID    *uint           `json:"staff_id"`
	OrderDate  time.Time       `json:"order_date"`
	Status     string          `json:"status"`
	Items      []OrderItemView `json:"items"`
}

type OrderItemView struct {
	OrderItemID uint  `json:"order_item_id"`
	ProduceID   *uint `json:"produce_id"`
	Quantity    int   `json:"quantity"`
}

func orderView(o *models.Order) *OrderView {
	v := &OrderView{
		OrderID:    o.ID,
		ConsumerID: o.ConsumerID,
		StaffID:    o.StaffID,
		OrderDate:  o.OrderDate.UTC(),
		Status:     o.Status,
		Items:      make([]OrderItemView, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, OrderItemView{OrderItemID: it.ID, ProduceID: it.ProduceID, Quantity: it.Quantity})
	}
	return v
}

// OrderService places orders and reads them back.
type OrderService struct {
	uow     repositories.UnitOfWork
	orders  repositories.OrderRepository
	cache   cache.Store
	bus     EventBus
	tracer  trace.Tracer
	retries int
}

type OrderOption func(*OrderService)

func WithTracer(t trace.Tracer) OrderOption { return func(s *OrderService) { s.tracer = t } }

// WithConflictRetries sets how many times a conflicting placement is re-run.
func WithConflictRetries(n int) OrderOption {
	return func(s *OrderService) {
		if n >= 0 {
			s.retries = n
		}
	}
}

func WithOrderCache(store cache.Store) OrderOption { return func(s *OrderService) { s.cache = store } }

func WithEventBus(bus EventBus) OrderOption {
	return func(s *OrderService) {
		if bus != nil {
			s.bus = bus
		}
	}
}

// NewOrderService builds the service. orders serves reads outside any
// transaction; placements go through uow.
func NewOrderService(uow repositories.UnitOfWork, orders repositories.OrderRepository, opts ...OrderOption) *OrderService {
	s := &OrderService{
		uow:     uow,
		orders:  orders,
		bus:     nopBus{},
		tracer:  otel.Tracer("github.com/kwanzatukule/marketplace/app/services"),
		retries: 1,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// PlaceOrder reserves quantity units of produceID for consumerID and records
// a Pending order with one item, all in one transaction. A write conflict
// re-runs the whole transaction up to the configured retry count.
//
// Errors: apperr.InvalidInput, apperr.NotFound, apperr.InsufficientStock,
// apperr.Conflict, or an unclassified store error.
func (s *OrderService) PlaceOrder(ctx context.Context, consumerID, produceID uint, quantity int) (*OrderResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "orders.place", trace.WithAttributes(
		attribute.Int64("order.consumer_id", int64(consumerID)),
		attribute.Int64("produce.id", int64(produceID)),
		attribute.Int("order.quantity", quantity),
	))
	defer span.End()

	log := logger.WithCtx(ctx)

	if quantity <= 0 {
		err := apperr.InvalidInput("Quantity must be a positive integer")
		s.finish(span, start, err)
		return nil, err
	}

	var (
		res       *OrderResult
		remaining int
		err       error
	)
	for attempt := 0; ; attempt++ {
		res, remaining, err = s.place(ctx, consumerID, produceID, quantity)
		if err == nil || !errors.Is(err, apperr.ErrConflict) || attempt >= s.retries {
			break
		}
		metrics.PlacementRetries.Inc()
		span.AddEvent("retry", trace.WithAttributes(attribute.Int("attempt", attempt+1)))
		log.Warn("order placement conflict, retrying", "produce_id", produceID, "attempt", attempt+1)
	}
	s.finish(span, start, err)

	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			log.Error("order placement failed", "produce_id", produceID, "error", err)
		}
		return nil, err
	}

	metrics.UnitsReserved.Add(float64(quantity))
	span.SetAttributes(attribute.Int64("order.id", int64(res.OrderID)))
	log.Info("order placed", "order_id", res.OrderID, "produce_id", produceID, "quantity", quantity, "remaining", remaining)

	forget(ctx, s.cache, ProduceListKey)
	s.bus.FireAsync(ctx, events.OrderPlaced, events.OrderPlacedPayload{
		OrderID:    res.OrderID,
		ConsumerID: consumerID,
		ProduceID:  produceID,
		Quantity:   quantity,
		Remaining:  remaining,
		Status:     res.Status,
		PlacedAt:   time.Now().UTC(),
	})
	return res, nil
}

// place is one transactional attempt. The order row is inserted first so the
// item can reference its assigned id.
func (s *OrderService) place(ctx context.Context, consumerID, produceID uint, quantity int) (*OrderResult, int, error) {
	var (
		res       *OrderResult
		remaining int
	)
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		rctx, span := s.tracer.Start(ctx, "inventory.reserve")
		left, err := r.Produce.Reserve(rctx, produceID, quantity)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if err != nil {
			return err
		}

		order := &models.Order{ConsumerID: consumerID, Status: models.StatusPending}
		if err := r.Orders.Create(ctx, order); err != nil {
			return err
		}

		pid := produceID
		item := &models.OrderItem{OrderID: order.ID, ProduceID: &pid, Quantity: quantity}
		if err := r.Orders.CreateItem(ctx, item); err != nil {
			return err
		}

		res = &OrderResult{OrderID: order.ID, ConsumerID: order.ConsumerID, Status: order.Status}
		remaining = left
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return res, remaining, nil
}

func (s *OrderService) finish(span trace.Span, start time.Time, err error) {
	outcome := outcomeOf(err)
	metrics.RecordPlacement(outcome, start)
	span.SetAttributes(attribute.String("order.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return "created"
	}
	switch apperr.KindOf(err) {
	case apperr.KindInsufficientStock:
		return "insufficient_stock"
	case apperr.KindNotFound:
		return "not_found"
	case apperr.KindConflict:
		return "conflict"
	case apperr.KindInvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

// GetOrder returns the order and its items. Orders are immutable once placed,
// so views are cached without invalidation.
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "orders.get", trace.WithAttributes(attribute.Int64("order.id", int64(id))))
	defer span.End()

	key := orderKeyPrefix + strconv.FormatUint(uint64(id), 10)
	return remember(ctx, s.cache, key, orderViewTTL, func(ctx context.Context) (*OrderView, error) {
		o, err := s.orders.FindWithItems(ctx, id)
		if err != nil {
			return nil, err
		}
		return orderView(o), nil
	})
}
