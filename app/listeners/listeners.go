// Package listeners wires the follow-up work of committed domain events:
// the live stock feed, the Kafka stream and the farmer notification job.
// Listeners run after commit, so a failure here is logged and never undoes
// the placement.
package listeners

import (
	"context"
	"strconv"

	"github.com/kwanzatukule/marketplace/app/events"
	"github.com/kwanzatukule/marketplace/app/jobs"
	"github.com/kwanzatukule/marketplace/pkg/broker"
	"github.com/kwanzatukule/marketplace/pkg/event"
	"github.com/kwanzatukule/marketplace/pkg/logger"
	"github.com/kwanzatukule/marketplace/pkg/queue"
)

// StockPublisher is satisfied by *ws.Hub.
type StockPublisher interface {
	Publish(v any) error
}

// JobDispatcher is satisfied by *queue.Manager.
type JobDispatcher interface {
	Dispatch(ctx context.Context, job queue.Job) error
}

// Deps are optional; a nil field disables that listener.
type Deps struct {
	Stock  StockPublisher
	Broker broker.Publisher
	Jobs   JobDispatcher
}

// StockUpdate is the message pushed to /ws/stock subscribers.
type StockUpdate struct {
	Type      string `json:"type"`
	ProduceID uint   `json:"produce_id"`
	Quantity  int    `json:"quantity"`
}

// Register subscribes the marketplace listeners on d.
func Register(d *event.Dispatcher, deps Deps) {
	if deps.Stock != nil {
		d.Listen(events.OrderPlaced, broadcastStock(deps.Stock))
		d.Listen(events.ProduceCreated, broadcastStock(deps.Stock))
	}
	if deps.Broker != nil {
		d.Listen(events.OrderPlaced, stream(deps.Broker, events.OrderPlaced))
		d.Listen(events.ProduceCreated, stream(deps.Broker, events.ProduceCreated))
	}
	if deps.Jobs != nil {
		d.Listen(events.OrderPlaced, notifyFarmer(deps.Jobs))
	}
}

func broadcastStock(pub StockPublisher) event.Handler {
	return func(ctx context.Context, payload any) {
		var msg StockUpdate
		switch p := payload.(type) {
		case events.OrderPlacedPayload:
			msg = StockUpdate{Type: events.OrderPlaced, ProduceID: p.ProduceID, Quantity: p.Remaining}
		case events.ProduceCreatedPayload:
			msg = StockUpdate{Type: events.ProduceCreated, ProduceID: p.ProduceID, Quantity: p.Quantity}
		default:
			return
		}
		if err := pub.Publish(msg); err != nil {
			logger.WithCtx(ctx).Warn("stock broadcast failed", "produce_id", msg.ProduceID, "error", err)
		}
	}
}

func stream(pub broker.Publisher, name string) event.Handler {
	return func(ctx context.Context, payload any) {
		var key string
		switch p := payload.(type) {
		case events.OrderPlacedPayload:
			key = uintKey(p.OrderID)
		case events.ProduceCreatedPayload:
			key = uintKey(p.ProduceID)
		default:
			return
		}
		if err := pub.Publish(ctx, name, key, payload); err != nil {
			logger.WithCtx(ctx).Error("event publish failed", "event", name, "key", key, "error", err)
		}
	}
}

func notifyFarmer(q JobDispatcher) event.Handler {
	return func(ctx context.Context, payload any) {
		p, ok := payload.(events.OrderPlacedPayload)
		if !ok {
			return
		}
		job := &jobs.NotifyFarmer{OrderID: p.OrderID, ProduceID: p.ProduceID, Quantity: p.Quantity, Remaining: p.Remaining}
		if err := q.Dispatch(ctx, job); err != nil {
			logger.WithCtx(ctx).Error("farmer notification not queued", "order_id", p.OrderID, "error", err)
		}
	}
}

func uintKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
