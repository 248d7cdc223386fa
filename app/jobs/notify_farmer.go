// Package jobs holds the marketplace's background jobs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kwanzatukule/marketplace/app/repositories"
	"github.com/kwanzatukule/marketplace/pkg/mail"
	"github.com/kwanzatukule/marketplace/pkg/queue"
)

// LowStockThreshold marks a notification as a restock prompt.
const LowStockThreshold = 10

// Notifier delivers a message to a farmer.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Notification is what a farmer is told about a sale.
type Notification struct {
	Email     string
	Username  string
	Produce   string
	OrderID   uint
	Quantity  int
	Remaining int
	LowStock  bool
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, msg Notification) error {
	log := n.Log
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "farmer notified",
		"email", msg.Email,
		"produce", msg.Produce,
		"order_id", msg.OrderID,
		"quantity", msg.Quantity,
		"remaining", msg.Remaining,
		"low_stock", msg.LowStock,
	)
	return nil
}

// Deps are the collaborators a NotifyFarmer needs once it is decoded.
type Deps struct {
	Repos    repositories.Repos
	Notifier Notifier
}

// NotifyFarmer tells the owner of a produce listing that units were sold.
type NotifyFarmer struct {
	OrderID   uint `json:"order_id"`
	ProduceID uint `json:"produce_id"`
	Quantity  int  `json:"quantity"`
	Remaining int  `json:"remaining"`

	deps *Deps
}

func (j *NotifyFarmer) JobName() string { return "notify_farmer" }

func (j *NotifyFarmer) Handle(ctx context.Context) error {
	if j.deps == nil {
		return fmt.Errorf("notify_farmer: job not registered with dependencies")
	}

	p, err := j.deps.Repos.Produce.Find(ctx, j.ProduceID)
	if err != nil {
		return fmt.Errorf("notify_farmer: load produce %d: %w", j.ProduceID, err)
	}
	farmer, err := j.deps.Repos.Users.FindByID(ctx, p.FarmerID)
	if err != nil {
		return fmt.Errorf("notify_farmer: load farmer %d: %w", p.FarmerID, err)
	}

	return j.deps.Notifier.Notify(ctx, Notification{
		Email:     farmer.Email,
		Username:  farmer.Username,
		Produce:   p.Name,
		OrderID:   j.OrderID,
		Quantity:  j.Quantity,
		Remaining: j.Remaining,
		LowStock:  j.Remaining <= LowStockThreshold,
	})
}

// Register makes the marketplace jobs decodable by q's workers.
func Register(q *queue.Manager, deps Deps) {
	if deps.Notifier == nil {
		deps.Notifier = LogNotifier{}
	}
	d := &deps
	q.Register("notify_farmer", func() queue.Job { return &NotifyFarmer{deps: d} })
}

// Sender is satisfied by *mail.Mailer.
type Sender interface {
	Send(ctx context.Context, msg mail.Message) error
}

// MailNotifier emails the farmer.
type MailNotifier struct {
	Mail Sender
}

func (n MailNotifier) Notify(ctx context.Context, msg Notification) error {
	body := fmt.Sprintf("Hello %s,\n\nOrder #%d reserved %d units of %s. %d units remain listed.\n",
		msg.Username, msg.OrderID, msg.Quantity, msg.Produce, msg.Remaining)
	if msg.LowStock {
		body += "\nStock is running low. Consider restocking soon.\n"
	}
	return n.Mail.Send(ctx, mail.Message{
		To:      []string{msg.Email},
		Subject: fmt.Sprintf("New order for %s", msg.Produce),
		Body:    body,
	})
}
