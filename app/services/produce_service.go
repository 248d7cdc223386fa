package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kwanzatukule/marketplace/app/events"
	"github.com/kwanzatukule/marketplace/app/models"
	"github.com/kwanzatukule/marketplace/app/repositories"
	"github.com/kwanzatukule/marketplace/pkg/cache"
	"github.com/kwanzatukule/marketplace/pkg/logger"
)

// ProduceView is the listing shape returned by GET /produce.
type ProduceView struct {
	ProduceID uint    `json:"produce_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	FarmerID  uint    `json:"farmer_id"`
}

func produceView(p models.Produce) ProduceView {
	return ProduceView{
		ProduceID: p.ID,
		Name:      p.Name,
		Price:     p.Price.InexactFloat64(),
		Quantity:  p.Quantity,
		FarmerID:  p.FarmerID,
	}
}

type ProduceService struct {
	repo  repositories.ProduceRepository
	cache cache.Store
	bus   EventBus
	ttl   time.Duration
}

// NewProduceService wires the service. store and bus may be nil.
func NewProduceService(repo repositories.ProduceRepository, store cache.Store, bus EventBus) *ProduceService {
	if bus == nil {
		bus = nopBus{}
	}
	return &ProduceService{repo: repo, cache: store, bus: bus, ttl: produceListTTL}
}

// CreateProduceInput is a new listing owned by the calling farmer.
type CreateProduceInput struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

func (s *ProduceService) Create(ctx context.Context, farmerID uint, in CreateProduceInput) (*models.Produce, error) {
	p := &models.Produce{
		Name:     in.Name,
		Quantity: in.Quantity,
		Price:    in.Price.Round(2),
		FarmerID: farmerID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	forget(ctx, s.cache, ProduceListKey)
	s.bus.FireAsync(ctx, events.ProduceCreated, events.ProduceCreatedPayload{
		ProduceID: p.ID,
		FarmerID:  p.FarmerID,
		Name:      p.Name,
		Quantity:  p.Quantity,
	})
	logger.WithCtx(ctx).Info("produce created", "produce_id", p.ID, "farmer_id", farmerID)
	return p, nil
}

// List returns every listing, served from cache when warm.
func (s *ProduceService) List(ctx context.Context) ([]ProduceView, error) {
	return remember(ctx, s.cache, ProduceListKey, s.ttl, func(ctx context.Context) ([]ProduceView, error) {
		rows, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]ProduceView, 0, len(rows))
		for _, p := range rows {
			out = append(out, produceView(p))
		}
		return out, nil
	})
}
