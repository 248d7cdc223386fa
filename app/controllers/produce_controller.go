package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/kwanzatukule/marketplace/app/services"
	"github.com/kwanzatukule/marketplace/pkg/ctx"
)

type ProduceController struct {
	service *services.ProduceService
}

func NewProduceController(service *services.ProduceService) *ProduceController {
	return &ProduceController{service: service}
}

type createProduceRequest struct {
	Name     string           `json:"name"     validate:"required,max=100"`
	Quantity *int             `json:"quantity" validate:"required,gte=0"`
	Price    *decimal.Decimal `json:"price"    validate:"required,gte=0,max=99999999.99"`
}

// Store handles POST /produce. The listing belongs to the caller.
func (pc *ProduceController) Store(c *ctx.Context) {
	var req createProduceRequest
	if !c.BindJSON(&req) {
		return
	}

	p, err := pc.service.Create(c.Context(), c.UserID(), services.CreateProduceInput{
		Name:     req.Name,
		Quantity: *req.Quantity,
		Price:    *req.Price,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, map[string]any{
		"message":    "Produce added successfully",
		"produce_id": p.ID,
	})
}

// Index handles GET /produce.
func (pc *ProduceController) Index(c *ctx.Context) {
	list, err := pc.service.List(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
