package controllers

import (
	"net/http"

	"github.com/kwanzatukule/marketplace/app/services"
	"github.com/kwanzatukule/marketplace/pkg/ctx"
)

type OrderController struct {
	service *services.OrderService
}

func NewOrderController(service *services.OrderService) *OrderController {
	return &OrderController{service: service}
}

type placeOrderRequest struct {
	ProduceID *uint `json:"produce_id" validate:"required"`
	Quantity  *int  `json:"quantity"   validate:"required"`
}

type placeOrderResponse struct {
	Message    string `json:"message"`
	OrderID    uint   `json:"order_id"`
	ConsumerID uint   `json:"consumer_id"`
	Status     string `json:"status"`
}

// Store handles POST /orders on behalf of the authenticated consumer.
func (oc *OrderController) Store(c *ctx.Context) {
	var req placeOrderRequest
	if !c.BindJSON(&req) {
		return
	}

	res, err := oc.service.PlaceOrder(c.Context(), c.UserID(), *req.ProduceID, *req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, placeOrderResponse{
		Message:    "Order created successfully",
		OrderID:    res.OrderID,
		ConsumerID: res.ConsumerID,
		Status:     res.Status,
	})
}

// Show handles GET /orders/{id}.
func (oc *OrderController) Show(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Order not found")
		return
	}

	view, err := oc.service.GetOrder(c.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
