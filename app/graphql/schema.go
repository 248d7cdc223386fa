// Package graphql exposes the read side of the marketplace (produce listing
// and orders) as a GraphQL schema.
package graphql

import (
	"context"
	"errors"

	"github.com/graphql-go/graphql"

	"github.com/kwanzatukule/marketplace/app/apperr"
	"github.com/kwanzatukule/marketplace/app/services"
	gql "github.com/kwanzatukule/marketplace/pkg/graphql"
)

// Readers is what the schema resolves against.
type Readers struct {
	Produce interface {
		List(ctx context.Context) ([]services.ProduceView, error)
	}
	Orders interface {
		GetOrder(ctx context.Context, id uint) (*services.OrderView, error)
	}
}

var produceType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Produce",
	Fields: graphql.Fields{
		"produce_id": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"name":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"price":      &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"quantity":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"farmer_id":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var orderItemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "OrderItem",
	Fields: graphql.Fields{
		"order_item_id": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"produce_id": &graphql.Field{
			Type: graphql.Int,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if id := p.Source.(services.OrderItemView).ProduceID; id != nil {
					return int(*id), nil
				}
				return nil, nil
			},
		},
		"quantity": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var orderType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Order",
	Fields: graphql.Fields{
		"order_id":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"consumer_id": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"staff_id": &graphql.Field{
			Type: graphql.Int,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if id := p.Source.(*services.OrderView).StaffID; id != nil {
					return int(*id), nil
				}
				return nil, nil
			},
		},
		"order_date": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		"status":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"items":      &graphql.Field{Type: graphql.NewList(orderItemType)},
	},
})

// NewSchema builds the schema:
//
//	{ produce { produce_id name price quantity farmer_id } }
//	{ order(id: 1) { order_id status items { produce_id quantity } } }
func NewSchema(r Readers) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"produce": &graphql.Field{
				Type: graphql.NewList(produceType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					list, err := r.Produce.List(p.Context)
					return list, clientError(err)
				},
			},
			"order": &graphql.Field{
				Type: orderType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, _ := p.Args["id"].(int)
					if id <= 0 {
						return nil, errors.New("Order not found")
					}
					view, err := r.Orders.GetOrder(p.Context, uint(id))
					if err != nil {
						return nil, clientError(err)
					}
					return view, nil
				},
			},
		},
	})
	return gql.NewSchema(query)
}

// clientError keeps store details out of GraphQL error messages.
func clientError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(apperr.Message(err))
}
