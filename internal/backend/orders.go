package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/erazemk/shopadmin/internal/model"
)

// Orders returns every order.
func (c *Client) Orders(ctx context.Context) ([]model.Order, error) {
	var out []model.Order
	if err := c.doJSON(ctx, "list_orders", http.MethodGet, "/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RejectedOrders returns rejected orders.
func (c *Client) RejectedOrders(ctx context.Context) ([]model.Order, error) {
	var out []model.Order
	if err := c.doJSON(ctx, "list_rejected_orders", http.MethodGet, "/orders/rejected", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OrderDetails returns an order with one detail row per unit.
func (c *Client) OrderDetails(ctx context.Context, id int64) (*model.Order, error) {
	var out model.Order
	if err := c.doJSON(ctx, "get_order", http.MethodGet, idPath("/order/%d/details-expanded", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OrderItems returns the items of an order.
func (c *Client) OrderItems(ctx context.Context, id int64) ([]model.OrderItem, error) {
	var out []model.OrderItem
	if err := c.doJSON(ctx, "get_order_items", http.MethodGet, idPath("/order/%d/items", id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveOrder asks the backend to approve a pending order.
func (c *Client) ApproveOrder(ctx context.Context, id int64) (*model.Order, error) {
	return c.transition(ctx, "approve_order", http.MethodGet, idPath("/approve-order/%d", id), id, nil)
}

// RejectOrder asks the backend to reject an order.
func (c *Client) RejectOrder(ctx context.Context, id int64) (*model.Order, error) {
	return c.transition(ctx, "reject_order", http.MethodDelete, idPath("/reject-order/%d", id), id, nil)
}

// StatusUpdate is the body of a delivery-status transition.
type StatusUpdate struct {
	DeliveryStatus string `json:"delivery_status"`
}

// PaymentUpdate is the body of a payment-status transition.
type PaymentUpdate struct {
	PaymentStatus string `json:"payment_status"`
}

// UpdateOrderStatus requests a delivery-status transition. The backend
// decides whether it is allowed.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status string) (*model.Order, error) {
	return c.transition(ctx, "update_order_status", http.MethodPut, idPath("/update-order-status/%d", id), id, StatusUpdate{DeliveryStatus: status})
}

// UpdatePaymentStatus requests a payment-status transition.
func (c *Client) UpdatePaymentStatus(ctx context.Context, id int64, status string) (*model.Order, error) {
	return c.transition(ctx, "update_payment_status", http.MethodPut, idPath("/update-payment-status/%d", id), id, PaymentUpdate{PaymentStatus: status})
}

// FulfillOrder moves an order into processing, which makes the backend
// create the shipment.
func (c *Client) FulfillOrder(ctx context.Context, id int64) (*model.Order, error) {
	return c.UpdateOrderStatus(ctx, id, model.DeliveryProcessing)
}

// TrackOrder passes the shipment tracking payload through unchanged.
func (c *Client) TrackOrder(ctx context.Context, id int64) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, "track_order", http.MethodGet, idPath("/order/%d/track", id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// transition issues a state change and returns the order as reported by the
// backend. When the acknowledgement carries no order state the order is
// re-read, so callers never see a status the backend did not report.
func (c *Client) transition(ctx context.Context, op, method, path string, id int64, body any) (*model.Order, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, op, method, path, body, &raw); err != nil {
		return nil, err
	}
	var out model.Order
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			c.logger.Debug("transition acknowledgement is not an order", "op", op, "order", id, "error", err)
			out = model.Order{}
		}
	}
	if out.Status != "" || out.DeliveryStatus != "" {
		if out.ID == 0 {
			out.ID = id
		}
		return &out, nil
	}

	fresh, err := c.OrderDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reloading order %d after %s: %w", id, op, err)
	}
	if fresh.ID == 0 {
		fresh.ID = id
	}
	return fresh, nil
}
