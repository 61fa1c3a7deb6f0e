package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/shopadmin/internal/backend"
	"github.com/erazemk/shopadmin/internal/listing"
	"github.com/erazemk/shopadmin/internal/model"
)

// OrdersHandler lists orders and requests their status transitions. Which
// transitions are allowed is decided by the backend.
type OrdersHandler struct{}

type statusRequest struct {
	DeliveryStatus string `json:"delivery_status" validate:"required,max=32"`
}

type paymentRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,max=32"`
}

// List handles GET /api/orders.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		writeError(w, r, err)
		return
	}

	orders, err := GetPrincipal(r.Context()).Backend.Orders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	out := listing.Orders(orders, listing.OrderQuery{
		Status:         q.Get("status"),
		DeliveryStatus: q.Get("delivery_status"),
		PaymentStatus:  q.Get("payment_status"),
		Search:         q.Get("search"),
		From:           from,
		To:             to,
	})
	respondOrders(w, out)
}

// Rejected handles GET /api/orders/rejected.
func (h *OrdersHandler) Rejected(w http.ResponseWriter, r *http.Request) {
	orders, err := GetPrincipal(r.Context()).Backend.RejectedOrders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOrders(w, listing.Orders(orders, listing.OrderQuery{Search: r.URL.Query().Get("search")}))
}

func respondOrders(w http.ResponseWriter, orders []model.Order) {
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// Get handles GET /api/orders/{id}.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := GetPrincipal(r.Context()).Backend.OrderDetails(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, order)
}

// Items handles GET /api/orders/{id}/items.
func (h *OrdersHandler) Items(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := GetPrincipal(r.Context()).Backend.OrderItems(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.OrderItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Approve handles POST /api/orders/{id}/approve.
func (h *OrdersHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "order approved", func(c *backend.Client, id int64) (*model.Order, error) {
		return c.ApproveOrder(r.Context(), id)
	})
}

// Reject handles POST /api/orders/{id}/reject.
func (h *OrdersHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "order rejected", func(c *backend.Client, id int64) (*model.Order, error) {
		return c.RejectOrder(r.Context(), id)
	})
}

// UpdateStatus handles PUT /api/orders/{id}/status. Moving an order into
// processing ships it, so that request goes through the same serial-number
// gate as POST /api/orders/{id}/fulfill.
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.EqualFold(strings.TrimSpace(req.DeliveryStatus), model.DeliveryProcessing) {
		fulfillOrder(w, r)
		return
	}
	h.transition(w, r, "order status updated", func(c *backend.Client, id int64) (*model.Order, error) {
		return c.UpdateOrderStatus(r.Context(), id, req.DeliveryStatus)
	})
}

// UpdatePayment handles PUT /api/orders/{id}/payment.
func (h *OrdersHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.transition(w, r, "payment status updated", func(c *backend.Client, id int64) (*model.Order, error) {
		return c.UpdatePaymentStatus(r.Context(), id, req.PaymentStatus)
	})
}

// Track handles GET /api/orders/{id}/track. The shipment payload is passed
// through as the backend sent it.
func (h *OrdersHandler) Track(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	raw, err := GetPrincipal(r.Context()).Backend.TrackOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(raw) == 0 {
		jsonResponse(w, http.StatusOK, map[string]any{})
		return
	}
	jsonResponse(w, http.StatusOK, raw)
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request, event string, fn func(*backend.Client, int64) (*model.Order, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p := GetPrincipal(r.Context())
	order, err := fn(p.Backend, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info(event, "user", p.User().Name, "order", id, "status", order.Status, "delivery_status", order.DeliveryStatus)
	jsonResponse(w, http.StatusOK, order)
}
