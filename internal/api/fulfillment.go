package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/fulfillment"
)

// FulfillmentHandler runs serial-number reconciliation for an order.
type FulfillmentHandler struct{}

type serialRequest struct {
	SerialNo string `json:"sr_no" validate:"required,max=64"`
}

type validateResponse struct {
	Outcome fulfillment.Outcome `json:"outcome"`
	View    fulfillment.View    `json:"fulfillment"`
}

type assignResponse struct {
	SerialNo string           `json:"sr_no"`
	View     fulfillment.View `json:"fulfillment"`
}

// reconciliation returns the open reconciliation of the order in the path,
// opening it from the order's expanded details when needed.
func reconciliation(r *http.Request) (*fulfillment.Reconciliation, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	p := GetPrincipal(r.Context())
	if rec, ok := p.Workspace.Reconciliation(id); ok {
		return rec, nil
	}
	order, err := p.Backend.OrderDetails(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		order.ID = id
	}
	return p.Workspace.OpenReconciliation(*order), nil
}

// Get handles GET /api/orders/{id}/fulfillment. refresh=true discards the
// open reconciliation, including its pending pool, and reloads the order.
func (h *FulfillmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		GetPrincipal(r.Context()).Workspace.CloseReconciliation(id)
	}
	rec, err := reconciliation(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, rec.View())
}

// ValidateSerial handles POST /api/orders/{id}/serials.
func (h *FulfillmentHandler) ValidateSerial(w http.ResponseWriter, r *http.Request) {
	var req serialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := reconciliation(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	outcome, err := rec.Validate(r.Context(), GetPrincipal(r.Context()).Backend, req.SerialNo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, validateResponse{Outcome: outcome, View: rec.View()})
}

// DiscardSerial handles DELETE /api/orders/{id}/serials/{srno}.
func (h *FulfillmentHandler) DiscardSerial(w http.ResponseWriter, r *http.Request) {
	rec, err := reconciliation(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !rec.Discard(strings.TrimSpace(r.PathValue("srno"))) {
		writeError(w, r, apperr.New(apperr.CodeNotFound, "serial number not pending"))
		return
	}
	jsonResponse(w, http.StatusOK, rec.View())
}

// Assign handles POST /api/orders/{id}/items/{item}/slots/{slot}.
func (h *FulfillmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	h.slot(w, r, (*fulfillment.Reconciliation).Assign)
}

// Clear handles DELETE /api/orders/{id}/items/{item}/slots/{slot}.
func (h *FulfillmentHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.slot(w, r, (*fulfillment.Reconciliation).Clear)
}

func (h *FulfillmentHandler) slot(w http.ResponseWriter, r *http.Request, fn func(*fulfillment.Reconciliation, int64, int) (string, error)) {
	itemID, err := pathID(r, "item")
	if err != nil {
		writeError(w, r, err)
		return
	}
	slot, err := strconv.Atoi(r.PathValue("slot"))
	if err != nil || slot < 0 {
		writeError(w, r, apperr.New(apperr.CodeValidation, "invalid slot"))
		return
	}
	rec, err := reconciliation(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	serial, err := fn(rec, itemID, slot)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, assignResponse{SerialNo: serial, View: rec.View()})
}

// Save handles POST /api/orders/{id}/items/{item}/save.
func (h *FulfillmentHandler) Save(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "item")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := reconciliation(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p := GetPrincipal(r.Context())
	if err := rec.Save(r.Context(), p.Backend, itemID); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("serial numbers saved", "user", p.User().Name, "order", rec.OrderID(), "item", itemID)
	jsonResponse(w, http.StatusOK, rec.View())
}

// Fulfill handles POST /api/orders/{id}/fulfill.
func (h *FulfillmentHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	fulfillOrder(w, r)
}

// fulfillOrder moves the order into processing once every unit has a serial
// number. Once the backend accepts the transition the reconciliation is
// closed.
func fulfillOrder(w http.ResponseWriter, r *http.Request) {
	rec, err := reconciliation(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p := GetPrincipal(r.Context())
	order, err := rec.Fulfill(r.Context(), p.Backend)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p.Workspace.CloseReconciliation(rec.OrderID())

	slog.Info("order fulfilled", "user", p.User().Name, "order", rec.OrderID(), "delivery_status", order.DeliveryStatus)
	jsonResponse(w, http.StatusOK, order)
}
