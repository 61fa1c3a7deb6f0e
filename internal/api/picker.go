package api

import (
	"net/http"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/selection"
)

// PickerHandler drives the product → model → color picker and the working
// order it fills.
type PickerHandler struct{}

type idRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

type confirmResponse struct {
	Added []selection.Line `json:"added"`
	View  selection.View   `json:"picker"`
}

type workingOrder struct {
	Lines []selection.Line `json:"lines"`
	Total float64          `json:"total"`
}

type lineUpdate struct {
	Quantity           *int     `json:"quantity" validate:"omitempty,min=1"`
	DiscountPercentage *float64 `json:"discountPercentage" validate:"omitempty,gte=0,lte=100"`
	FinalPrice         *float64 `json:"finalPrice" validate:"omitempty,gte=0"`
}

// ensureCatalog loads the product list into the picker on first use.
func ensureCatalog(r *http.Request) error {
	p := GetPrincipal(r.Context())
	var loaded bool
	_ = p.Workspace.WithPicker(func(pk *selection.Picker) error {
		loaded = pk.HasCatalog()
		return nil
	})
	if loaded {
		return nil
	}

	products, err := p.Backend.Products(r.Context())
	if err != nil {
		return err
	}
	return p.Workspace.WithPicker(func(pk *selection.Picker) error {
		if !pk.HasCatalog() {
			pk.SetCatalog(products)
		}
		return nil
	})
}

// step runs fn against the picker and responds with the resulting view.
func (h *PickerHandler) step(w http.ResponseWriter, r *http.Request, fn func(*selection.Picker) error) {
	if err := ensureCatalog(r); err != nil {
		writeError(w, r, err)
		return
	}
	var view selection.View
	err := GetPrincipal(r.Context()).Workspace.WithPicker(func(pk *selection.Picker) error {
		if err := fn(pk); err != nil {
			return err
		}
		view = pk.View()
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, view)
}

// View handles GET /api/picker.
func (h *PickerHandler) View(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(*selection.Picker) error { return nil })
}

// SelectProduct handles POST /api/picker/product.
func (h *PickerHandler) SelectProduct(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.step(w, r, func(pk *selection.Picker) error { return pk.SelectProduct(req.ID) })
}

// SelectModel handles POST /api/picker/model.
func (h *PickerHandler) SelectModel(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.step(w, r, func(pk *selection.Picker) error { return pk.SelectModel(req.ID) })
}

// ToggleColor handles POST /api/picker/colors/{id}.
func (h *PickerHandler) ToggleColor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.step(w, r, func(pk *selection.Picker) error { return pk.ToggleColor(id) })
}

// Back handles POST /api/picker/back.
func (h *PickerHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(pk *selection.Picker) error {
		pk.Back()
		return nil
	})
}

// Reset handles POST /api/picker/reset.
func (h *PickerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(pk *selection.Picker) error {
		pk.Reset()
		return nil
	})
}

// Confirm handles POST /api/picker/confirm.
func (h *PickerHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var resp confirmResponse
	err := GetPrincipal(r.Context()).Workspace.WithPicker(func(pk *selection.Picker) error {
		added, err := pk.Confirm()
		if err != nil {
			return err
		}
		resp.Added = added
		if resp.Added == nil {
			resp.Added = []selection.Line{}
		}
		resp.View = pk.View()
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, resp)
}

// WorkingOrder handles GET /api/working-order.
func (h *PickerHandler) WorkingOrder(w http.ResponseWriter, r *http.Request) {
	h.workingOrder(w, r, nil)
}

// UpdateLine handles PUT /api/working-order/{id}. Quantity, discount and
// final price may be set together; discount and final price are two views
// of the same number, so a request carrying both is rejected.
func (h *PickerHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req lineUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Quantity == nil && req.DiscountPercentage == nil && req.FinalPrice == nil {
		writeError(w, r, apperr.New(apperr.CodeValidation, "nothing to update"))
		return
	}
	if req.DiscountPercentage != nil && req.FinalPrice != nil {
		writeError(w, r, apperr.New(apperr.CodeValidation, "set either discountPercentage or finalPrice, not both"))
		return
	}

	h.workingOrder(w, r, func(set *selection.WorkingSet) error {
		if _, ok := set.Get(id); !ok {
			return selection.ErrLineNotFound
		}
		// Prices validate against the line, so they go first; a rejected
		// price leaves the quantity untouched too.
		if req.DiscountPercentage != nil {
			if err := set.SetDiscount(id, *req.DiscountPercentage); err != nil {
				return err
			}
		}
		if req.FinalPrice != nil {
			if err := set.SetFinalPrice(id, *req.FinalPrice); err != nil {
				return err
			}
		}
		if req.Quantity != nil {
			return set.SetQuantity(id, *req.Quantity)
		}
		return nil
	})
}

// RemoveLine handles DELETE /api/working-order/{id}.
func (h *PickerHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.workingOrder(w, r, func(set *selection.WorkingSet) error {
		return set.Remove(id)
	})
}

// ClearWorkingOrder handles DELETE /api/working-order.
func (h *PickerHandler) ClearWorkingOrder(w http.ResponseWriter, r *http.Request) {
	h.workingOrder(w, r, func(set *selection.WorkingSet) error {
		set.Clear()
		return nil
	})
}

func (h *PickerHandler) workingOrder(w http.ResponseWriter, r *http.Request, fn func(*selection.WorkingSet) error) {
	var out workingOrder
	err := GetPrincipal(r.Context()).Workspace.WithPicker(func(pk *selection.Picker) error {
		set := pk.WorkingSet()
		if fn != nil {
			if err := fn(set); err != nil {
				return err
			}
		}
		out = workingOrder{Lines: set.Lines(), Total: set.Total()}
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if out.Lines == nil {
		out.Lines = []selection.Line{}
	}
	jsonResponse(w, http.StatusOK, out)
}
