package selection

import (
	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/model"
	"github.com/erazemk/shopadmin/internal/pricing"
)

// ErrLineNotFound is returned when editing a line that is not in the set.
var ErrLineNotFound = apperr.New(apperr.CodeNotFound, "line not in working order")

// Line is one entry of the working order. ID is the color id it was built
// from, which is what makes adds idempotent.
type Line struct {
	ID                 int64   `json:"id"`
	ProductID          int64   `json:"product_id"`
	ModelID            *int64  `json:"model_id,omitempty"`
	ProductName        string  `json:"product_name"`
	ModelName          string  `json:"model_name,omitempty"`
	ColorName          string  `json:"color_name"`
	Price              float64 `json:"price"`
	Quantity           int     `json:"quantity"`
	FinalPrice         float64 `json:"finalPrice"`
	DiscountPercentage float64 `json:"discountPercentage"`
	StockQuantity      int     `json:"stock_quantity"`
}

// NewLine builds a fresh line: quantity 1 at full price.
func NewLine(p model.Product, m *model.Model, v model.Variant) Line {
	l := Line{
		ID:            v.ID,
		ProductID:     p.ID,
		ProductName:   p.Name,
		ColorName:     v.Name,
		Price:         v.Price,
		Quantity:      1,
		FinalPrice:    v.Price,
		StockQuantity: v.StockQuantity,
	}
	if m != nil {
		id := m.ID
		l.ModelID = &id
		l.ModelName = m.Name
	}
	return l
}

// Total is the final price times quantity.
func (l Line) Total() float64 {
	return pricing.LineTotal(l.FinalPrice, l.Quantity)
}

// WorkingSet is the ordered list of lines being assembled into an order.
// The zero value is an empty set.
type WorkingSet struct {
	lines []Line
}

// Add appends l unless a line with the same id exists. It reports whether
// the line was added.
func (w *WorkingSet) Add(l Line) bool {
	if w.index(l.ID) >= 0 {
		return false
	}
	w.lines = append(w.lines, l)
	return true
}

// Lines returns a copy of the lines in insertion order.
func (w *WorkingSet) Lines() []Line {
	out := make([]Line, len(w.lines))
	copy(out, w.lines)
	return out
}

// Len returns the number of lines.
func (w *WorkingSet) Len() int {
	return len(w.lines)
}

// Get returns the line with the given id.
func (w *WorkingSet) Get(id int64) (Line, bool) {
	if i := w.index(id); i >= 0 {
		return w.lines[i], true
	}
	return Line{}, false
}

// Remove drops the line with the given id.
func (w *WorkingSet) Remove(id int64) error {
	i := w.index(id)
	if i < 0 {
		return ErrLineNotFound
	}
	w.lines = append(w.lines[:i], w.lines[i+1:]...)
	return nil
}

// Clear empties the set.
func (w *WorkingSet) Clear() {
	w.lines = nil
}

// SetQuantity changes a line's quantity. Quantity must be at least 1.
func (w *WorkingSet) SetQuantity(id int64, quantity int) error {
	if quantity < 1 {
		return apperr.New(apperr.CodeValidation, "quantity must be at least 1")
	}
	i := w.index(id)
	if i < 0 {
		return ErrLineNotFound
	}
	w.lines[i].Quantity = quantity
	return nil
}

// SetDiscount sets the discount percentage and recomputes the final price.
func (w *WorkingSet) SetDiscount(id int64, pct float64) error {
	if err := pricing.ValidateDiscount(pct); err != nil {
		return err
	}
	i := w.index(id)
	if i < 0 {
		return ErrLineNotFound
	}
	l := &w.lines[i]
	l.DiscountPercentage = pct
	l.FinalPrice = pricing.FinalPrice(l.Price, pct)
	return nil
}

// SetFinalPrice sets the final price and back-computes the discount.
func (w *WorkingSet) SetFinalPrice(id int64, final float64) error {
	i := w.index(id)
	if i < 0 {
		return ErrLineNotFound
	}
	l := &w.lines[i]
	if err := pricing.ValidateFinalPrice(l.Price, final); err != nil {
		return err
	}
	l.FinalPrice = final
	l.DiscountPercentage = pricing.DiscountPercentage(l.Price, final)
	return nil
}

// Total sums all line totals.
func (w *WorkingSet) Total() float64 {
	totals := make([]float64, 0, len(w.lines))
	for _, l := range w.lines {
		totals = append(totals, l.Total())
	}
	return pricing.Sum(totals...)
}

func (w *WorkingSet) index(id int64) int {
	for i, l := range w.lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}
