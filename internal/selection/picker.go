package selection

import (
	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/model"
)

// ErrUnknownProduct is returned when the product is not in the loaded catalog.
var ErrUnknownProduct = apperr.New(apperr.CodeNotFound, "product not in catalog")

// Picker bundles the loaded catalog, the current step and the working set.
// It is not safe for concurrent use.
type Picker struct {
	products []model.Product
	step     Step
	set      WorkingSet
}

// NewPicker returns a picker at the product step.
func NewPicker(products []model.Product) *Picker {
	return &Picker{products: products, step: Start()}
}

// SetCatalog replaces the catalog and resets the current step. The working
// set survives a catalog refresh.
func (p *Picker) SetCatalog(products []model.Product) {
	p.products = products
	p.step = Start()
}

// HasCatalog reports whether a catalog has been loaded.
func (p *Picker) HasCatalog() bool {
	return p.products != nil
}

// Step returns the current step.
func (p *Picker) Step() Step {
	return p.step
}

// WorkingSet returns the working set.
func (p *Picker) WorkingSet() *WorkingSet {
	return &p.set
}

// SelectProduct chooses a product from the catalog.
func (p *Picker) SelectProduct(id int64) error {
	for _, prod := range p.products {
		if prod.ID == id {
			return p.apply(SelectProduct(p.step, prod))
		}
	}
	return ErrUnknownProduct
}

// SelectModel chooses a model of the current product.
func (p *Picker) SelectModel(id int64) error {
	return p.apply(SelectModel(p.step, id))
}

// ToggleColor toggles a color in the current selection.
func (p *Picker) ToggleColor(id int64) error {
	return p.apply(ToggleColor(p.step, id))
}

// Back steps back once.
func (p *Picker) Back() {
	p.step = Back(p.step)
}

// Reset returns to the product step.
func (p *Picker) Reset() {
	p.step = Start()
}

// Confirm adds the selected colors to the working set.
func (p *Picker) Confirm() ([]Line, error) {
	next, added, err := Confirm(p.step, &p.set)
	if err != nil {
		return nil, err
	}
	p.step = next
	return added, nil
}

func (p *Picker) apply(next Step, err error) error {
	if err != nil {
		return err
	}
	p.step = next
	return nil
}

// VariantView is a color as shown at the color step.
type VariantView struct {
	model.Variant
	Selected   bool `json:"selected"`
	Selectable bool `json:"selectable"`
}

// View is a JSON snapshot of the picker.
type View struct {
	Step     StepKind       `json:"step"`
	Product  *model.Product `json:"product,omitempty"`
	Model    *model.Model   `json:"model,omitempty"`
	Models   []model.Model  `json:"models,omitempty"`
	Variants []VariantView  `json:"variants,omitempty"`
	Selected []int64        `json:"selected,omitempty"`
	CanAdd   bool           `json:"can_add"`
	Lines    []Line         `json:"lines"`
	Total    float64        `json:"total"`
}

// View renders the current state.
func (p *Picker) View() View {
	v := View{
		Step:  p.step.Kind(),
		Lines: p.set.Lines(),
		Total: p.set.Total(),
	}

	switch st := p.step.(type) {
	case ModelStep:
		prod := st.Product
		v.Product = &prod
		v.Models = prod.Models
	case ColorStep:
		prod := st.Product
		v.Product = &prod
		v.Model = st.Model
		v.Selected = st.Selected
		v.CanAdd = len(st.Selected) > 0
		for _, variant := range st.Variants() {
			v.Variants = append(v.Variants, VariantView{
				Variant:    variant,
				Selected:   st.IsSelected(variant.ID),
				Selectable: variant.InStock(),
			})
		}
	}
	return v
}
