// Package selection drives the admin "build an order line" picker:
// product, then model for variable products, then one or more colors.
//
// Every state is a distinct Step type and transitions are plain functions
// returning the next Step, so a color can never be picked for a variable
// product without its model.
package selection

import (
	"slices"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/model"
)

// Transition errors. A failed transition leaves the current step untouched.
var (
	ErrWrongStep          = apperr.New(apperr.CodeValidation, "action not available at this step")
	ErrUnknownProductType = apperr.New(apperr.CodeValidation, "product has an unknown product type")
	ErrUnknownModel       = apperr.New(apperr.CodeValidation, "model does not belong to the selected product")
	ErrUnknownColor       = apperr.New(apperr.CodeValidation, "color does not belong to the current selection")
	ErrOutOfStock         = apperr.New(apperr.CodeValidation, "color is out of stock")
	ErrNothingSelected    = apperr.New(apperr.CodeValidation, "select at least one color")
)

// StepKind names a step for API consumers.
type StepKind string

// Step kinds.
const (
	KindProduct StepKind = "product"
	KindModel   StepKind = "model"
	KindColor   StepKind = "color"
)

// Step is one state of the picker. The set of implementations is closed.
type Step interface {
	Kind() StepKind
	isStep()
}

// ProductStep is the initial step: nothing chosen yet.
type ProductStep struct{}

// ModelStep waits for a model of a variable product.
type ModelStep struct {
	Product model.Product
}

// ColorStep collects colors. Model is nil for single products and always
// set for variable ones.
type ColorStep struct {
	Product  model.Product
	Model    *model.Model
	Selected []int64
}

func (ProductStep) Kind() StepKind { return KindProduct }
func (ModelStep) Kind() StepKind   { return KindModel }
func (ColorStep) Kind() StepKind   { return KindColor }

func (ProductStep) isStep() {}
func (ModelStep) isStep()   {}
func (ColorStep) isStep()   {}

// Variants returns the colors available at this step.
func (s ColorStep) Variants() []model.Variant {
	if s.Model != nil {
		return s.Model.Colors
	}
	return s.Product.Colors
}

// IsSelected reports whether colorID is part of the selection.
func (s ColorStep) IsSelected(colorID int64) bool {
	return slices.Contains(s.Selected, colorID)
}

func (s ColorStep) variant(colorID int64) (model.Variant, bool) {
	for _, v := range s.Variants() {
		if v.ID == colorID {
			return v, true
		}
	}
	return model.Variant{}, false
}

// Start returns the initial step.
func Start() Step {
	return ProductStep{}
}

// SelectProduct moves from the product step to the model step for variable
// products, or straight to the color step for single ones.
func SelectProduct(s Step, p model.Product) (Step, error) {
	if _, ok := s.(ProductStep); !ok {
		return s, ErrWrongStep
	}
	switch p.Type {
	case model.ProductVariable:
		return ModelStep{Product: p}, nil
	case model.ProductSingle:
		return ColorStep{Product: p}, nil
	default:
		return s, ErrUnknownProductType
	}
}

// SelectModel picks a model of the product chosen in a ModelStep.
func SelectModel(s Step, modelID int64) (Step, error) {
	ms, ok := s.(ModelStep)
	if !ok {
		return s, ErrWrongStep
	}
	m := ms.Product.FindModel(modelID)
	if m == nil {
		return s, ErrUnknownModel
	}
	chosen := *m
	return ColorStep{Product: ms.Product, Model: &chosen}, nil
}

// ToggleColor adds colorID to the selection, or removes it when already
// selected. Out-of-stock colors are refused.
func ToggleColor(s Step, colorID int64) (Step, error) {
	cs, ok := s.(ColorStep)
	if !ok {
		return s, ErrWrongStep
	}
	v, ok := cs.variant(colorID)
	if !ok {
		return s, ErrUnknownColor
	}

	next := cs
	if i := slices.Index(cs.Selected, colorID); i >= 0 {
		next.Selected = slices.Delete(slices.Clone(cs.Selected), i, i+1)
		return next, nil
	}
	if !v.InStock() {
		return s, ErrOutOfStock
	}
	next.Selected = append(slices.Clone(cs.Selected), colorID)
	return next, nil
}

// Back returns to the previous step, discarding the selection made at the
// current one.
func Back(s Step) Step {
	switch st := s.(type) {
	case ColorStep:
		if st.Product.IsVariable() {
			return ModelStep{Product: st.Product}
		}
		return ProductStep{}
	default:
		return ProductStep{}
	}
}

// Confirm turns the selected colors into working-set lines and resets the
// picker. Lines already in the set are left as they are.
func Confirm(s Step, set *WorkingSet) (Step, []Line, error) {
	cs, ok := s.(ColorStep)
	if !ok {
		return s, nil, ErrWrongStep
	}
	if len(cs.Selected) == 0 {
		return s, nil, ErrNothingSelected
	}

	var added []Line
	for _, id := range cs.Selected {
		v, ok := cs.variant(id)
		if !ok {
			continue
		}
		line := NewLine(cs.Product, cs.Model, v)
		if set.Add(line) {
			added = append(added, line)
		}
	}
	return ProductStep{}, added, nil
}
