package selection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/shopadmin/internal/model"
)

func singleProduct() model.Product {
	return model.Product{
		ID:   2,
		Name: "Charger",
		Type: model.ProductSingle,
		Colors: []model.Variant{
			{ID: 200, Name: model.DefaultVariantName, Price: 50, StockQuantity: 10},
			{ID: 201, Name: "White", Price: 55, StockQuantity: 0},
		},
	}
}

func variableProduct() model.Product {
	return model.Product{
		ID:   1,
		Name: "Phone",
		Type: model.ProductVariable,
		Models: []model.Model{
			{ID: 10, Name: "Pro", Colors: []model.Variant{
				{ID: 100, Name: "Black", Price: 500, StockQuantity: 5},
				{ID: 101, Name: "Blue", Price: 520, StockQuantity: 1},
			}},
			{ID: 11, Name: "Lite", Colors: []model.Variant{
				{ID: 110, Name: "Red", Price: 300, StockQuantity: 0},
			}},
		},
	}
}

func TestSingleProductGoesStraightToColors(t *testing.T) {
	step, err := SelectProduct(Start(), singleProduct())
	require.NoError(t, err)
	require.Equal(t, KindColor, step.Kind())

	step, err = ToggleColor(step, 200)
	require.NoError(t, err)

	var set WorkingSet
	next, added, err := Confirm(step, &set)
	require.NoError(t, err)
	assert.Equal(t, KindProduct, next.Kind())
	require.Len(t, added, 1)
	assert.Nil(t, added[0].ModelID)
}

func TestVariableProductNeedsModelBeforeColor(t *testing.T) {
	step, err := SelectProduct(Start(), variableProduct())
	require.NoError(t, err)
	require.Equal(t, KindModel, step.Kind())

	// A color cannot be picked before the model.
	same, err := ToggleColor(step, 100)
	assert.ErrorIs(t, err, ErrWrongStep)
	assert.Equal(t, step, same)

	var set WorkingSet
	_, _, err = Confirm(step, &set)
	assert.ErrorIs(t, err, ErrWrongStep)
	assert.Zero(t, set.Len())

	step, err = SelectModel(step, 10)
	require.NoError(t, err)
	step, err = ToggleColor(step, 100)
	require.NoError(t, err)

	_, added, err := Confirm(step, &set)
	require.NoError(t, err)
	assert.Len(t, added, 1)
}

func TestSelectModelRejectsForeignModel(t *testing.T) {
	step, _ := SelectProduct(Start(), variableProduct())
	same, err := SelectModel(step, 99)
	assert.ErrorIs(t, err, ErrUnknownModel)
	assert.Equal(t, KindModel, same.Kind())
}

func TestUnknownProductTypeRejected(t *testing.T) {
	p := singleProduct()
	p.Type = "bundle"
	step, err := SelectProduct(Start(), p)
	assert.ErrorIs(t, err, ErrUnknownProductType)
	assert.Equal(t, KindProduct, step.Kind())
}

func TestOutOfStockColorNeverAdded(t *testing.T) {
	step, _ := SelectProduct(Start(), singleProduct())

	for range 5 {
		var err error
		step, err = ToggleColor(step, 201)
		assert.ErrorIs(t, err, ErrOutOfStock)
	}
	cs := step.(ColorStep)
	assert.Empty(t, cs.Selected)

	var set WorkingSet
	_, _, err := Confirm(step, &set)
	assert.ErrorIs(t, err, ErrNothingSelected)
	assert.Zero(t, set.Len())
}

func TestToggleColorDeselects(t *testing.T) {
	step, _ := SelectProduct(Start(), singleProduct())
	step, _ = ToggleColor(step, 200)
	assert.True(t, step.(ColorStep).IsSelected(200))

	step, err := ToggleColor(step, 200)
	require.NoError(t, err)
	assert.False(t, step.(ColorStep).IsSelected(200))
}

func TestToggleDoesNotAliasPreviousStep(t *testing.T) {
	step, _ := SelectProduct(Start(), variableProduct())
	step, _ = SelectModel(step, 10)
	first, _ := ToggleColor(step, 100)
	second, _ := ToggleColor(first, 101)

	assert.Equal(t, []int64{100}, first.(ColorStep).Selected)
	assert.Equal(t, []int64{100, 101}, second.(ColorStep).Selected)
}

func TestConfirmWithoutSelectionBlocks(t *testing.T) {
	step, _ := SelectProduct(Start(), singleProduct())
	var set WorkingSet
	same, added, err := Confirm(step, &set)

	assert.True(t, errors.Is(err, ErrNothingSelected))
	assert.Equal(t, KindColor, same.Kind())
	assert.Nil(t, added)
}

func TestDuplicateAddKeepsExistingLine(t *testing.T) {
	var set WorkingSet

	add := func() []Line {
		step, _ := SelectProduct(Start(), singleProduct())
		step, _ = ToggleColor(step, 200)
		_, added, err := Confirm(step, &set)
		require.NoError(t, err)
		return added
	}

	assert.Len(t, add(), 1)
	require.NoError(t, set.SetQuantity(200, 4))

	assert.Empty(t, add())
	require.Equal(t, 1, set.Len())
	line, _ := set.Get(200)
	assert.Equal(t, 4, line.Quantity, "existing line must be left untouched")
}

func TestBackDiscardsSelection(t *testing.T) {
	step, _ := SelectProduct(Start(), variableProduct())
	step, _ = SelectModel(step, 10)
	step, _ = ToggleColor(step, 100)

	step = Back(step)
	require.Equal(t, KindModel, step.Kind())

	step, _ = SelectModel(step, 10)
	assert.Empty(t, step.(ColorStep).Selected)

	assert.Equal(t, KindProduct, Back(Back(step)).Kind())

	single, _ := SelectProduct(Start(), singleProduct())
	assert.Equal(t, KindProduct, Back(single).Kind())
	assert.Equal(t, KindProduct, Back(Start()).Kind())
}

func TestEndToEndVariableProduct(t *testing.T) {
	catalog := []model.Product{{
		ID:   1,
		Type: model.ProductVariable,
		Models: []model.Model{{
			ID:     10,
			Colors: []model.Variant{{ID: 100, Price: 500, StockQuantity: 5}},
		}},
	}}

	p := NewPicker(catalog)
	require.NoError(t, p.SelectProduct(1))
	require.NoError(t, p.SelectModel(10))
	require.NoError(t, p.ToggleColor(100))
	_, err := p.Confirm()
	require.NoError(t, err)

	lines := p.WorkingSet().Lines()
	require.Len(t, lines, 1)
	l := lines[0]
	assert.Equal(t, int64(1), l.ProductID)
	require.NotNil(t, l.ModelID)
	assert.Equal(t, int64(10), *l.ModelID)
	assert.Equal(t, int64(100), l.ID)
	assert.Equal(t, 500.0, l.Price)
	assert.Equal(t, 1, l.Quantity)
	assert.Equal(t, 500.0, l.FinalPrice)
	assert.Zero(t, l.DiscountPercentage)
	assert.Equal(t, KindProduct, p.Step().Kind())
}

func TestPickerUnknownProduct(t *testing.T) {
	p := NewPicker([]model.Product{singleProduct()})
	assert.ErrorIs(t, p.SelectProduct(404), ErrUnknownProduct)
	assert.Equal(t, KindProduct, p.Step().Kind())
}

func TestPickerView(t *testing.T) {
	p := NewPicker([]model.Product{singleProduct()})
	require.NoError(t, p.SelectProduct(2))
	require.NoError(t, p.ToggleColor(200))

	v := p.View()
	assert.Equal(t, KindColor, v.Step)
	assert.True(t, v.CanAdd)
	require.Len(t, v.Variants, 2)
	assert.True(t, v.Variants[0].Selected)
	assert.True(t, v.Variants[0].Selectable)
	assert.False(t, v.Variants[1].Selectable)

	p.Reset()
	v = p.View()
	assert.Equal(t, KindProduct, v.Step)
	assert.False(t, v.CanAdd)
	assert.NotNil(t, v.Lines)
}

func TestWorkingSetPricing(t *testing.T) {
	var set WorkingSet
	set.Add(NewLine(singleProduct(), nil, model.Variant{ID: 1, Price: 500}))

	require.NoError(t, set.SetDiscount(1, 10))
	l, _ := set.Get(1)
	assert.InDelta(t, 450.0, l.FinalPrice, 0.005)

	require.NoError(t, set.SetFinalPrice(1, 400))
	l, _ = set.Get(1)
	assert.InDelta(t, 20.0, l.DiscountPercentage, 0.005)

	require.NoError(t, set.SetQuantity(1, 3))
	assert.InDelta(t, 1200.0, set.Total(), 0.005)

	assert.Error(t, set.SetDiscount(1, 120))
	assert.Error(t, set.SetFinalPrice(1, 600))
	assert.Error(t, set.SetQuantity(1, 0))
	assert.ErrorIs(t, set.SetQuantity(2, 1), ErrLineNotFound)

	require.NoError(t, set.Remove(1))
	assert.ErrorIs(t, set.Remove(1), ErrLineNotFound)
	assert.Zero(t, set.Total())
}
