package model

// ProductType decides where a product's purchasable variants live.
type ProductType string

// Product types.
const (
	ProductSingle   ProductType = "single"
	ProductVariable ProductType = "variable"
)

// Specification is a free-form key/value line shown on product pages.
type Specification struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Product mirrors the backend product resource.
type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Category       string          `json:"category,omitempty"`
	Subcategory    string          `json:"subcategory,omitempty"`
	HSN            string          `json:"hsn,omitempty"`
	Type           ProductType     `json:"product_type"`
	Images         []string        `json:"images,omitempty"`
	Specifications []Specification `json:"specifications,omitempty"`
	Colors         []Variant       `json:"colors,omitempty"`
	Models         []Model         `json:"models,omitempty"`
}

// Model is an intermediate grouping under a variable product.
type Model struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Specifications []Specification `json:"specifications,omitempty"`
	Colors         []Variant       `json:"colors,omitempty"`
}

// Variant is a purchasable SKU-level record. The backend calls it a color.
type Variant struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"original_price"`
	StockQuantity int      `json:"stock_quantity"`
	Threshold     int      `json:"threshold"`
	Images        []string `json:"images,omitempty"`
}

// DefaultVariantName is the name given to variants created from the admin
// product form.
const DefaultVariantName = "Default"

// InStock reports whether at least one unit is available.
func (v Variant) InStock() bool {
	return v.StockQuantity > 0
}

// VariantParent discriminates what a variant hangs off.
type VariantParent int

// Variant parents.
const (
	ParentProduct VariantParent = iota + 1
	ParentModel
)

func (p VariantParent) String() string {
	switch p {
	case ParentProduct:
		return "product"
	case ParentModel:
		return "model"
	default:
		return "unknown"
	}
}

// OwnedVariant is a variant together with the record that owns it.
// ModelID is zero when Parent is ParentProduct.
type OwnedVariant struct {
	Parent    VariantParent
	ProductID int64
	ModelID   int64
	Variant
}

// IsVariable reports whether the product keeps its variants under models.
func (p *Product) IsVariable() bool {
	return p.Type == ProductVariable
}

// FindModel returns the model with the given id, or nil.
func (p *Product) FindModel(id int64) *Model {
	for i := range p.Models {
		if p.Models[i].ID == id {
			return &p.Models[i]
		}
	}
	return nil
}

// PurchasableVariants returns the variants a customer can buy: the product's
// own colors for single products, every model's colors for variable ones.
func (p *Product) PurchasableVariants() []OwnedVariant {
	var out []OwnedVariant
	if !p.IsVariable() {
		for _, c := range p.Colors {
			out = append(out, OwnedVariant{Parent: ParentProduct, ProductID: p.ID, Variant: c})
		}
		return out
	}
	for _, m := range p.Models {
		for _, c := range m.Colors {
			out = append(out, OwnedVariant{Parent: ParentModel, ProductID: p.ID, ModelID: m.ID, Variant: c})
		}
	}
	return out
}

// TotalStock sums stock over all purchasable variants.
func (p *Product) TotalStock() int {
	total := 0
	for _, v := range p.PurchasableVariants() {
		if v.StockQuantity > 0 {
			total += v.StockQuantity
		}
	}
	return total
}

// VariantInput is a variant as submitted from the product form.
type VariantInput struct {
	ID            int64   `json:"id,omitempty"`
	Name          string  `json:"name" validate:"required,max=100"`
	Price         float64 `json:"price" validate:"gte=0"`
	OriginalPrice float64 `json:"original_price" validate:"gte=0"`
	StockQuantity int     `json:"stock_quantity" validate:"gte=0"`
	Threshold     int     `json:"threshold" validate:"gte=0"`
}

// ModelInput is a model as submitted from the product form.
type ModelInput struct {
	ID             int64           `json:"id,omitempty"`
	Name           string          `json:"name" validate:"required,max=200"`
	Description    string          `json:"description,omitempty" validate:"max=2000"`
	Specifications []Specification `json:"specifications,omitempty"`
	Colors         []VariantInput  `json:"colors" validate:"required,min=1,dive"`
}

// ProductInput is the JSON "data" part of a product create or update.
type ProductInput struct {
	Name           string          `json:"name" validate:"required,max=200"`
	Description    string          `json:"description,omitempty" validate:"max=5000"`
	Category       string          `json:"category" validate:"required"`
	Subcategory    string          `json:"subcategory,omitempty"`
	HSN            string          `json:"hsn" validate:"required"`
	Type           ProductType     `json:"product_type" validate:"required,oneof=single variable"`
	Specifications []Specification `json:"specifications,omitempty"`
	Colors         []VariantInput  `json:"colors,omitempty" validate:"required_if=Type single,dive"`
	Models         []ModelInput    `json:"models,omitempty" validate:"required_if=Type variable,dive"`
}
