package model

// Category groups products; subcategories hang off it.
type Category struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

// Subcategory is a second-level grouping.
type Subcategory struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID int64  `json:"category_id"`
}

// HSN is a tax classification code.
type HSN struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	Description string  `json:"description,omitempty"`
	GSTRate     float64 `json:"gst_rate"`
}

// Catalog is the jointly fetched data behind catalog pages.
type Catalog struct {
	Products   []Product  `json:"products"`
	Categories []Category `json:"categories"`
	HSN        []HSN      `json:"hsn"`
}

// CategoryUpdate renames a category.
type CategoryUpdate struct {
	ID   int64  `json:"id" validate:"required,gt=0"`
	Name string `json:"name" validate:"required,max=100"`
}

// SubcategoryUpdate renames or moves a subcategory.
type SubcategoryUpdate struct {
	ID         int64  `json:"id" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required,max=100"`
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
}

// HSNUpdate edits a tax classification code.
type HSNUpdate struct {
	ID          int64   `json:"id" validate:"required,gt=0"`
	Code        string  `json:"code" validate:"required,max=16"`
	Description string  `json:"description,omitempty" validate:"max=500"`
	GSTRate     float64 `json:"gst_rate" validate:"gte=0,lte=100"`
}

// TaxonomyUpdate is a combined category, subcategory and HSN edit. Parts
// left nil are not touched.
type TaxonomyUpdate struct {
	Category    *CategoryUpdate    `json:"category,omitempty" validate:"omitempty"`
	Subcategory *SubcategoryUpdate `json:"subcategory,omitempty" validate:"omitempty"`
	HSN         *HSNUpdate         `json:"hsn,omitempty" validate:"omitempty"`
}
