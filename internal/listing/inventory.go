package listing

import (
	"strings"

	"github.com/erazemk/shopadmin/internal/model"
)

// Badge is the stock badge shown next to a variant.
type Badge string

const (
	BadgeInStock    Badge = "in_stock"
	BadgeLowStock   Badge = "low_stock"
	BadgeOutOfStock Badge = "out_of_stock"
)

// BadgeFor classifies a variant's stock against its threshold.
func BadgeFor(v model.Variant) Badge {
	switch {
	case v.StockQuantity <= 0:
		return BadgeOutOfStock
	case v.StockQuantity <= v.Threshold:
		return BadgeLowStock
	default:
		return BadgeInStock
	}
}

// ProductBadge is out_of_stock when no variant has stock, low_stock when any
// variant is low or out, and in_stock otherwise. Products with no variants are
// out of stock.
func ProductBadge(p model.Product) Badge {
	variants := p.PurchasableVariants()
	if len(variants) == 0 {
		return BadgeOutOfStock
	}
	if p.TotalStock() == 0 {
		return BadgeOutOfStock
	}
	for _, v := range variants {
		if BadgeFor(v.Variant) != BadgeInStock {
			return BadgeLowStock
		}
	}
	return BadgeInStock
}

// ProductQuery filters the inventory page.
type ProductQuery struct {
	Search      string            `json:"search"`
	Category    string            `json:"category"`
	Subcategory string            `json:"subcategory"`
	Type        model.ProductType `json:"product_type"`
	Badge       Badge             `json:"badge"`
	Sort        string            `json:"sort"`
	Order       Order             `json:"order"`
}

// Product sort keys.
const (
	SortName  = "name"
	SortPrice = "price"
	SortStock = "stock"
)

// InventoryRow is one product with its derived stock figures.
type InventoryRow struct {
	model.Product
	Badge      Badge   `json:"badge"`
	TotalStock int     `json:"total_stock"`
	MinPrice   float64 `json:"min_price"`
}

// Inventory filters and sorts products for the inventory page.
func Inventory(products []model.Product, q ProductQuery) []InventoryRow {
	rows := make([]InventoryRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, InventoryRow{
			Product:    p,
			Badge:      ProductBadge(p),
			TotalStock: p.TotalStock(),
			MinPrice:   minPrice(p),
		})
	}

	rows = Filter(rows, func(r InventoryRow) bool {
		return matches(q.Search, r.Name, r.Category, r.Subcategory, r.HSN) &&
			equalOrEmpty(q.Category, r.Category) &&
			equalOrEmpty(q.Subcategory, r.Subcategory) &&
			equalOrEmpty(string(q.Type), string(r.Type)) &&
			equalOrEmpty(string(q.Badge), string(r.Badge))
	})

	desc := q.Order.desc()
	switch q.Sort {
	case SortPrice:
		return SortBy(rows, func(r InventoryRow) float64 { return r.MinPrice }, desc)
	case SortStock:
		return SortBy(rows, func(r InventoryRow) int { return r.TotalStock }, desc)
	default:
		return SortBy(rows, func(r InventoryRow) string { return strings.ToLower(r.Name) }, desc)
	}
}

func minPrice(p model.Product) float64 {
	variants := p.PurchasableVariants()
	if len(variants) == 0 {
		return 0
	}
	low := variants[0].Price
	for _, v := range variants[1:] {
		low = min(low, v.Price)
	}
	return low
}
