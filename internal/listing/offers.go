package listing

import (
	"github.com/erazemk/shopadmin/internal/model"
	"github.com/erazemk/shopadmin/internal/pricing"
)

// Offer is a variant currently sold below its original price.
type Offer struct {
	ProductID          int64   `json:"product_id"`
	ModelID            int64   `json:"model_id,omitempty"`
	ProductName        string  `json:"product_name"`
	ModelName          string  `json:"model_name,omitempty"`
	VariantID          int64   `json:"variant_id"`
	VariantName        string  `json:"variant_name"`
	Price              float64 `json:"price"`
	OriginalPrice      float64 `json:"original_price"`
	DiscountPercentage float64 `json:"discount_percentage"`
	Badge              Badge   `json:"badge"`
}

// Offers lists discounted variants, biggest discount first.
func Offers(products []model.Product, search string) []Offer {
	var out []Offer
	for _, p := range products {
		for _, v := range p.PurchasableVariants() {
			if v.OriginalPrice <= v.Price {
				continue
			}
			o := Offer{
				ProductID:          p.ID,
				ProductName:        p.Name,
				VariantID:          v.ID,
				VariantName:        v.Name,
				Price:              v.Price,
				OriginalPrice:      v.OriginalPrice,
				DiscountPercentage: pricing.OfferDiscount(v.OriginalPrice, v.Price),
				Badge:              BadgeFor(v.Variant),
			}
			if v.Parent == model.ParentModel {
				o.ModelID = v.ModelID
				if m := p.FindModel(v.ModelID); m != nil {
					o.ModelName = m.Name
				}
			}
			out = append(out, o)
		}
	}
	out = Filter(out, func(o Offer) bool {
		return matches(search, o.ProductName, o.ModelName, o.VariantName)
	})
	return SortBy(out, func(o Offer) float64 { return o.DiscountPercentage }, true)
}
