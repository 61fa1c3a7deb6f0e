package listing

import (
	"github.com/shopspring/decimal"

	"github.com/erazemk/shopadmin/internal/model"
	"github.com/erazemk/shopadmin/internal/pricing"
)

// Summary holds the dashboard figures.
type Summary struct {
	Products            int     `json:"products"`
	Variants            int     `json:"variants"`
	LowStock            int     `json:"low_stock"`
	OutOfStock          int     `json:"out_of_stock"`
	Offers              int     `json:"offers"`
	Categories          int     `json:"categories"`
	PendingOrders       int     `json:"pending_orders"`
	ApprovedOrders      int     `json:"approved_orders"`
	RejectedOrders      int     `json:"rejected_orders"`
	AwaitingFulfillment int     `json:"awaiting_fulfillment"`
	Revenue             float64 `json:"revenue"`
}

// Summarize computes the dashboard summary. Revenue counts approved orders
// only.
func Summarize(catalog model.Catalog, orders []model.Order) Summary {
	s := Summary{
		Products:   len(catalog.Products),
		Categories: len(catalog.Categories),
	}
	for _, p := range catalog.Products {
		for _, v := range p.PurchasableVariants() {
			s.Variants++
			switch BadgeFor(v.Variant) {
			case BadgeLowStock:
				s.LowStock++
			case BadgeOutOfStock:
				s.OutOfStock++
			}
			if v.OriginalPrice > v.Price {
				s.Offers++
			}
		}
	}

	revenue := decimal.Zero
	for _, o := range orders {
		switch o.Status {
		case model.OrderPending:
			s.PendingOrders++
		case model.OrderApproved:
			s.ApprovedOrders++
			revenue = revenue.Add(decimal.NewFromFloat(o.Total))
			if o.DeliveryStatus == model.DeliveryPending || o.DeliveryStatus == "" {
				s.AwaitingFulfillment++
			}
		case model.OrderRejected:
			s.RejectedOrders++
		}
	}
	s.Revenue = revenue.Round(pricing.Places).InexactFloat64()
	return s
}
