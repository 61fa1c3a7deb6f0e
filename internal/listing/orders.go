package listing

import (
	"strconv"
	"time"

	"github.com/erazemk/shopadmin/internal/model"
)

// OrderQuery filters the orders page. Zero values match everything.
type OrderQuery struct {
	Status         string    `json:"status"`
	DeliveryStatus string    `json:"delivery_status"`
	PaymentStatus  string    `json:"payment_status"`
	Search         string    `json:"search"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
}

// Orders filters orders and returns them newest first.
func Orders(orders []model.Order, q OrderQuery) []model.Order {
	out := Filter(orders, func(o model.Order) bool {
		if !equalOrEmpty(q.Status, o.Status) ||
			!equalOrEmpty(q.DeliveryStatus, o.DeliveryStatus) ||
			!equalOrEmpty(q.PaymentStatus, o.PaymentStatus) {
			return false
		}
		if !q.From.IsZero() && o.CreatedAt.Before(q.From) {
			return false
		}
		// To is inclusive of the whole day when given as a date.
		if !q.To.IsZero() && !o.CreatedAt.Before(endOf(q.To)) {
			return false
		}
		return matches(q.Search,
			strconv.FormatInt(o.ID, 10),
			o.Customer.Name,
			o.Customer.Email,
			o.Customer.Phone,
		)
	})
	return SortBy(out, func(o model.Order) int64 { return o.CreatedAt.UnixNano() }, true)
}

func endOf(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.AddDate(0, 0, 1)
	}
	return t.Add(time.Nanosecond)
}

// Categories returns categories whose name, or any subcategory name,
// contains search.
func Categories(categories []model.Category, search string) []model.Category {
	return Filter(categories, func(c model.Category) bool {
		if matches(search, c.Name) {
			return true
		}
		for _, s := range c.Subcategories {
			if matches(search, s.Name) {
				return true
			}
		}
		return false
	})
}
