package model

import "time"

// Order approval statuses.
const (
	OrderPending  = "PENDING"
	OrderApproved = "APPROVED"
	OrderRejected = "REJECTED"
)

// Delivery statuses.
const (
	DeliveryPending    = "pending"
	DeliveryProcessing = "processing"
	DeliveryShipped    = "shipped"
	DeliveryDelivered  = "delivered"
	DeliveryCancelled  = "cancelled"
)

// Payment statuses.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Customer is the buyer attached to an order.
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Address is a shipping address.
type Address struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode"`
}

// Order mirrors the backend order resource. Status transitions are decided
// by the backend; the console only requests them.
type Order struct {
	ID             int64       `json:"id"`
	Status         string      `json:"status"`
	DeliveryStatus string      `json:"delivery_status"`
	PaymentStatus  string      `json:"payment_status,omitempty"`
	Items          []OrderItem `json:"items,omitempty"`
	Customer       Customer    `json:"customer"`
	Address        Address     `json:"address"`
	Subtotal       float64     `json:"subtotal"`
	Discount       float64     `json:"discount"`
	Total          float64     `json:"total"`
	CreatedAt      time.Time   `json:"created_at"`
}

// OrderItem is one product line of an order.
type OrderItem struct {
	ID          int64         `json:"id"`
	ProductID   int64         `json:"product_id"`
	ModelID     *int64        `json:"model_id,omitempty"`
	ProductName string        `json:"product_name,omitempty"`
	ModelName   string        `json:"model_name,omitempty"`
	ColorName   string        `json:"color_name,omitempty"`
	Quantity    int           `json:"quantity"`
	UnitPrice   float64       `json:"unit_price"`
	Details     []OrderDetail `json:"details,omitempty"`
}

// OrderDetail is one unit of an order item. SerialNo stays nil until a
// serial number has been saved for the unit.
type OrderDetail struct {
	ID       int64   `json:"id"`
	SerialNo *string `json:"sr_no"`
}

// SerialAssignment pairs a detail row with a serial number.
type SerialAssignment struct {
	DetailID int64  `json:"detail_id"`
	SerialNo string `json:"sr_no"`
}

// SaveSerialsRequest is the single request persisting a line's serials.
type SaveSerialsRequest struct {
	OrderID     int64              `json:"order_id"`
	ItemID      int64              `json:"item_id"`
	Assignments []SerialAssignment `json:"items"`
}
