package model

import "time"

// Device statuses, computed by the backend.
const (
	DeviceInStock       = "IN_STOCK"
	DeviceSold          = "SOLD"
	DeviceSoldWithoutIn = "SOLD_WITHOUT_IN"
	DeviceReturn        = "RETURN"
)

// Device is a serial-numbered unit in the device registry.
type Device struct {
	SerialNo  string  `json:"srno"`
	ModelName string  `json:"model_name"`
	SKUID     string  `json:"sku_id,omitempty"`
	Status    string  `json:"status"`
	InPrice   float64 `json:"in_price"`
	OutPrice  float64 `json:"out_price"`
	Profit    float64 `json:"profit"`
}

// IsSold reports whether the device has already left the shop.
func (d Device) IsSold() bool {
	return d.Status == DeviceSold || d.Status == DeviceSoldWithoutIn
}

// DeviceTransaction is one in/out movement of a device.
type DeviceTransaction struct {
	ID        int64     `json:"id"`
	SerialNo  string    `json:"srno"`
	Type      string    `json:"type"`
	Price     float64   `json:"price"`
	OrderID   *int64    `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DeviceLookup is the registry's answer to a serial-number search.
type DeviceLookup struct {
	Device       *Device             `json:"device"`
	Transactions []DeviceTransaction `json:"transactions"`
}

// Known reports whether the registry has any history for the serial.
func (l *DeviceLookup) Known() bool {
	return l != nil && l.Device != nil && len(l.Transactions) > 0
}

// NewDevice is the payload for registering a device.
type NewDevice struct {
	SerialNo  string  `json:"srno" validate:"required,max=64"`
	ModelName string  `json:"model_name" validate:"required,max=200"`
	SKUID     string  `json:"sku_id,omitempty" validate:"max=64"`
	InPrice   float64 `json:"in_price" validate:"gte=0"`
}
