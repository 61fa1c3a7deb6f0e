// Package fulfillment reconciles serial numbers against order lines before
// an order can be fulfilled.
//
// Each unit of an order item is a slot. Candidate serial numbers are checked
// against the open order and the device registry, land in a pending pool and
// are then assigned to slots one by one, most recently validated first. A
// line is saved in a single request once every slot is filled.
package fulfillment

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/model"
)

var (
	ErrEmptySerial    = apperr.New(apperr.CodeValidation, "serial number is required")
	ErrSerialInUse    = apperr.New(apperr.CodeConflict, "serial number already used in this order")
	ErrDeviceSold     = apperr.New(apperr.CodeValidation, "device is already sold")
	ErrUnknownLine    = apperr.New(apperr.CodeNotFound, "order item not found")
	ErrUnknownSlot    = apperr.New(apperr.CodeNotFound, "slot not found")
	ErrPoolEmpty      = apperr.New(apperr.CodeValidation, "no validated serial number to assign")
	ErrSlotTaken      = apperr.New(apperr.CodeConflict, "slot already has a serial number")
	ErrSlotEmpty      = apperr.New(apperr.CodeValidation, "slot is empty")
	ErrSlotSaved      = apperr.New(apperr.CodeConflict, "slot was already saved")
	ErrLineSaved      = apperr.New(apperr.CodeConflict, "line was already saved")
	ErrLineIncomplete = apperr.New(apperr.CodeValidation, "every unit needs a serial number before saving")
	ErrSaveInFlight   = apperr.New(apperr.CodeConflict, "save already in progress for this line")
	ErrNotFulfillable = apperr.New(apperr.CodeValidation, "every unit of every line needs a serial number")
)

// idempotencyNamespace scopes the deterministic save keys.
var idempotencyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("shopadmin/save-sr-number"))

// Registry looks serial numbers up in the device registry.
type Registry interface {
	SearchDevice(ctx context.Context, serial string) (*model.DeviceLookup, error)
}

// Saver persists a line's serial numbers in one request.
type Saver interface {
	SaveSerialNumbers(ctx context.Context, req model.SaveSerialsRequest, idempotencyKey string) error
}

// Outcome is the result of validating a candidate serial number.
type Outcome string

const (
	// Accepted means the number entered the pending pool.
	Accepted Outcome = "accepted"
	// NeedsRegistration means the registry has no history for the number.
	// It must be registered as a device before it can be assigned.
	NeedsRegistration Outcome = "needs_registration"
)

// Slot is one unit of an order item.
type Slot struct {
	DetailID int64  `json:"detail_id"`
	SerialNo string `json:"sr_no,omitempty"`
	// Saved slots came from the backend with a serial already attached.
	Saved bool `json:"saved"`
}

// Filled reports whether the slot carries a serial number.
func (s Slot) Filled() bool {
	return s.SerialNo != ""
}

// Line is an order item being reconciled.
type Line struct {
	ItemID      int64  `json:"item_id"`
	ProductName string `json:"product_name,omitempty"`
	ModelName   string `json:"model_name,omitempty"`
	ColorName   string `json:"color_name,omitempty"`
	Quantity    int    `json:"quantity"`
	Slots       []Slot `json:"slots"`
	Saved       bool   `json:"saved"`

	saving bool
}

// Complete reports whether every unit of the line has a serial number.
func (l *Line) Complete() bool {
	if l.Quantity <= 0 || len(l.Slots) != l.Quantity {
		return false
	}
	for _, s := range l.Slots {
		if !s.Filled() {
			return false
		}
	}
	return true
}

// Reconciliation tracks serial assignment for one order. It is safe for
// concurrent use; Save releases the lock while the request is in flight.
type Reconciliation struct {
	mu      sync.Mutex
	orderID int64
	lines   []*Line
	pending []string
}

// New builds a reconciliation from an order with expanded details.
func New(order model.Order) *Reconciliation {
	r := &Reconciliation{orderID: order.ID}
	for _, item := range order.Items {
		l := &Line{
			ItemID:      item.ID,
			ProductName: item.ProductName,
			ModelName:   item.ModelName,
			ColorName:   item.ColorName,
			Quantity:    item.Quantity,
			Slots:       make([]Slot, 0, len(item.Details)),
		}
		for _, d := range item.Details {
			s := Slot{DetailID: d.ID}
			if d.SerialNo != nil && strings.TrimSpace(*d.SerialNo) != "" {
				s.SerialNo = strings.TrimSpace(*d.SerialNo)
				s.Saved = true
			}
			l.Slots = append(l.Slots, s)
		}
		l.Saved = l.Complete() && allSaved(l.Slots)
		r.lines = append(r.lines, l)
	}
	return r
}

func allSaved(slots []Slot) bool {
	for _, s := range slots {
		if !s.Saved {
			return false
		}
	}
	return true
}

// OrderID returns the order being reconciled.
func (r *Reconciliation) OrderID() int64 {
	return r.orderID
}

// Validate checks serial against the open order and the registry. Accepted
// numbers are pushed onto the pending pool.
func (r *Reconciliation) Validate(ctx context.Context, registry Registry, serial string) (Outcome, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return "", ErrEmptySerial
	}

	r.mu.Lock()
	inUse := r.inUse(serial)
	r.mu.Unlock()
	if inUse {
		return "", ErrSerialInUse
	}

	lookup, err := registry.SearchDevice(ctx, serial)
	if err != nil {
		return "", fmt.Errorf("searching device %s: %w", serial, err)
	}
	if lookup != nil && lookup.Device != nil && lookup.Device.IsSold() {
		return "", ErrDeviceSold
	}
	if !lookup.Known() {
		return NeedsRegistration, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// The registry call ran unlocked; another request may have taken it.
	if r.inUse(serial) {
		return "", ErrSerialInUse
	}
	r.pending = append(r.pending, serial)
	return Accepted, nil
}

// Discard drops serial from the pending pool.
func (r *Reconciliation) Discard(serial string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.Index(r.pending, strings.TrimSpace(serial))
	if i < 0 {
		return false
	}
	r.pending = slices.Delete(r.pending, i, i+1)
	return true
}

// Pending returns the pool, most recently validated last.
func (r *Reconciliation) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.pending)
}

// Assign moves the most recently validated number into an empty slot.
func (r *Reconciliation) Assign(itemID int64, slot int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, l, err := r.editableSlot(itemID, slot)
	if err != nil {
		return "", err
	}
	if s.Filled() {
		return "", ErrSlotTaken
	}
	if len(r.pending) == 0 {
		return "", ErrPoolEmpty
	}

	serial := r.pending[len(r.pending)-1]
	r.pending = r.pending[:len(r.pending)-1]
	l.Slots[slot].SerialNo = serial
	return serial, nil
}

// Clear empties an unsaved slot and returns its number to the pool.
func (r *Reconciliation) Clear(itemID int64, slot int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, l, err := r.editableSlot(itemID, slot)
	if err != nil {
		return "", err
	}
	if s.Saved {
		return "", ErrSlotSaved
	}
	if !s.Filled() {
		return "", ErrSlotEmpty
	}

	serial := s.SerialNo
	l.Slots[slot].SerialNo = ""
	r.pending = append(r.pending, serial)
	return serial, nil
}

// Complete reports whether every slot of the line is filled.
func (r *Reconciliation) Complete(itemID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.line(itemID)
	return l != nil && l.Complete()
}

// CanSave reports whether the line is complete and not yet saved.
func (r *Reconciliation) CanSave(itemID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.line(itemID)
	return l != nil && l.Complete() && !l.Saved && !l.saving
}

// Save submits every (detail, serial) pair of the line in one request. On
// success the line becomes immutable; on failure nothing changes.
func (r *Reconciliation) Save(ctx context.Context, saver Saver, itemID int64) error {
	r.mu.Lock()
	l := r.line(itemID)
	switch {
	case l == nil:
		r.mu.Unlock()
		return ErrUnknownLine
	case l.Saved:
		r.mu.Unlock()
		return ErrLineSaved
	case l.saving:
		r.mu.Unlock()
		return ErrSaveInFlight
	case !l.Complete():
		r.mu.Unlock()
		return ErrLineIncomplete
	}

	req := model.SaveSerialsRequest{OrderID: r.orderID, ItemID: itemID}
	for _, s := range l.Slots {
		req.Assignments = append(req.Assignments, model.SerialAssignment{DetailID: s.DetailID, SerialNo: s.SerialNo})
	}
	key := IdempotencyKey(req)
	l.saving = true
	r.mu.Unlock()

	err := saver.SaveSerialNumbers(ctx, req, key)

	r.mu.Lock()
	defer r.mu.Unlock()
	l.saving = false
	if err != nil {
		return fmt.Errorf("saving serial numbers for item %d: %w", itemID, err)
	}
	l.Saved = true
	for i := range l.Slots {
		l.Slots[i].Saved = true
	}
	return nil
}

// CanFulfill reports whether every line of the order is complete.
func (r *Reconciliation) CanFulfill() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lines) == 0 {
		return false
	}
	for _, l := range r.lines {
		if !l.Complete() {
			return false
		}
	}
	return true
}

// IdempotencyKey derives a stable key from the order, the item and the set
// of serial numbers, so a resubmission of the same save carries the same key.
func IdempotencyKey(req model.SaveSerialsRequest) string {
	pairs := make([]string, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		pairs = append(pairs, strconv.FormatInt(a.DetailID, 10)+"="+a.SerialNo)
	}
	sort.Strings(pairs)
	name := fmt.Sprintf("%d/%d/%s", req.OrderID, req.ItemID, strings.Join(pairs, ","))
	return uuid.NewSHA1(idempotencyNamespace, []byte(name)).String()
}

func (r *Reconciliation) inUse(serial string) bool {
	if slices.Contains(r.pending, serial) {
		return true
	}
	for _, l := range r.lines {
		for _, s := range l.Slots {
			if s.SerialNo == serial {
				return true
			}
		}
	}
	return false
}

func (r *Reconciliation) line(itemID int64) *Line {
	for _, l := range r.lines {
		if l.ItemID == itemID {
			return l
		}
	}
	return nil
}

func (r *Reconciliation) editableSlot(itemID int64, slot int) (Slot, *Line, error) {
	l := r.line(itemID)
	if l == nil {
		return Slot{}, nil, ErrUnknownLine
	}
	if slot < 0 || slot >= len(l.Slots) {
		return Slot{}, nil, ErrUnknownSlot
	}
	if l.Saved {
		return Slot{}, nil, ErrLineSaved
	}
	if l.saving {
		return Slot{}, nil, ErrSaveInFlight
	}
	return l.Slots[slot], l, nil
}

// Fulfiller asks the backend to move an order into fulfilment.
type Fulfiller interface {
	FulfillOrder(ctx context.Context, orderID int64) (*model.Order, error)
}

// Fulfill requests fulfilment once every line is complete. The returned
// order is whatever state the backend reports.
func (r *Reconciliation) Fulfill(ctx context.Context, f Fulfiller) (*model.Order, error) {
	if !r.CanFulfill() {
		return nil, ErrNotFulfillable
	}
	order, err := f.FulfillOrder(ctx, r.orderID)
	if err != nil {
		return nil, fmt.Errorf("fulfilling order %d: %w", r.orderID, err)
	}
	return order, nil
}

// LineView is a line with its derived flags.
type LineView struct {
	Line
	Complete bool `json:"complete"`
	CanSave  bool `json:"can_save"`
	Saving   bool `json:"saving"`
}

// View is a JSON snapshot of the reconciliation.
type View struct {
	OrderID    int64      `json:"order_id"`
	Lines      []LineView `json:"lines"`
	Pending    []string   `json:"pending"`
	CanFulfill bool       `json:"can_fulfill"`
}

// View renders the current state.
func (r *Reconciliation) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := View{
		OrderID:    r.orderID,
		Lines:      make([]LineView, 0, len(r.lines)),
		Pending:    slices.Clone(r.pending),
		CanFulfill: len(r.lines) > 0,
	}
	if v.Pending == nil {
		v.Pending = []string{}
	}
	for _, l := range r.lines {
		lv := LineView{
			Line:     *l,
			Complete: l.Complete(),
			CanSave:  l.Complete() && !l.Saved && !l.saving,
			Saving:   l.saving,
		}
		lv.Slots = slices.Clone(l.Slots)
		if !lv.Complete {
			v.CanFulfill = false
		}
		v.Lines = append(v.Lines, lv)
	}
	return v
}
