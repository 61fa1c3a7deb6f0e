// Package workspace holds each operator session's page state in memory: the
// picker with its working order and the reconciliations of orders being
// fulfilled. Nothing here outlives the session.
package workspace

import (
	"sync"

	"github.com/erazemk/shopadmin/internal/fulfillment"
	"github.com/erazemk/shopadmin/internal/metrics"
	"github.com/erazemk/shopadmin/internal/model"
	"github.com/erazemk/shopadmin/internal/selection"
)

// Workspace is one session's state.
type Workspace struct {
	mu     sync.Mutex
	picker *selection.Picker
	recs   map[int64]*fulfillment.Reconciliation
}

func newWorkspace() *Workspace {
	return &Workspace{
		picker: selection.NewPicker(nil),
		recs:   make(map[int64]*fulfillment.Reconciliation),
	}
}

// WithPicker runs fn with exclusive access to the picker.
func (w *Workspace) WithPicker(fn func(*selection.Picker) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fn(w.picker)
}

// OpenReconciliation returns the open reconciliation of order, starting one
// from the order's details if none is open. Pending numbers survive
// repeated opens until the reconciliation is closed.
func (w *Workspace) OpenReconciliation(order model.Order) *fulfillment.Reconciliation {
	w.mu.Lock()
	defer w.mu.Unlock()
	if r, ok := w.recs[order.ID]; ok {
		return r
	}
	r := fulfillment.New(order)
	w.recs[order.ID] = r
	return r
}

// Reconciliation returns the open reconciliation of an order.
func (w *Workspace) Reconciliation(orderID int64) (*fulfillment.Reconciliation, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.recs[orderID]
	return r, ok
}

// CloseReconciliation discards an order's reconciliation.
func (w *Workspace) CloseReconciliation(orderID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.recs, orderID)
}

// Manager maps session ids to workspaces.
type Manager struct {
	mu         sync.Mutex
	workspaces map[string]*Workspace
	metrics    *metrics.HTTPMetrics
}

// NewManager returns an empty manager. m may be nil.
func NewManager(m *metrics.HTTPMetrics) *Manager {
	return &Manager{workspaces: make(map[string]*Workspace), metrics: m}
}

// Get returns the workspace of a session, creating it on first use.
func (m *Manager) Get(sessionID string) *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workspaces[sessionID]
	if !ok {
		w = newWorkspace()
		m.workspaces[sessionID] = w
		m.metrics.SetWorkspaces(len(m.workspaces))
	}
	return w
}

// Drop discards the workspaces of the given sessions.
func (m *Manager) Drop(sessionIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range sessionIDs {
		delete(m.workspaces, id)
	}
	m.metrics.SetWorkspaces(len(m.workspaces))
}

// Len returns the number of live workspaces.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}
