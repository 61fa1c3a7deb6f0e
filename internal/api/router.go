// Package api is the console's JSON API.
package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/shopadmin/internal/backend"
	"github.com/erazemk/shopadmin/internal/imaging"
	"github.com/erazemk/shopadmin/internal/model"
	"github.com/erazemk/shopadmin/internal/store"
	"github.com/erazemk/shopadmin/internal/workspace"
)

// Deps are the router's collaborators.
type Deps struct {
	DB           *sql.DB
	JWTSecret    string
	Sessions     *store.Sessions
	Backend      *backend.Client
	Workspaces   *workspace.Manager
	Images       *imaging.Processor
	SessionTTL   time.Duration
	SecureCookie bool
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{
		DB:           d.DB,
		JWTSecret:    d.JWTSecret,
		Sessions:     d.Sessions,
		Backend:      d.Backend,
		Workspaces:   d.Workspaces,
		SessionTTL:   d.SessionTTL,
		SecureCookie: d.SecureCookie,
	}
	catalogHandler := &CatalogHandler{Images: d.Images}
	pickerHandler := &PickerHandler{}
	ordersHandler := &OrdersHandler{}
	fulfillmentHandler := &FulfillmentHandler{}
	devicesHandler := &DevicesHandler{}
	dashboardHandler := &DashboardHandler{}

	authMW := AuthMiddleware(d.JWTSecret, d.DB, d.Sessions, d.Backend, d.Workspaces)
	requireManager := RequireRole(model.RoleManager)

	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	manager := func(h http.HandlerFunc) http.Handler { return authMW(requireManager(h)) }

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /healthz", health(d.DB))

	// Session.
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("GET /api/auth/me", authed(authHandler.Me))

	// Catalog: read (all roles), write (manager+).
	mux.Handle("GET /api/catalog", authed(catalogHandler.Catalog))
	mux.Handle("GET /api/products", authed(catalogHandler.Products))
	mux.Handle("GET /api/products/category/{id}", authed(catalogHandler.ProductsByCategory))
	mux.Handle("POST /api/products", manager(catalogHandler.CreateProduct))
	mux.Handle("PUT /api/products/{id}", manager(catalogHandler.UpdateProduct))
	mux.Handle("DELETE /api/products/{id}", manager(catalogHandler.DeleteProduct))
	mux.Handle("GET /api/offers", authed(catalogHandler.Offers))
	mux.Handle("GET /api/categories", authed(catalogHandler.Categories))
	mux.Handle("PUT /api/taxonomy", manager(catalogHandler.UpdateTaxonomy))

	// Picker and working order (all roles).
	mux.Handle("GET /api/picker", authed(pickerHandler.View))
	mux.Handle("POST /api/picker/product", authed(pickerHandler.SelectProduct))
	mux.Handle("POST /api/picker/model", authed(pickerHandler.SelectModel))
	mux.Handle("POST /api/picker/colors/{id}", authed(pickerHandler.ToggleColor))
	mux.Handle("POST /api/picker/back", authed(pickerHandler.Back))
	mux.Handle("POST /api/picker/reset", authed(pickerHandler.Reset))
	mux.Handle("POST /api/picker/confirm", authed(pickerHandler.Confirm))
	mux.Handle("GET /api/working-order", authed(pickerHandler.WorkingOrder))
	mux.Handle("DELETE /api/working-order", authed(pickerHandler.ClearWorkingOrder))
	mux.Handle("PUT /api/working-order/{id}", authed(pickerHandler.UpdateLine))
	mux.Handle("DELETE /api/working-order/{id}", authed(pickerHandler.RemoveLine))

	// Orders: read (all roles), transitions (manager+).
	mux.Handle("GET /api/orders", authed(ordersHandler.List))
	mux.Handle("GET /api/orders/rejected", authed(ordersHandler.Rejected))
	mux.Handle("GET /api/orders/{id}", authed(ordersHandler.Get))
	mux.Handle("GET /api/orders/{id}/items", authed(ordersHandler.Items))
	mux.Handle("GET /api/orders/{id}/track", authed(ordersHandler.Track))
	mux.Handle("POST /api/orders/{id}/approve", manager(ordersHandler.Approve))
	mux.Handle("POST /api/orders/{id}/reject", manager(ordersHandler.Reject))
	mux.Handle("PUT /api/orders/{id}/status", manager(ordersHandler.UpdateStatus))
	mux.Handle("PUT /api/orders/{id}/payment", manager(ordersHandler.UpdatePayment))

	// Fulfilment (all roles).
	mux.Handle("GET /api/orders/{id}/fulfillment", authed(fulfillmentHandler.Get))
	mux.Handle("POST /api/orders/{id}/serials", authed(fulfillmentHandler.ValidateSerial))
	mux.Handle("DELETE /api/orders/{id}/serials/{srno}", authed(fulfillmentHandler.DiscardSerial))
	mux.Handle("POST /api/orders/{id}/items/{item}/slots/{slot}", authed(fulfillmentHandler.Assign))
	mux.Handle("DELETE /api/orders/{id}/items/{item}/slots/{slot}", authed(fulfillmentHandler.Clear))
	mux.Handle("POST /api/orders/{id}/items/{item}/save", authed(fulfillmentHandler.Save))
	mux.Handle("POST /api/orders/{id}/fulfill", manager(fulfillmentHandler.Fulfill))

	// Devices: lookup (all roles), registration and import (manager+).
	mux.Handle("GET /api/devices/{srno}", authed(devicesHandler.Search))
	mux.Handle("POST /api/devices", manager(devicesHandler.Create))
	mux.Handle("POST /api/devices/upload", manager(devicesHandler.Upload))

	mux.Handle("GET /api/dashboard", authed(dashboardHandler.Summary))

	return mux
}

// health reports whether the session database is reachable.
func health(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
