package api

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/shopadmin/internal/listing"
	"github.com/erazemk/shopadmin/internal/model"
)

// DashboardHandler serves the summary figures of the landing page.
type DashboardHandler struct{}

// Summary handles GET /api/dashboard. The catalog and the order list are
// fetched together; either failing fails the page.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	client := GetPrincipal(r.Context()).Backend

	var (
		catalog *model.Catalog
		orders  []model.Order
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		catalog, err = client.LoadCatalog(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = client.Orders(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, listing.Summarize(*catalog, orders))
}
