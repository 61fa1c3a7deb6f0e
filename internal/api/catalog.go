package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/backend"
	"github.com/erazemk/shopadmin/internal/imaging"
	"github.com/erazemk/shopadmin/internal/listing"
	"github.com/erazemk/shopadmin/internal/model"
	"github.com/erazemk/shopadmin/internal/selection"
)

// CatalogHandler serves products, categories, offers and taxonomy edits.
type CatalogHandler struct {
	Images *imaging.Processor
	// MaxImages caps the number of images per product form.
	MaxImages int
}

// Catalog handles GET /api/catalog. The loaded products also become the
// picker's catalog.
func (h *CatalogHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	catalog, err := p.Backend.LoadCatalog(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = p.Workspace.WithPicker(func(pk *selection.Picker) error {
		pk.SetCatalog(catalog.Products)
		return nil
	})
	jsonResponse(w, http.StatusOK, catalog)
}

// Products handles GET /api/products.
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := GetPrincipal(r.Context()).Backend.Products(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	rows := listing.Inventory(products, listing.ProductQuery{
		Search:      q.Get("search"),
		Category:    q.Get("category"),
		Subcategory: q.Get("subcategory"),
		Type:        model.ProductType(q.Get("product_type")),
		Badge:       listing.Badge(q.Get("badge")),
		Sort:        q.Get("sort"),
		Order:       listing.Order(q.Get("order")),
	})
	if rows == nil {
		rows = []listing.InventoryRow{}
	}
	jsonResponse(w, http.StatusOK, rows)
}

// ProductsByCategory handles GET /api/products/category/{id}.
func (h *CatalogHandler) ProductsByCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	products, err := GetPrincipal(r.Context()).Backend.ProductsByCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	jsonResponse(w, http.StatusOK, products)
}

// CreateProduct handles POST /api/products.
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	in, images, err := h.productForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p := GetPrincipal(r.Context())
	product, err := p.Backend.AddProduct(r.Context(), *in, images)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("product created", "user", p.User().Name, "product", product.ID, "name", product.Name, "images", len(images))
	jsonResponse(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/{id}.
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, images, err := h.productForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p := GetPrincipal(r.Context())
	product, err := p.Backend.UpdateProduct(r.Context(), id, *in, images)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("product updated", "user", p.User().Name, "product", id, "images", len(images))
	jsonResponse(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{id}.
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	p := GetPrincipal(r.Context())
	if err := p.Backend.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("product deleted", "user", p.User().Name, "product", id)
	w.WriteHeader(http.StatusNoContent)
}

// productForm reads a multipart product form: a "data" field holding the
// product JSON and any number of "images" files.
func (h *CatalogHandler) productForm(w http.ResponseWriter, r *http.Request) (*model.ProductInput, []imaging.Upload, error) {
	maxImages := h.MaxImages
	if maxImages <= 0 {
		maxImages = 10
	}
	perImage := h.Images.MaxBytes
	if perImage <= 0 {
		perImage = 10 << 20
	}
	limit := perImage*int64(maxImages) + maxJSONBody
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, nil, apperr.Wrap(apperr.CodeValidation, err, "file too large or invalid multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	data := r.FormValue("data")
	if strings.TrimSpace(data) == "" {
		return nil, nil, apperr.New(apperr.CodeValidation, "data field required")
	}
	var in model.ProductInput
	dec := json.NewDecoder(strings.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return nil, nil, apperr.Wrap(apperr.CodeValidation, err, "invalid product data").
			WithDetails(map[string]any{"error": err.Error()})
	}
	if err := validateStruct(&in); err != nil {
		return nil, nil, err
	}

	files := r.MultipartForm.File["images"]
	if len(files) > maxImages {
		return nil, nil, apperr.Newf(apperr.CodeValidation, "at most %d images allowed", maxImages)
	}
	uploads := make([]imaging.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, nil, apperr.Wrap(apperr.CodeValidation, err, "reading image "+fh.Filename)
		}
		up, err := h.Images.Prepare(fh.Filename, f)
		f.Close()
		if err != nil {
			return nil, nil, err
		}
		uploads = append(uploads, *up)
	}
	return &in, uploads, nil
}

// Offers handles GET /api/offers.
func (h *CatalogHandler) Offers(w http.ResponseWriter, r *http.Request) {
	products, err := GetPrincipal(r.Context()).Backend.Products(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	offers := listing.Offers(products, r.URL.Query().Get("search"))
	if offers == nil {
		offers = []listing.Offer{}
	}
	jsonResponse(w, http.StatusOK, offers)
}

// Categories handles GET /api/categories.
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := GetPrincipal(r.Context()).Backend.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := listing.Categories(categories, r.URL.Query().Get("search"))
	if out == nil {
		out = []model.Category{}
	}
	jsonResponse(w, http.StatusOK, out)
}

// UpdateTaxonomy handles PUT /api/taxonomy. Steps run one after another; a
// failure part way reports which steps the backend already applied.
func (h *CatalogHandler) UpdateTaxonomy(w http.ResponseWriter, r *http.Request) {
	var req model.TaxonomyUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p := GetPrincipal(r.Context())
	applied, err := p.Backend.UpdateTaxonomy(r.Context(), req)
	if err != nil {
		var partial *backend.PartialFailure
		if errors.As(err, &partial) {
			slog.Warn("taxonomy update partially applied", "user", p.User().Name, "applied", partial.Applied, "failed", partial.Failed)
		}
		writeError(w, r, err)
		return
	}

	slog.Info("taxonomy updated", "user", p.User().Name, "applied", applied)
	jsonResponse(w, http.StatusOK, map[string]any{"applied": applied})
}
