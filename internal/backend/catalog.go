package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/imaging"
	"github.com/erazemk/shopadmin/internal/model"
)

// Products returns the full product list.
func (c *Client) Products(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	if err := c.doJSON(ctx, "list_products", http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProductsByCategory returns the products of one category.
func (c *Client) ProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	var out []model.Product
	if err := c.doJSON(ctx, "list_products_by_category", http.MethodGet, idPath("/products/by-category/%d", categoryID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Categories returns all categories with their subcategories.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	if err := c.doJSON(ctx, "list_categories", http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HSNCodes returns all HSN codes.
func (c *Client) HSNCodes(ctx context.Context) ([]model.HSN, error) {
	var out []model.HSN
	if err := c.doJSON(ctx, "list_hsn", http.MethodGet, "/hsn", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadCatalog fetches products, categories and HSN codes concurrently and
// returns them together. Any failure fails the whole load and cancels the
// remaining calls.
func (c *Client) LoadCatalog(ctx context.Context) (*model.Catalog, error) {
	var cat model.Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := c.Products(gctx)
		cat.Products = products
		return err
	})
	g.Go(func() error {
		categories, err := c.Categories(gctx)
		cat.Categories = categories
		return err
	})
	g.Go(func() error {
		hsn, err := c.HSNCodes(gctx)
		cat.HSN = hsn
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// AddProduct creates a product. images are attached as "images" parts.
func (c *Client) AddProduct(ctx context.Context, in model.ProductInput, images []imaging.Upload) (*model.Product, error) {
	var out model.Product
	if err := c.sendProduct(ctx, "add_product", http.MethodPost, "/product/add", in, images, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct replaces a product.
func (c *Client) UpdateProduct(ctx context.Context, id int64, in model.ProductInput, images []imaging.Upload) (*model.Product, error) {
	var out model.Product
	if err := c.sendProduct(ctx, "update_product", http.MethodPut, idPath("/%d", id), in, images, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "delete_product", http.MethodDelete, idPath("/%d", id), nil, nil)
}

func (c *Client) sendProduct(ctx context.Context, op, method, path string, in model.ProductInput, images []imaging.Upload, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "encoding product")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("data", string(data)); err != nil {
		return fmt.Errorf("writing data field: %w", err)
	}
	for _, img := range images {
		if err := writeFile(mw, "images", img.Filename, img.MIME, img.Data); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	return c.do(ctx, request{
		op:          op,
		method:      method,
		path:        path,
		body:        &body,
		contentType: mw.FormDataContentType(),
	}, out)
}

func writeFile(mw *multipart.Writer, field, filename, mime string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", mime)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating %s part: %w", field, err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("writing %s part: %w", field, err)
	}
	return nil
}

// Taxonomy steps, in the order they are applied.
const (
	StepCategory    = "category"
	StepSubcategory = "subcategory"
	StepHSN         = "hsn"
)

// PartialFailure reports a combined taxonomy edit that stopped part way.
// Applied steps were accepted by the backend and are not rolled back.
type PartialFailure struct {
	Applied []string `json:"applied"`
	Failed  string   `json:"failed"`
	Skipped []string `json:"skipped"`
	Err     error    `json:"-"`
}

func (p *PartialFailure) Error() string {
	return fmt.Sprintf("taxonomy update failed at %s after applying %v: %v", p.Failed, p.Applied, p.Err)
}

func (p *PartialFailure) Unwrap() error {
	return p.Err
}

// UpdateTaxonomy applies the category, subcategory and HSN edits one after
// another. On failure it stops and returns a *PartialFailure naming what was
// applied, what failed and what was never sent.
func (c *Client) UpdateTaxonomy(ctx context.Context, u model.TaxonomyUpdate) ([]string, error) {
	type step struct {
		name string
		path string
		body any
	}
	var steps []step
	if u.Category != nil {
		steps = append(steps, step{StepCategory, idPath("/category/%d", u.Category.ID), u.Category})
	}
	if u.Subcategory != nil {
		steps = append(steps, step{StepSubcategory, idPath("/subcategory/%d", u.Subcategory.ID), u.Subcategory})
	}
	if u.HSN != nil {
		steps = append(steps, step{StepHSN, idPath("/hsn/%d", u.HSN.ID), u.HSN})
	}
	if len(steps) == 0 {
		return nil, apperr.New(apperr.CodeValidation, "nothing to update")
	}

	applied := make([]string, 0, len(steps))
	for i, s := range steps {
		if err := c.doJSON(ctx, "update_"+s.name, http.MethodPut, s.path, s.body, nil); err != nil {
			pf := &PartialFailure{Applied: applied, Failed: s.name, Err: err}
			for _, rest := range steps[i+1:] {
				pf.Skipped = append(pf.Skipped, rest.name)
			}
			return applied, pf
		}
		applied = append(applied, s.name)
	}
	return applied, nil
}
