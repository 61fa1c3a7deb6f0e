package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/imaging"
	"github.com/erazemk/shopadmin/internal/model"
)

const testToken = "backend-token"

// fakeBackend records requests and answers from a route table.
type fakeBackend struct {
	t      *testing.T
	mu     sync.Mutex
	seen   []*http.Request
	bodies []string
	routes map[string]http.HandlerFunc
}

func newFakeBackend(t *testing.T, routes map[string]http.HandlerFunc) (*fakeBackend, *Client) {
	t.Helper()
	fb := &fakeBackend{t: t, routes: routes}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL + "/")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return fb, c.WithSession(Session{Token: testToken, User: model.User{ID: 1, Name: "Ana", Role: model.RoleAdmin}})
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.seen = append(f.seen, r)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()
	r.Body = io.NopCloser(strings.NewReader(string(body)))

	h, ok := f.routes[r.Method+" "+r.URL.Path]
	if !ok {
		http.Error(w, `{"message":"no such route"}`, http.StatusNotFound)
		return
	}
	h(w, r)
}

func (f *fakeBackend) last() (*http.Request, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.seen) == 0 {
		f.t.Fatal("no request recorded")
	}
	return f.seen[len(f.seen)-1], f.bodies[len(f.bodies)-1]
}

func respond(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestBearerTokenAttached(t *testing.T) {
	fb, c := newFakeBackend(t, map[string]http.HandlerFunc{
		"GET /products": respond(200, []model.Product{{ID: 1, Name: "Phone"}}),
	})

	products, err := c.Products(context.Background())
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Phone" {
		t.Errorf("unexpected products: %+v", products)
	}
	req, _ := fb.last()
	if got := req.Header.Get("Authorization"); got != "Bearer "+testToken {
		t.Errorf("expected bearer token, got %q", got)
	}
}

func TestNoSessionRejectedLocally(t *testing.T) {
	fb, c := newFakeBackend(t, nil)
	anon := c.WithSession(Session{})
	_, err := anon.Orders(context.Background())
	if !apperr.IsCode(err, apperr.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(fb.seen) != 0 {
		t.Error("no request should be sent without a session")
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		code    apperr.Code
		message string
	}{
		{"message body", respond(422, map[string]string{"message": "stock too low"}), apperr.CodeServer, "stock too low"},
		{"error body", respond(500, map[string]string{"error": "db down"}), apperr.CodeServer, "db down"},
		{"plain text", func(w http.ResponseWriter, r *http.Request) { http.Error(w, "bad gateway", 502) }, apperr.CodeServer, "bad gateway"},
		{"unauthorized", respond(401, map[string]string{"message": "jwt expired"}), apperr.CodeUnauthorized, "jwt expired"},
		{"not found", respond(404, map[string]any{}), apperr.CodeNotFound, "Not Found"},
		{"conflict", respond(409, map[string]string{"message": "already approved"}), apperr.CodeConflict, "already approved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newFakeBackend(t, map[string]http.HandlerFunc{"GET /orders": tt.handler})
			_, err := c.Orders(context.Background())
			ae := apperr.As(err)
			if ae == nil {
				t.Fatalf("expected classified error, got %v", err)
			}
			if ae.Code() != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, ae.Code())
			}
			if ae.Message() != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, ae.Message())
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := NewClient(url)
	_, err := c.WithSession(Session{Token: "x"}).Categories(context.Background())
	if !apperr.IsCode(err, apperr.CodeTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestLoadCatalogJoint(t *testing.T) {
	_, c := newFakeBackend(t, map[string]http.HandlerFunc{
		"GET /products":   respond(200, []model.Product{{ID: 1}}),
		"GET /categories": respond(200, []model.Category{{ID: 2}}),
		"GET /hsn":        respond(200, []model.HSN{{ID: 3, Code: "8517"}}),
	})

	cat, err := c.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(cat.Products) != 1 || len(cat.Categories) != 1 || len(cat.HSN) != 1 {
		t.Errorf("unexpected catalog: %+v", cat)
	}
}

func TestLoadCatalogFailsAsWhole(t *testing.T) {
	_, c := newFakeBackend(t, map[string]http.HandlerFunc{
		"GET /products":   respond(200, []model.Product{{ID: 1}}),
		"GET /categories": respond(500, map[string]string{"message": "boom"}),
		"GET /hsn":        respond(200, []model.HSN{}),
	})

	cat, err := c.LoadCatalog(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if cat != nil {
		t.Error("partial catalog must not be returned")
	}
}

func TestSaveSerialNumbersSendsIdempotencyKey(t *testing.T) {
	fb, c := newFakeBackend(t, map[string]http.HandlerFunc{
		"POST /save-sr-number": respond(200, map[string]bool{"success": true}),
	})

	req := model.SaveSerialsRequest{OrderID: 7, ItemID: 1, Assignments: []model.SerialAssignment{{DetailID: 11, SerialNo: "A"}}}
	if err := c.SaveSerialNumbers(context.Background(), req, "key-1"); err != nil {
		t.Fatalf("SaveSerialNumbers: %v", err)
	}

	r, body := fb.last()
	if got := r.Header.Get(IdempotencyHeader); got != "key-1" {
		t.Errorf("expected idempotency key, got %q", got)
	}
	var sent model.SaveSerialsRequest
	if err := json.Unmarshal([]byte(body), &sent); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(sent.Assignments) != 1 || sent.Assignments[0].SerialNo != "A" {
		t.Errorf("unexpected body: %s", body)
	}

	if err := c.SaveSerialNumbers(context.Background(), model.SaveSerialsRequest{}, ""); !apperr.IsCode(err, apperr.CodeValidation) {
		t.Errorf("expected validation error for empty save, got %v", err)
	}
}

func TestSearchDevice(t *testing.T) {
	_, c := newFakeBackend(t, map[string]http.HandlerFunc{
		"POST /search-device": func(w http.ResponseWriter, r *http.Request) {
			var in searchDeviceRequest
			json.NewDecoder(r.Body).Decode(&in)
			if in.SerialNo == "SN-1" {
				respond(200, model.DeviceLookup{
					Device:       &model.Device{SerialNo: "SN-1", Status: model.DeviceInStock},
					Transactions: []model.DeviceTransaction{{ID: 1}},
				})(w, r)
				return
			}
			respond(404, map[string]string{"message": "device not found"})(w, r)
		},
	})

	known, err := c.SearchDevice(context.Background(), " SN-1 ")
	if err != nil {
		t.Fatalf("SearchDevice: %v", err)
	}
	if !known.Known() {
		t.Error("expected known device")
	}

	unknown, err := c.SearchDevice(context.Background(), "SN-2")
	if err != nil {
		t.Fatalf("unknown serial should not be an error: %v", err)
	}
	if unknown.Known() {
		t.Error("expected unknown device")
	}
}

func TestOrderTransitions(t *testing.T) {
	fb, c := newFakeBackend(t, map[string]http.HandlerFunc{
		"GET /approve-order/5":          respond(200, model.Order{ID: 5, Status: model.OrderApproved}),
		"DELETE /reject-order/6":        respond(200, map[string]string{"message": "rejected"}),
		"PUT /update-order-status/5":    respond(200, model.Order{ID: 5, DeliveryStatus: model.DeliveryProcessing}),
		"GET /order/6/details-expanded": respond(200, model.Order{ID: 6, Status: model.OrderRejected}),
	})

	o, err := c.ApproveOrder(context.Background(), 5)
	if err != nil || o.Status != model.OrderApproved {
		t.Fatalf("ApproveOrder: %+v %v", o, err)
	}

	o, err = c.RejectOrder(context.Background(), 6)
	if err != nil || o.ID != 6 || o.Status != model.OrderRejected {
		t.Fatalf("RejectOrder should reload the order after a bare acknowledgement: %+v %v", o, err)
	}

	o, err = c.FulfillOrder(context.Background(), 5)
	if err != nil || o.DeliveryStatus != model.DeliveryProcessing {
		t.Fatalf("FulfillOrder: %+v %v", o, err)
	}
	req, body := fb.last()
	if req.URL.Path != "/update-order-status/5" {
		t.Errorf("FulfillOrder should not reload a stateful acknowledgement, last call %s", req.URL.Path)
	}
	if !strings.Contains(body, `"delivery_status":"processing"`) {
		t.Errorf("unexpected fulfil body: %s", body)
	}
}

func TestTransitionReloadFailure(t *testing.T) {
	_, c := newFakeBackend(t, map[string]http.HandlerFunc{
		"GET /approve-order/7": respond(200, map[string]string{"message": "approved"}),
	})
	_, err := c.ApproveOrder(context.Background(), 7)
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected reload error, got %v", err)
	}
}

func TestUpdateTaxonomyStopsOnFailure(t *testing.T) {
	fb, c := newFakeBackend(t, map[string]http.HandlerFunc{
		"PUT /category/1":    respond(200, map[string]any{}),
		"PUT /subcategory/2": respond(400, map[string]string{"message": "duplicate name"}),
		"PUT /hsn/3":         respond(200, map[string]any{}),
	})

	applied, err := c.UpdateTaxonomy(context.Background(), model.TaxonomyUpdate{
		Category:    &model.CategoryUpdate{ID: 1, Name: "Phones"},
		Subcategory: &model.SubcategoryUpdate{ID: 2, Name: "Android", CategoryID: 1},
		HSN:         &model.HSNUpdate{ID: 3, Code: "8517"},
	})

	var pf *PartialFailure
	if !errors.As(err, &pf) {
		t.Fatalf("expected PartialFailure, got %v", err)
	}
	if len(applied) != 1 || applied[0] != StepCategory {
		t.Errorf("expected category applied, got %v", applied)
	}
	if pf.Failed != StepSubcategory {
		t.Errorf("expected subcategory to fail, got %s", pf.Failed)
	}
	if len(pf.Skipped) != 1 || pf.Skipped[0] != StepHSN {
		t.Errorf("expected hsn skipped, got %v", pf.Skipped)
	}
	if !apperr.IsCode(err, apperr.CodeServer) {
		t.Errorf("expected underlying server error, got %v", err)
	}
	for _, r := range fb.seen {
		if r.URL.Path == "/hsn/3" {
			t.Error("hsn update must not be sent after a failure")
		}
	}
}

func TestAddProductMultipart(t *testing.T) {
	fb, c := newFakeBackend(t, map[string]http.HandlerFunc{
		"POST /product/add": func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), 400)
				return
			}
			var in model.ProductInput
			if err := json.Unmarshal([]byte(r.FormValue("data")), &in); err != nil {
				http.Error(w, err.Error(), 400)
				return
			}
			files := r.MultipartForm.File["images"]
			if len(files) != 1 || files[0].Filename != "front.jpg" {
				http.Error(w, "missing image", 400)
				return
			}
			respond(201, model.Product{ID: 9, Name: in.Name, Type: in.Type})(w, r)
		},
	})

	in := model.ProductInput{Name: "Phone", Category: "Mobiles", HSN: "8517", Type: model.ProductSingle,
		Colors: []model.VariantInput{{Name: model.DefaultVariantName, Price: 10}}}
	p, err := c.AddProduct(context.Background(), in, []imaging.Upload{{Filename: "front.jpg", MIME: "image/jpeg", Data: []byte{0xff, 0xd8}}})
	if err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	if p.ID != 9 || p.Name != "Phone" {
		t.Errorf("unexpected product: %+v", p)
	}
	r, _ := fb.last()
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		t.Errorf("expected multipart request, got %s", r.Header.Get("Content-Type"))
	}
}

func TestUploadDeviceTransactions(t *testing.T) {
	_, c := newFakeBackend(t, map[string]http.HandlerFunc{
		"POST /upload-device-transaction": func(w http.ResponseWriter, r *http.Request) {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, err.Error(), 400)
				return
			}
			defer f.Close()
			data, _ := io.ReadAll(f)
			lines := strings.Count(strings.TrimSpace(string(data)), "\n")
			respond(200, UploadResult{Imported: lines})(w, r)
		},
	})

	res, err := c.UploadDeviceTransactions(context.Background(), "tx.csv", []byte("srno,type\nSN-1,IN\nSN-2,IN\n"))
	if err != nil {
		t.Fatalf("UploadDeviceTransactions: %v", err)
	}
	if res.Imported != 2 {
		t.Errorf("expected 2 imported, got %d", res.Imported)
	}
}

func TestLoginIsAnonymous(t *testing.T) {
	fb, c := newFakeBackend(t, map[string]http.HandlerFunc{
		"POST /login": respond(200, loginResponse{Token: "new", User: model.User{ID: 2, Name: "Bor", Role: model.RoleStaff}}),
	})

	sess, err := c.WithSession(Session{}).Login(context.Background(), Credentials{Email: "bor@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token != "new" || sess.User.Name != "Bor" {
		t.Errorf("unexpected session: %+v", sess)
	}
	r, _ := fb.last()
	if r.Header.Get("Authorization") != "" {
		t.Error("login must not carry a bearer token")
	}
}

func TestTrackOrderPassthrough(t *testing.T) {
	_, c := newFakeBackend(t, map[string]http.HandlerFunc{
		"GET /order/4/track": respond(200, map[string]any{"awb": "123", "events": []string{"picked"}}),
	})
	raw, err := c.TrackOrder(context.Background(), 4)
	if err != nil {
		t.Fatalf("TrackOrder: %v", err)
	}
	if !strings.Contains(string(raw), `"awb":"123"`) {
		t.Errorf("unexpected payload: %s", raw)
	}
}
