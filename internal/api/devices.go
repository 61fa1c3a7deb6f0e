package api

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/model"
)

// maxCSVUpload caps the device transaction import.
const maxCSVUpload = 5 << 20

// DevicesHandler handles the device registry.
type DevicesHandler struct{}

type lookupResponse struct {
	*model.DeviceLookup
	Known bool `json:"known"`
	Sold  bool `json:"sold"`
}

// Search handles GET /api/devices/{srno}. A serial the registry has never
// seen answers 200 with known=false.
func (h *DevicesHandler) Search(w http.ResponseWriter, r *http.Request) {
	lookup, err := GetPrincipal(r.Context()).Backend.SearchDevice(r.Context(), r.PathValue("srno"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := lookupResponse{DeviceLookup: lookup, Known: lookup.Known()}
	if lookup.Device != nil {
		resp.Sold = lookup.Device.IsSold()
	}
	if resp.Transactions == nil {
		resp.Transactions = []model.DeviceTransaction{}
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Create handles POST /api/devices.
func (h *DevicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.NewDevice
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.SerialNo = strings.TrimSpace(req.SerialNo)

	p := GetPrincipal(r.Context())
	device, err := p.Backend.AddDevice(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("device registered", "user", p.User().Name, "srno", device.SerialNo, "model", device.ModelName)
	jsonResponse(w, http.StatusCreated, device)
}

// Upload handles POST /api/devices/upload with a CSV "file" part.
func (h *DevicesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCSVUpload+(64<<10))
	if err := r.ParseMultipartForm(maxCSVUpload); err != nil {
		writeError(w, r, apperr.Wrap(apperr.CodeValidation, err, "file too large or invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apperr.New(apperr.CodeValidation, "csv file required"))
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		writeError(w, r, apperr.New(apperr.CodeValidation, "file must be a .csv"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.CodeValidation, err, "reading csv file"))
		return
	}

	p := GetPrincipal(r.Context())
	result, err := p.Backend.UploadDeviceTransactions(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("device transactions uploaded", "user", p.User().Name, "file", header.Filename, "imported", result.Imported, "failed", result.Failed)
	jsonResponse(w, http.StatusOK, result)
}
