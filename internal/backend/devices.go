package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/model"
)

// IdempotencyHeader carries the deterministic key of a serial-number save.
const IdempotencyHeader = "Idempotency-Key"

// SaveSerialNumbers persists a line's (detail, serial) pairs in a single
// request.
func (c *Client) SaveSerialNumbers(ctx context.Context, req model.SaveSerialsRequest, idempotencyKey string) error {
	if len(req.Assignments) == 0 {
		return apperr.New(apperr.CodeValidation, "no serial numbers to save")
	}
	payload, err := marshal("save_sr_number", req)
	if err != nil {
		return err
	}
	r := request{
		op:          "save_sr_number",
		method:      http.MethodPost,
		path:        "/save-sr-number",
		body:        bytes.NewReader(payload),
		contentType: "application/json",
	}
	if idempotencyKey != "" {
		r.header = http.Header{IdempotencyHeader: []string{idempotencyKey}}
	}
	return c.do(ctx, r, nil)
}

type searchDeviceRequest struct {
	SerialNo string `json:"srno"`
}

// SearchDevice looks a serial number up in the device registry. A serial the
// registry has never seen yields an empty lookup, not an error.
func (c *Client) SearchDevice(ctx context.Context, serial string) (*model.DeviceLookup, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, apperr.New(apperr.CodeValidation, "serial number is required")
	}
	var out model.DeviceLookup
	err := c.doJSON(ctx, "search_device", http.MethodPost, "/search-device", searchDeviceRequest{SerialNo: serial}, &out)
	if apperr.IsCode(err, apperr.CodeNotFound) {
		return &model.DeviceLookup{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddDevice registers a device.
func (c *Client) AddDevice(ctx context.Context, d model.NewDevice) (*model.Device, error) {
	var out model.Device
	if err := c.doJSON(ctx, "add_device", http.MethodPost, "/add-device", d, &out); err != nil {
		return nil, err
	}
	if out.SerialNo == "" {
		out = model.Device{SerialNo: d.SerialNo, ModelName: d.ModelName, SKUID: d.SKUID, InPrice: d.InPrice, Status: model.DeviceInStock}
	}
	return &out, nil
}

// UploadResult is the backend's summary of a CSV import.
type UploadResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// UploadDeviceTransactions sends a CSV of device transactions as the "file"
// part of a multipart request.
func (c *Client) UploadDeviceTransactions(ctx context.Context, filename string, csv []byte) (*UploadResult, error) {
	if len(csv) == 0 {
		return nil, apperr.New(apperr.CodeValidation, "csv file is empty")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := writeFile(mw, "file", filename, "text/csv", csv); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	var out UploadResult
	err := c.do(ctx, request{
		op:          "upload_device_transaction",
		method:      http.MethodPost,
		path:        "/upload-device-transaction",
		body:        &body,
		contentType: mw.FormDataContentType(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
