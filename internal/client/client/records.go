package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/gatelog/internal/client/models"
)

// ListRecords runs the canonical list query. query must already be in its
// final form; identical values produce byte-identical requests.
func (c *HTTPClient) ListRecords(ctx context.Context, query url.Values) (models.PagedResult, error) {
	raw, err := c.doRaw(ctx, call{
		method: http.MethodGet,
		path:   "/car-records",
		route:  "/car-records",
		query:  query,
	})
	if err != nil {
		return models.PagedResult{}, err
	}
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	return Normalize(raw, page, limit), nil
}

func (c *HTTPClient) GetRecord(ctx context.Context, id string) (*models.VehicleRecord, error) {
	var rec models.VehicleRecord
	err := c.doJSON(ctx, call{
		method: http.MethodGet,
		path:   "/car/" + url.PathEscape(id),
		route:  "/car/{id}",
	}, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *HTTPClient) CreateRecord(ctx context.Context, body Payload) (*models.VehicleRecord, error) {
	return c.submitRecord(ctx, call{
		method: http.MethodPost,
		path:   "/car-entry",
		route:  "/car-entry",
	}, body)
}

func (c *HTTPClient) UpdateRecord(ctx context.Context, id string, body Payload) (*models.VehicleRecord, error) {
	return c.submitRecord(ctx, call{
		method: http.MethodPut,
		path:   "/car/" + url.PathEscape(id),
		route:  "/car/{id}",
	}, body)
}

// submitRecord sends a multipart record body. The service answers with the
// record itself or wraps it as {"car": ...} / {"record": ...}.
func (c *HTTPClient) submitRecord(ctx context.Context, cl call, body Payload) (*models.VehicleRecord, error) {
	cl.body = body.Body
	cl.contentType = body.ContentType
	cl.length = body.Length
	cl.untimed = true

	var raw json.RawMessage
	if err := c.doJSON(ctx, cl, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		Car    *models.VehicleRecord `json:"car"`
		Record *models.VehicleRecord `json:"record"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		switch {
		case wrapped.Car != nil:
			return wrapped.Car, nil
		case wrapped.Record != nil:
			return wrapped.Record, nil
		}
	}

	var rec models.VehicleRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, cl.route, err)
	}
	return &rec, nil
}

func (c *HTTPClient) DeleteRecord(ctx context.Context, id string) error {
	return c.doJSON(ctx, call{
		method: http.MethodDelete,
		path:   "/car/" + url.PathEscape(id),
		route:  "/car/{id}",
	}, nil)
}

// ExportRecords streams the spreadsheet export. The caller closes the body.
func (c *HTTPClient) ExportRecords(ctx context.Context) (io.ReadCloser, error) {
	resp, cancel, err := c.send(ctx, call{
		method:  http.MethodGet,
		path:    "/admin/export-cars",
		route:   "/admin/export-cars",
		untimed: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel func()
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

// Dashboard fetches summary counts grouped by the operator's local day.
// tzOffset is "+05:30" style, today is the local "YYYY-MM-DD".
func (c *HTTPClient) Dashboard(ctx context.Context, tzOffset, today string) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	err := c.doJSON(ctx, call{
		method: http.MethodGet,
		path:   "/dashboard",
		route:  "/dashboard",
		query:  url.Values{"tzOffset": {tzOffset}, "today": {today}},
	}, &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
