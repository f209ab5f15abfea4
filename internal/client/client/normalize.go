package client

import (
	"bytes"
	"encoding/json"

	"github.com/dmitrijs2005/gatelog/internal/client/models"
)

// Normalize turns a list response into a PagedResult. Two shapes are
// accepted: the paged envelope {items,total,page,limit} and a bare array
// (total = len, page 1, pageSize = len). Anything else yields an empty
// result. page and pageSize are what the request asked for and fill in
// fields the envelope leaves out.
func Normalize(raw []byte, page, pageSize int) models.PagedResult {
	empty := models.PagedResult{Items: []models.VehicleRecord{}, Page: 1, PageSize: pageSize}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return empty
	}

	switch raw[0] {
	case '[':
		var items []models.VehicleRecord
		if err := json.Unmarshal(raw, &items); err != nil {
			return empty
		}
		return models.PagedResult{Items: items, Total: len(items), Page: 1, PageSize: len(items)}

	case '{':
		var env struct {
			Items *[]models.VehicleRecord `json:"items"`
			Total int                     `json:"total"`
			Page  int                     `json:"page"`
			Limit int                     `json:"limit"`
		}
		if err := json.Unmarshal(raw, &env); err != nil || env.Items == nil {
			return empty
		}
		return envelope(*env.Items, env.Total, env.Page, env.Limit, page, pageSize)
	}
	return empty
}

func envelope(items []models.VehicleRecord, total, page, limit, reqPage, reqSize int) models.PagedResult {
	if page < 1 {
		page = reqPage
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = reqSize
	}
	if limit < 1 {
		limit = len(items)
	}
	if items == nil {
		items = []models.VehicleRecord{}
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	if total < 0 {
		total = 0
	}
	if total == 0 {
		items = items[:0]
	}
	return models.PagedResult{Items: items, Total: total, Page: page, PageSize: limit}
}
