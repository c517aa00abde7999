package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ListShape identifies which response envelope a list endpoint used.
type ListShape string

const (
	// ShapeArray is a bare JSON array: [...]
	ShapeArray ListShape = "array"
	// ShapeResults is a DRF page: {"results": [...], "count": n}
	ShapeResults ListShape = "results"
	// ShapeData is a plain wrapper: {"data": [...]}
	ShapeData ListShape = "data"
	// ShapeDataResults is a double wrapper: {"data": {"results": [...]}}
	ShapeDataResults ListShape = "data.results"
)

// ListPage is a decoded list response: the items, the server-reported
// total (len(Items) when the envelope carries no count), and which shape
// the endpoint used.
type ListPage[T any] struct {
	Items []T
	Total int
	Shape ListShape
}

type listEnvelope struct {
	Results json.RawMessage `json:"results"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
}

// ParseList decodes a list response in any of the four envelope shapes
// the backend uses. An unrecognized envelope is an error: guessing at an
// unknown shape would silently render an empty list over live data.
func ParseList[T any](raw []byte) (ListPage[T], error) {
	var page ListPage[T]

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return page, fmt.Errorf("parse list: empty response body")
	}

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &page.Items); err != nil {
			return page, fmt.Errorf("parse list: bare array: %w", err)
		}
		page.Total = len(page.Items)
		page.Shape = ShapeArray
		return page, nil
	}

	var env listEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return page, fmt.Errorf("parse list: envelope: %w", err)
	}

	switch {
	case env.Results != nil:
		if err := json.Unmarshal(env.Results, &page.Items); err != nil {
			return page, fmt.Errorf("parse list: results: %w", err)
		}
		page.Shape = ShapeResults
	case env.Data != nil:
		inner := bytes.TrimSpace(env.Data)
		if len(inner) > 0 && inner[0] == '[' {
			if err := json.Unmarshal(inner, &page.Items); err != nil {
				return page, fmt.Errorf("parse list: data array: %w", err)
			}
			page.Shape = ShapeData
		} else {
			var nested listEnvelope
			if err := json.Unmarshal(inner, &nested); err != nil {
				return page, fmt.Errorf("parse list: nested data: %w", err)
			}
			if nested.Results == nil {
				return page, fmt.Errorf("parse list: unrecognized envelope inside data")
			}
			if err := json.Unmarshal(nested.Results, &page.Items); err != nil {
				return page, fmt.Errorf("parse list: data.results: %w", err)
			}
			env.Count = nested.Count
			page.Shape = ShapeDataResults
		}
	default:
		return page, fmt.Errorf("parse list: unrecognized envelope (no results or data key)")
	}

	if env.Count != nil {
		page.Total = *env.Count
	} else {
		page.Total = len(page.Items)
	}
	return page, nil
}
