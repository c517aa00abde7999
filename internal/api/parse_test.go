package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefsync/backline/internal/entity"
)

func TestParseList_RecognizesEveryEnvelope(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		shape ListShape
		total int
		ids   []int64
	}{
		{
			name:  "bare array",
			raw:   `[{"id": 1}, {"id": 2}]`,
			shape: ShapeArray,
			total: 2,
			ids:   []int64{1, 2},
		},
		{
			name:  "drf page with count",
			raw:   `{"results": [{"id": 3}], "count": 57}`,
			shape: ShapeResults,
			total: 57,
			ids:   []int64{3},
		},
		{
			name:  "drf page without count",
			raw:   `{"results": [{"id": 3}, {"id": 4}]}`,
			shape: ShapeResults,
			total: 2,
			ids:   []int64{3, 4},
		},
		{
			name:  "data wrapper",
			raw:   `{"data": [{"id": 5}]}`,
			shape: ShapeData,
			total: 1,
			ids:   []int64{5},
		},
		{
			name:  "data.results double wrapper",
			raw:   `{"data": {"results": [{"id": 6}], "count": 9}}`,
			shape: ShapeDataResults,
			total: 9,
			ids:   []int64{6},
		},
		{
			name:  "empty drf page",
			raw:   `{"results": [], "count": 0}`,
			shape: ShapeResults,
			total: 0,
			ids:   []int64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ParseList[entity.User]([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.shape, page.Shape)
			assert.Equal(t, tt.total, page.Total)

			ids := make([]int64, 0, len(page.Items))
			for _, u := range page.Items {
				ids = append(ids, u.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestParseList_FailsClosedOnUnknownEnvelope(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"object without results or data", `{"users": [{"id": 1}]}`},
		{"data wrapping unknown object", `{"data": {"items": []}}`},
		{"scalar", `42`},
		{"empty body", ``},
		{"malformed json", `{"results": [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseList[entity.User]([]byte(tt.raw))
			require.Error(t, err)
		})
	}
}
