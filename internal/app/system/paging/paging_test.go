package paging_test

import (
	"net/http/httptest"
	"testing"

	"github.com/astren-app/astren/internal/app/system/paging"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name       string
		target     string
		wantLimit  int64
		wantOffset int64
	}{
		{"defaults", "/tareas/x", paging.DefaultLimit, 0},
		{"explicit", "/tareas/x?limit=10&offset=20", 10, 20},
		{"clamped", "/tareas/x?limit=9999", paging.MaxLimit, 0},
		{"garbage", "/tareas/x?limit=abc&offset=-5", paging.DefaultLimit, 0},
		{"zero limit", "/tareas/x?limit=0", paging.DefaultLimit, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.target, nil)
			limit, offset := paging.Parse(r)
			if limit != tc.wantLimit || offset != tc.wantOffset {
				t.Errorf("Parse: got (%d, %d), want (%d, %d)", limit, offset, tc.wantLimit, tc.wantOffset)
			}
		})
	}
}
