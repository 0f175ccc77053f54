package paging_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/helplink/internal/app/system/paging"
)

func TestParse_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/help-requests", nil)
	p := paging.Parse(r)
	if p.Limit != paging.DefaultLimit {
		t.Errorf("limit: got %d, want %d", p.Limit, paging.DefaultLimit)
	}
	if p.Page != 1 {
		t.Errorf("page: got %d, want 1", p.Page)
	}
}

func TestParse_Explicit(t *testing.T) {
	r := httptest.NewRequest("GET", "/help-requests?limit=10&page=3", nil)
	p := paging.Parse(r)
	if p.Limit != 10 || p.Page != 3 {
		t.Errorf("got %+v, want limit=10 page=3", p)
	}
	if p.Skip() != 20 {
		t.Errorf("skip: got %d, want 20", p.Skip())
	}
}

func TestParse_ClampsAndIgnoresGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/help-requests?limit=5000&page=banana", nil)
	p := paging.Parse(r)
	if p.Limit != paging.MaxLimit {
		t.Errorf("limit: got %d, want %d", p.Limit, paging.MaxLimit)
	}
	if p.Page != 1 {
		t.Errorf("page: got %d, want 1", p.Page)
	}
}

func TestPages(t *testing.T) {
	p := paging.Params{Limit: 50, Page: 1}
	cases := []struct {
		total int64
		want  int
	}{
		{0, 0},
		{1, 1},
		{50, 1},
		{51, 2},
		{150, 3},
	}
	for _, c := range cases {
		if got := p.Pages(c.total); got != c.want {
			t.Errorf("Pages(%d): got %d, want %d", c.total, got, c.want)
		}
	}
}
