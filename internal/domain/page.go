package domain

import "time"

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// PageRequest selects one of two pagination styles: offset (Page) or
// cursor (CreatedAt). Limit applies to both.
type PageRequest struct {
	Page      int
	CreatedAt *time.Time
	Limit     int
}

// Normalize clamps the request to sane bounds.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	return r
}

type PageMeta struct {
	Page        int        `json:"page,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	Limit       int        `json:"limit"`
	HasNextPage bool       `json:"hasNextPage"`
}

// Page wraps a result set in the pagination envelope. HasNextPage comes
// from a lookahead fetch of limit+1 rows; the extra row never leaves the
// service layer.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

func NewPage[T any](items []T, req PageRequest) Page[T] {
	hasNext := len(items) == req.Limit+1
	if hasNext {
		items = items[:req.Limit]
	}
	meta := PageMeta{Limit: req.Limit, HasNextPage: hasNext}
	if req.CreatedAt != nil {
		meta.CreatedAt = req.CreatedAt
	} else {
		meta.Page = req.Page
	}
	return Page[T]{Data: items, Meta: meta}
}
