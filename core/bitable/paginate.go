package bitable

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Paginate follows page_token continuations on a GET listing and returns
// every page's items in order. It stops when a page reports has_more=false
// or carries no continuation token. pageSize is clamped to maxPageSize.
func Paginate[T any](ctx context.Context, c *Client, path string, query url.Values, pageSize, maxPageSize int) ([]T, error) {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := url.Values{}
	for k, v := range query {
		params[k] = append([]string(nil), v...)
	}
	params.Set("page_size", strconv.Itoa(pageSize))

	var items []T
	for {
		var p page[T]
		if err := c.Execute(ctx, http.MethodGet, path, params, nil, &p); err != nil {
			return nil, err
		}
		items = append(items, p.Items...)

		if !p.HasMore || p.PageToken == "" {
			return items, nil
		}
		params.Set("page_token", p.PageToken)
	}
}
