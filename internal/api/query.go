package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// maxPages bounds pagination for one query.
const maxPages = 1000

// QueryDataset fetches one page of rows.
func (c *Client) QueryDataset(ctx context.Context, q DatasetQuery, page int) (*QueryResponse, error) {
	query := url.Values{}
	if q.Start != "" {
		query.Set("start_time", q.Start)
	}
	if q.End != "" {
		query.Set("end_time", q.End)
	}
	if q.FilterColumn != "" {
		query.Set("filter_column", q.FilterColumn)
		query.Set("filter_value", q.FilterValue)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = c.queryLimit
	}
	query.Set("limit", strconv.Itoa(limit))
	if page > 1 {
		query.Set("page", strconv.Itoa(page))
	}

	var resp QueryResponse
	if err := c.get(ctx, "/datasets/"+url.PathEscape(q.Dataset)+"/query", query, &resp); err != nil {
		return nil, fmt.Errorf("query %s page %d: %w", q.Dataset, page, err)
	}

	return &resp, nil
}

// GetDataset fetches all rows matching q by paging through results.
func (c *Client) GetDataset(ctx context.Context, q DatasetQuery) ([]Row, error) {
	var rows []Row

	for page := 1; ; page++ {
		if page > maxPages {
			return nil, fmt.Errorf("query %s: more than %d pages", q.Dataset, maxPages)
		}

		resp, err := c.QueryDataset(ctx, q, page)
		if err != nil {
			return nil, err
		}

		rows = append(rows, resp.Data...)

		if !resp.Meta.HasNextPage || len(resp.Data) == 0 {
			break
		}
	}

	c.logger.Debug("dataset query complete", "dataset", q.Dataset, "rows", len(rows))
	return rows, nil
}
